package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dmarchuk/otprelay/internal/dedup"
	"github.com/dmarchuk/otprelay/internal/portal"
	"github.com/dmarchuk/otprelay/pkg/models"
)

// Fetcher retrieves the monitored portal page
type Fetcher interface {
	FetchPage(ctx context.Context) (string, error)
}

// Extractor parses portal markup into message records
type Extractor interface {
	Extract(markup string) ([]*models.MessageRecord, error)
}

// Formatter renders records into one outbound message
type Formatter interface {
	FormatRecords(records []*models.MessageRecord) string
}

// Sink delivers a formatted message to the notification channel
type Sink interface {
	Send(ctx context.Context, text string) error
}

// Store records audit rows and statistics. Failures are non-fatal.
type Store interface {
	InsertLog(ctx context.Context, record *models.MessageRecord, delivered bool) error
	SetStat(ctx context.Context, name, value string) error
}

// Status is a point-in-time snapshot of the pipeline
type Status struct {
	Running   bool      `json:"running"`
	StartedAt time.Time `json:"started_at,omitempty"`
	LastCheck time.Time `json:"last_check,omitempty"`
	LastError string    `json:"last_error,omitempty"`
	CacheSize int       `json:"cache_size"`
}

// Config for the pipeline
type Config struct {
	PollInterval  time.Duration // wait after a normal cycle
	ErrorInterval time.Duration // wait after a failed fetch
}

// Pipeline owns the fetch → extract → dedup → notify cycle. One
// background goroutine runs the loop; Start and Stop are idempotent and
// safe to call from the control surface while the loop runs.
type Pipeline struct {
	fetcher   Fetcher
	extractor Extractor
	cache     *dedup.Cache
	formatter Formatter
	sink      Sink
	store     Store
	cfg       Config
	logger    *slog.Logger

	// cycleMu serializes fetch cycles: the portal client is single-owner,
	// so a manual check must not overlap the background loop.
	cycleMu sync.Mutex

	mu        sync.Mutex
	running   bool
	cancel    context.CancelFunc
	done      chan struct{}
	startedAt time.Time
	lastCheck time.Time
	lastErr   error
}

// Deps for creating a pipeline
type Deps struct {
	Fetcher   Fetcher
	Extractor Extractor
	Cache     *dedup.Cache
	Formatter Formatter
	Sink      Sink
	Store     Store
	Config    Config
	Logger    *slog.Logger
}

// New creates a new pipeline
func New(deps Deps) *Pipeline {
	cfg := deps.Config
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 30 * time.Second
	}
	if cfg.ErrorInterval <= 0 {
		cfg.ErrorInterval = 60 * time.Second
	}

	return &Pipeline{
		fetcher:   deps.Fetcher,
		extractor: deps.Extractor,
		cache:     deps.Cache,
		formatter: deps.Formatter,
		sink:      deps.Sink,
		store:     deps.Store,
		cfg:       cfg,
		logger:    deps.Logger.With("component", "pipeline"),
	}
}

// Start launches the poll loop. Starting a running pipeline is a no-op.
func (p *Pipeline) Start() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return "monitoring is already running", nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.running = true
	p.cancel = cancel
	p.done = make(chan struct{})
	p.startedAt = time.Now()

	go p.loop(ctx, p.done)

	p.logger.Info("monitoring started")
	return "monitoring started", nil
}

// Stop requests the loop to exit and waits for it. The stop is observed
// at the next iteration boundary, bounded by one in-flight fetch.
// Stopping a stopped pipeline is a no-op.
func (p *Pipeline) Stop() string {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return "monitoring is not running"
	}
	p.running = false
	p.cancel()
	done := p.done
	p.mu.Unlock()

	<-done
	p.logger.Info("monitoring stopped")
	return "monitoring stopped"
}

// CheckNow runs a single fetch cycle synchronously, independent of the
// background loop, and reports the outcome for the operator.
func (p *Pipeline) CheckNow(ctx context.Context) (string, error) {
	novel, delivered, err := p.runCycle(ctx)
	if err != nil {
		return "", err
	}
	if novel == 0 {
		return "check completed, no new OTPs found", nil
	}
	if !delivered {
		return fmt.Sprintf("found %d new OTPs but delivery failed", novel), nil
	}
	return fmt.Sprintf("found and sent %d new OTPs", novel), nil
}

// Status returns a snapshot of the pipeline state. Never errors: the
// control surface must be able to render state while the loop fails.
func (p *Pipeline) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	size, _ := p.cache.Stats()
	st := Status{
		Running:   p.running,
		LastCheck: p.lastCheck,
		CacheSize: size,
	}
	if p.running {
		st.StartedAt = p.startedAt
	}
	if p.lastErr != nil {
		st.LastError = p.lastErr.Error()
	}
	return st
}

// loop is the long-lived poll loop. Exits when ctx is cancelled.
func (p *Pipeline) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		wait := p.cfg.PollInterval
		if _, _, err := p.runCycle(ctx); err != nil {
			wait = p.cfg.ErrorInterval
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// runCycle performs one fetch → extract → filter → dispatch pass and
// returns the number of novel records and whether delivery succeeded.
// Only fetch failures surface as errors; everything downstream is
// logged and absorbed so the loop always reaches its next cycle.
func (p *Pipeline) runCycle(ctx context.Context) (novel int, delivered bool, err error) {
	p.cycleMu.Lock()
	defer p.cycleMu.Unlock()

	p.recordCheck()

	markup, err := p.fetcher.FetchPage(ctx)
	if err != nil {
		p.setLastError(err)
		switch {
		case errors.Is(err, portal.ErrAuthFailed):
			p.logger.Error("authentication failed, check portal credentials", "error", err)
		case errors.Is(err, portal.ErrUnreachable):
			p.logger.Warn("portal unreachable, will retry", "error", err)
		default:
			p.logger.Error("fetch failed", "error", err)
		}
		return 0, false, err
	}

	records, err := p.extractor.Extract(markup)
	if err != nil {
		// Malformed markup from an uncontrolled source: treat like an
		// empty page and move on.
		p.setLastError(err)
		p.logger.Warn("extraction failed", "error", err)
		return 0, false, nil
	}

	newRecords := p.cache.FilterNovel(records)
	if len(newRecords) == 0 {
		p.setLastError(nil)
		p.logger.Debug("no new records", "extracted", len(records))
		return 0, false, nil
	}

	message := p.formatter.FormatRecords(newRecords)
	sendErr := p.sink.Send(ctx, message)
	if sendErr != nil {
		p.logger.Error("delivery failed", "error", sendErr, "records", len(newRecords))
	} else {
		p.logger.Info("delivered new OTPs", "count", len(newRecords))
	}

	// Audit all novel records, delivered or not
	for _, record := range newRecords {
		if logErr := p.store.InsertLog(ctx, record, sendErr == nil); logErr != nil {
			p.logger.Error("failed to audit record", "error", logErr)
		}
	}

	p.setLastError(nil)
	return len(newRecords), sendErr == nil, nil
}

func (p *Pipeline) recordCheck() {
	now := time.Now()

	p.mu.Lock()
	p.lastCheck = now
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.store.SetStat(ctx, "last_check", now.Format(time.DateTime)); err != nil {
		p.logger.Warn("failed to record last check", "error", err)
	}
}

func (p *Pipeline) setLastError(err error) {
	p.mu.Lock()
	p.lastErr = err
	p.mu.Unlock()
}
