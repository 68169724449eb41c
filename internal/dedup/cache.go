package dedup

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dmarchuk/otprelay/pkg/models"
)

// Entry is one cached fingerprint. The record fields are carried so that
// the snapshot file is readable by an operator.
type Entry struct {
	FirstSeenAt time.Time `json:"timestamp"`
	OTP         string    `json:"otp"`
	Phone       string    `json:"phone"`
	Service     string    `json:"service"`
}

// Cache prevents re-delivery of already-seen OTP records within a time
// window. Entries expire lazily: every lookup or insert sweeps out
// entries older than the window. The cache is snapshotted to a JSON file
// on every admit so a restart does not re-deliver codes still inside the
// window. Safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]Entry
	file    string
	window  time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

// New creates a cache backed by the given snapshot file, loading any
// existing snapshot. A missing or corrupt snapshot starts the cache
// empty; it is never fatal.
func New(file string, window time.Duration, logger *slog.Logger) *Cache {
	c := &Cache{
		entries: make(map[string]Entry),
		file:    file,
		window:  window,
		now:     time.Now,
		logger:  logger.With("component", "dedup_cache"),
	}
	c.load()
	return c
}

// IsDuplicate reports whether the record's fingerprint is already cached
// and not expired.
func (c *Cache) IsDuplicate(record *models.MessageRecord) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanupLocked()
	_, ok := c.entries[record.Fingerprint()]
	return ok
}

// Admit inserts or refreshes the record's fingerprint and persists the
// snapshot. Persistence failures are logged and swallowed: the in-memory
// state stays authoritative for this process.
func (c *Cache) Admit(record *models.MessageRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[record.Fingerprint()] = Entry{
		FirstSeenAt: c.now(),
		OTP:         record.OTPCode,
		Phone:       record.PhoneNumber,
		Service:     record.ServiceName,
	}
	c.saveLocked()
}

// FilterNovel returns the records that are not duplicates, admitting
// each as it is examined. Two records sharing a fingerprint within the
// same batch therefore dedup against each other: the first wins.
func (c *Cache) FilterNovel(records []*models.MessageRecord) []*models.MessageRecord {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanupLocked()

	var novel []*models.MessageRecord
	for _, record := range records {
		key := record.Fingerprint()
		if _, seen := c.entries[key]; seen {
			continue
		}
		c.entries[key] = Entry{
			FirstSeenAt: c.now(),
			OTP:         record.OTPCode,
			Phone:       record.PhoneNumber,
			Service:     record.ServiceName,
		}
		novel = append(novel, record)
	}

	if len(novel) > 0 {
		c.saveLocked()
	}
	return novel
}

// Stats returns the live entry count and the configured expiry window
func (c *Cache) Stats() (total int, window time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanupLocked()
	return len(c.entries), c.window
}

// Reset clears all entries and persists the empty snapshot
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]Entry)
	c.saveLocked()
}

// cleanupLocked removes expired entries. Caller holds the mutex.
func (c *Cache) cleanupLocked() {
	cutoff := c.now().Add(-c.window)
	for key, entry := range c.entries {
		if entry.FirstSeenAt.Before(cutoff) {
			delete(c.entries, key)
		}
	}
}

// load reads the snapshot file into memory
func (c *Cache) load() {
	data, err := os.ReadFile(c.file)
	if err != nil {
		if !os.IsNotExist(err) {
			c.logger.Warn("failed to read cache snapshot", "file", c.file, "error", err)
		}
		return
	}

	if err := json.Unmarshal(data, &c.entries); err != nil {
		c.logger.Warn("cache snapshot corrupt, starting empty", "file", c.file, "error", err)
		c.entries = make(map[string]Entry)
	}
}

// saveLocked rewrites the whole snapshot file. Caller holds the mutex.
func (c *Cache) saveLocked() {
	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		c.logger.Error("failed to marshal cache snapshot", "error", err)
		return
	}

	if dir := filepath.Dir(c.file); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			c.logger.Error("failed to create cache directory", "dir", dir, "error", err)
			return
		}
	}

	if err := os.WriteFile(c.file, data, 0o644); err != nil {
		c.logger.Error("failed to write cache snapshot", "file", c.file, "error", err)
	}
}
