package portal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// ErrAuthFailed means the portal rejected the login attempt. Recoverable
// only by operator action (fixing credentials), not by tight retry.
var ErrAuthFailed = errors.New("portal authentication failed")

// ErrUnreachable means a transient network or server failure. Retried on
// the next poll cycle.
var ErrUnreachable = errors.New("portal unreachable")

const (
	loginPath = "/login"
	smsPath   = "/portal/live/my_sms"

	csrfFieldName = "_token"
	userAgent     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// Client maintains an authenticated session with the SMS portal.
// Not safe for concurrent use: it is owned by the single poll loop.
type Client struct {
	baseURL    string
	email      string
	password   string
	httpClient *http.Client
	loggedIn   bool
	logger     *slog.Logger
}

// ClientConfig for the portal client
type ClientConfig struct {
	BaseURL  string
	Email    string
	Password string
	Timeout  time.Duration
}

// NewClient creates a new portal client
func NewClient(cfg ClientConfig, logger *slog.Logger) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		email:    cfg.Email,
		password: cfg.Password,
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: timeout,
		},
		logger: logger.With("component", "portal_client"),
	}, nil
}

// FetchPage returns the raw markup of the monitored SMS page, logging in
// first if the session is not established.
func (c *Client) FetchPage(ctx context.Context) (string, error) {
	if !c.loggedIn {
		if err := c.login(ctx); err != nil {
			return "", err
		}
	}

	body, status, err := c.get(ctx, c.baseURL+smsPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("%w: sms page returned status %d", ErrUnreachable, status)
	}

	// A 200 carrying the login form means the session expired and the
	// portal bounced us back; re-authenticate on the next call.
	if c.isLoginPage(body) {
		c.loggedIn = false
		c.logger.Warn("session lost, will re-authenticate on next cycle")
		return "", fmt.Errorf("%w: redirected to login page", ErrUnreachable)
	}

	return body, nil
}

// LoggedIn reports whether the client currently holds a session
func (c *Client) LoggedIn() bool {
	return c.loggedIn
}

// login performs the full login sequence: fetch the login page, lift the
// anti-forgery token from its markup, then post the credential form.
func (c *Client) login(ctx context.Context) error {
	loginURL := c.baseURL + loginPath

	body, status, err := c.get(ctx, loginURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: login page returned status %d", ErrUnreachable, status)
	}

	token, err := extractCSRFToken(body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	form := url.Values{
		"email":       {c.email},
		"password":    {c.password},
		csrfFieldName: {token},
	}

	respBody, status, err := c.postForm(ctx, loginURL, form)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	if status != http.StatusOK || !strings.Contains(strings.ToLower(respBody), "logout") {
		c.loggedIn = false
		return ErrAuthFailed
	}

	c.loggedIn = true
	c.logger.Info("login successful")
	return nil
}

func (c *Client) get(ctx context.Context, rawURL string) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", 0, err
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", resp.StatusCode, err
	}
	return string(body), resp.StatusCode, nil
}

func (c *Client) postForm(ctx context.Context, rawURL string, form url.Values) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, err
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", resp.StatusCode, err
	}
	return string(body), resp.StatusCode, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
}

// isLoginPage detects the portal's login form in a fetched body
func (c *Client) isLoginPage(body string) bool {
	lower := strings.ToLower(body)
	return strings.Contains(lower, `name="`+csrfFieldName+`"`) && !strings.Contains(lower, "logout")
}

// extractCSRFToken finds the anti-forgery token hidden field in the
// login page markup
func extractCSRFToken(body string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to parse login page: %w", err)
	}

	token, exists := doc.Find(`input[name="` + csrfFieldName + `"]`).First().Attr("value")
	if !exists {
		return "", errors.New("csrf token not found in login page")
	}
	return token, nil
}
