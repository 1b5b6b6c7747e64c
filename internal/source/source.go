// Package source loads HTML documents from files, stdin or HTTP(S) URLs.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/raysh454/textmark/internal/logging"
)

// Stdin is the target name that reads the document from standard input.
const Stdin = "-"

// Config controls how documents are fetched.
type Config struct {
	// Timeout bounds a whole HTTP fetch. Zero means 30 seconds.
	Timeout time.Duration

	// UserAgent is sent with HTTP requests when non-empty.
	UserAgent string
}

// DefaultConfig returns the fetch defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:   30 * time.Second,
		UserAgent: "textmark/1.0",
	}
}

// Loader reads documents. The zero value is not usable; use NewLoader.
type Loader struct {
	client *http.Client
	cfg    Config
	stdin  io.Reader
	logger logging.Logger
}

// NewLoader builds a Loader. httpClient may be nil, in which case one with
// cfg.Timeout is created.
func NewLoader(cfg Config, logger logging.Logger, httpClient *http.Client) *Loader {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Loader{
		client: httpClient,
		cfg:    cfg,
		stdin:  os.Stdin,
		logger: logging.OrNop(logger).With(logging.Field{Key: "component", Value: "source"}),
	}
}

// WithStdin replaces the reader used for the "-" target.
func (l *Loader) WithStdin(r io.Reader) *Loader {
	l.stdin = r
	return l
}

// IsURL reports whether target is fetched over HTTP.
func IsURL(target string) bool {
	t := strings.ToLower(strings.TrimSpace(target))
	return strings.HasPrefix(t, "http://") || strings.HasPrefix(t, "https://")
}

// Load parses the document named by target: "-" for stdin, an http(s) URL,
// or a file path.
func (l *Loader) Load(ctx context.Context, target string) (*goquery.Document, error) {
	target = strings.TrimSpace(target)
	switch {
	case target == "" || target == Stdin:
		l.logger.Debug("reading document from stdin")
		return Parse(l.stdin)
	case IsURL(target):
		return l.fetch(ctx, target)
	default:
		return l.readFile(target)
	}
}

func (l *Loader) readFile(path string) (*goquery.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	l.logger.Debug("reading document from file", logging.Field{Key: "path", Value: path})
	doc, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}

func (l *Loader) fetch(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if l.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", l.cfg.UserAgent)
	}

	l.logger.Debug("fetching document", logging.Field{Key: "url", Value: url})
	resp, err := l.client.Do(req)
	if err != nil {
		l.logger.Warn("http request failed",
			logging.Field{Key: "url", Value: url},
			logging.Field{Key: "error", Value: err.Error()})
		return nil, fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	doc, err := Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}
	return doc, nil
}

// Parse reads an HTML document from r.
func Parse(r io.Reader) (*goquery.Document, error) {
	if r == nil {
		return nil, fmt.Errorf("nil reader")
	}
	return goquery.NewDocumentFromReader(r)
}
