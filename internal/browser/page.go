// Package browser drives a Chrome tab through chromedp and exposes the
// page's CSS.highlights as a named highlight registry.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/raysh454/textmark/internal/logging"
	"golang.org/x/net/html"
)

// ErrNoDocument is returned when an operation needs a loaded document.
var ErrNoDocument = errors.New("browser: no document loaded")

// Config controls the browser tab.
type Config struct {
	// Headless runs Chrome without a window. Default: true.
	Headless bool

	// IdleAfter is how long the network must stay quiet before a page
	// counts as loaded. Default: 2s.
	IdleAfter time.Duration

	// Timeout bounds each browser round trip. Default: 60s.
	Timeout time.Duration

	// ExecPath overrides the Chrome binary; empty lets chromedp find it.
	ExecPath string
}

// DefaultConfig returns the browser defaults.
func DefaultConfig() Config {
	return Config{
		Headless:  true,
		IdleAfter: 2 * time.Second,
		Timeout:   60 * time.Second,
	}
}

// Page is one Chrome tab. It remembers the <html> element of the last
// document it loaded so highlight ranges can be located in the live DOM.
type Page struct {
	cfg         Config
	ctx         context.Context
	tabCancel   context.CancelFunc
	allocCancel context.CancelFunc
	logger      logging.Logger

	mu   sync.Mutex
	root *html.Node
}

// NewPage starts Chrome and opens a blank tab.
func NewPage(cfg Config, logger logging.Logger) (*Page, error) {
	def := DefaultConfig()
	if cfg.IdleAfter <= 0 {
		cfg.IdleAfter = def.IdleAfter
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}

	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if !cfg.Headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	// The first Run starts the browser.
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	componentLogger := logging.OrNop(logger).With(logging.Field{Key: "component", Value: "browser"})
	componentLogger.Debug("started browser tab",
		logging.Field{Key: "headless", Value: cfg.Headless},
		logging.Field{Key: "idle_after", Value: cfg.IdleAfter.String()})

	return &Page{
		cfg:         cfg,
		ctx:         tabCtx,
		tabCancel:   tabCancel,
		allocCancel: allocCancel,
		logger:      componentLogger,
	}, nil
}

// run executes actions on the tab, bounded by the page timeout and by the
// caller's ctx.
func (p *Page) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	runCtx, cancel := context.WithTimeout(p.ctx, p.cfg.Timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

// inflight tracks network requests by ID. A redirect reuses its request's
// ID, so each hop of a chain adds nothing new.
type inflight struct {
	mu  sync.Mutex
	ids map[network.RequestID]struct{}
}

func newInflight() *inflight {
	return &inflight{ids: make(map[network.RequestID]struct{})}
}

func (f *inflight) start(id network.RequestID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids[id] = struct{}{}
}

// finish drops id and reports how many requests are still in flight.
func (f *inflight) finish(id network.RequestID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.ids, id)
	return len(f.ids)
}

func (f *inflight) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ids)
}

// waitNetworkIdle returns a channel that is closed once no request has been
// in flight for idleAfter. The listener lives as long as ctx.
func waitNetworkIdle(ctx context.Context, idleAfter time.Duration) <-chan struct{} {
	idleChan := make(chan struct{})
	reqs := newInflight()
	var timer *time.Timer
	var timerMutex sync.Mutex
	var once sync.Once

	startTimer := func() {
		timerMutex.Lock()
		defer timerMutex.Unlock()

		if timer != nil {
			timer.Stop()
		}

		timer = time.AfterFunc(idleAfter, func() {
			if reqs.count() == 0 {
				once.Do(func() {
					close(idleChan)
				})
			}
		})
	}

	chromedp.ListenTarget(ctx, func(ev any) {
		switch ev := ev.(type) {
		case *network.EventRequestWillBeSent:
			reqs.start(ev.RequestID)
		case *network.EventLoadingFinished:
			if reqs.finish(ev.RequestID) == 0 {
				startTimer()
			}
		case *network.EventLoadingFailed:
			if reqs.finish(ev.RequestID) == 0 {
				startTimer()
			}
		}
	})
	// Pages that issue no request at all still go idle.
	startTimer()

	return idleChan
}

// Load navigates to url, waits for the network to go idle and returns the
// rendered DOM as a document.
func (p *Page) Load(ctx context.Context, url string) (*goquery.Document, error) {
	listenCtx, stopListening := context.WithCancel(p.ctx)
	defer stopListening()

	if err := p.run(ctx, network.Enable()); err != nil {
		return nil, fmt.Errorf("enable network events: %w", err)
	}
	idle := waitNetworkIdle(listenCtx, p.cfg.IdleAfter)

	p.logger.Debug("navigating", logging.Field{Key: "url", Value: url})
	if err := p.run(ctx, chromedp.Navigate(url)); err != nil {
		return nil, fmt.Errorf("navigate %s: %w", url, err)
	}

	select {
	case <-idle:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(p.cfg.Timeout):
		p.logger.Warn("network never went idle, reading DOM anyway", logging.Field{Key: "url", Value: url})
	}

	return p.snapshot(ctx)
}

// LoadHTML replaces the tab's document with src and returns it parsed.
func (p *Page) LoadHTML(ctx context.Context, src string) (*goquery.Document, error) {
	err := p.run(ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, src).Do(ctx)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("set document content: %w", err)
	}
	return p.snapshot(ctx)
}

// snapshot reads the live DOM and remembers its <html> element.
func (p *Page) snapshot(ctx context.Context) (*goquery.Document, error) {
	var outer string
	if err := p.run(ctx, chromedp.OuterHTML("html", &outer, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("read DOM: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(outer))
	if err != nil {
		return nil, fmt.Errorf("parse DOM: %w", err)
	}
	htmlSel := doc.Find("html")
	if htmlSel.Length() == 0 {
		return nil, ErrNoDocument
	}

	p.mu.Lock()
	p.root = htmlSel.Nodes[0]
	p.mu.Unlock()
	return doc, nil
}

func (p *Page) documentRoot() *html.Node {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.root
}

// Style adds a ::highlight(name) rule with the given declarations.
func (p *Page) Style(ctx context.Context, name, declarations string) error {
	return p.run(ctx, chromedp.Evaluate(styleScript(name, declarations), nil))
}

// Screenshot captures the full page as PNG.
func (p *Page) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := p.run(ctx, chromedp.FullScreenshot(&buf, 100)); err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	return buf, nil
}

// HighlightCount returns how many ranges the page holds under name.
func (p *Page) HighlightCount(ctx context.Context, name string) (int, error) {
	var n int
	if err := p.run(ctx, chromedp.Evaluate(countScript(name), &n)); err != nil {
		return 0, fmt.Errorf("count highlights: %w", err)
	}
	return n, nil
}

// Close shuts the tab and the browser.
func (p *Page) Close() error {
	p.logger.Debug("closing browser tab")
	p.tabCancel()
	p.allocCancel()
	return nil
}
