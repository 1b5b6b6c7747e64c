package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/PuerkitoBio/goquery"
	"github.com/raysh454/textmark/internal/browser"
	"github.com/raysh454/textmark/internal/highlight"
	"github.com/raysh454/textmark/internal/logging"
	"github.com/raysh454/textmark/internal/model"
	"github.com/raysh454/textmark/internal/registry"
	"github.com/raysh454/textmark/internal/render"
	"github.com/raysh454/textmark/internal/source"
	"github.com/raysh454/textmark/internal/textnode"
	"golang.org/x/net/html"
)

// Request describes one highlight run.
type Request struct {
	// Target is "-", a file path or an http(s) URL.
	Target string
	Terms  []string

	// Name and Selector override the configured defaults when non-empty.
	Name     string
	Selector string

	// Within, when set, is a CSS selector whose matches replace the whole
	// document as search scopes.
	Within string

	// Clear empties the registry before publishing.
	Clear bool

	// Screenshot is a PNG path written after publishing (browser only).
	Screenshot string
}

// Application is the runtime state container shared by the CLI commands.
type Application struct {
	Config   *Config
	Logger   logging.Logger
	Registry *registry.Memory

	out    io.Writer
	loader *source.Loader
}

// NewApplication wires an Application. A nil registry means the
// process-wide registry.Default().
func NewApplication(cfg *Config, logger logging.Logger, out io.Writer, loader *source.Loader, reg *registry.Memory) *Application {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	logger = logging.OrNop(logger)
	if loader == nil {
		loader = source.NewLoader(cfg.SourceCfg, logger, nil)
	}
	if reg == nil {
		reg = registry.Default()
	}
	if out == nil {
		out = os.Stdout
	}
	return &Application{
		Config:   cfg,
		Logger:   logger,
		Registry: reg,
		out:      out,
		loader:   loader,
	}
}

func (a *Application) highlightConfig(req Request, doc *goquery.Document) highlight.Config {
	cfg := a.Config.HighlightCfg
	cfg.Scope = doc.Nodes[0]
	if req.Name != "" {
		cfg.Name = req.Name
	}
	if req.Selector != "" {
		cfg.Selector = req.Selector
	}
	return cfg
}

// Highlight loads the target, publishes the occurrences into the memory
// registry and renders the registry in the configured format.
func (a *Application) Highlight(ctx context.Context, req Request) error {
	if len(req.Terms) == 0 {
		return errors.New("at least one search term is required")
	}

	doc, err := a.loader.Load(ctx, req.Target)
	if err != nil {
		return err
	}

	h, err := highlight.New(ctx, a.Registry, a.highlightConfig(req, doc), a.Logger)
	if err != nil {
		return err
	}
	if req.Clear {
		if err := h.ClearAll(ctx); err != nil {
			return err
		}
	}

	set, err := publish(ctx, h, doc, req)
	if err != nil {
		return err
	}
	a.Logger.Info("highlighted document",
		logging.Field{Key: "target", Value: req.Target},
		logging.Field{Key: "name", Value: h.Config().Name},
		logging.Field{Key: "occurrences", Value: len(set)})

	switch a.Config.Format {
	case FormatText:
		return render.Terminal(a.out, doc.Nodes[0], set, render.DefaultMatchStyle)
	case FormatCount:
		return render.Counts(a.out, a.Registry.Snapshot())
	default:
		return render.HTML(a.out, doc.Nodes[0], a.Registry.Snapshot())
	}
}

// publish runs the highlight over the whole document, or over the nodes
// req.Within picks.
func publish(ctx context.Context, h *highlight.Highlighter, doc *goquery.Document, req Request) (model.HighlightSet, error) {
	if req.Within != "" {
		return h.HighlightSelection(ctx, doc.Find(req.Within), req.Terms, highlight.Options{})
	}
	return h.Highlight(ctx, req.Terms, highlight.Options{})
}

// HighlightInBrowser loads the target in Chrome, publishes the occurrences
// into the page's CSS.highlights and reports how many ranges the page
// holds. With req.Screenshot set, the rendered page is saved as PNG.
func (a *Application) HighlightInBrowser(ctx context.Context, req Request) error {
	if len(req.Terms) == 0 {
		return errors.New("at least one search term is required")
	}

	page, err := browser.NewPage(a.Config.BrowserCfg, a.Logger)
	if err != nil {
		return err
	}
	defer page.Close()

	var doc *goquery.Document
	if source.IsURL(req.Target) {
		doc, err = page.Load(ctx, req.Target)
	} else {
		doc, err = a.loadIntoPage(ctx, page, req.Target)
	}
	if err != nil {
		return err
	}

	reg := page.Registry()
	h, err := highlight.New(ctx, reg, a.highlightConfig(req, doc), a.Logger)
	if err != nil {
		return err
	}
	if req.Clear {
		if err := h.ClearAll(ctx); err != nil {
			return err
		}
	}
	if _, err := publish(ctx, h, doc, req); err != nil {
		return err
	}

	name := h.Config().Name
	if a.Config.BrowserStyle != "" {
		if err := page.Style(ctx, name, a.Config.BrowserStyle); err != nil {
			return err
		}
	}

	n, err := page.HighlightCount(ctx, name)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(a.out, "%s\t%d\n", name, n); err != nil {
		return err
	}

	if req.Screenshot != "" {
		png, err := page.Screenshot(ctx)
		if err != nil {
			return err
		}
		if err := os.WriteFile(req.Screenshot, png, 0o644); err != nil {
			return fmt.Errorf("write screenshot: %w", err)
		}
		a.Logger.Info("wrote screenshot", logging.Field{Key: "path", Value: req.Screenshot})
	}
	return nil
}

func (a *Application) loadIntoPage(ctx context.Context, page *browser.Page, target string) (*goquery.Document, error) {
	local, err := a.loader.Load(ctx, target)
	if err != nil {
		return nil, err
	}
	src, err := local.Html()
	if err != nil {
		return nil, fmt.Errorf("serialize document: %w", err)
	}
	return page.LoadHTML(ctx, src)
}

// Nodes writes every text node the selector picks, one per line as
// "index<TAB>parent<TAB>quoted text". A non-empty within limits the
// search to the elements it matches.
func (a *Application) Nodes(ctx context.Context, target, within, selector string) error {
	doc, err := a.loader.Load(ctx, target)
	if err != nil {
		return err
	}
	if selector == "" {
		selector = a.Config.HighlightCfg.Selector
	}

	var nodes []*html.Node
	if within != "" {
		nodes, err = textnode.SelectSelection(doc.Find(within), selector)
	} else {
		nodes, err = highlight.SelectTextNodes(doc.Nodes[0], selector)
	}
	if err != nil {
		return err
	}
	for i, n := range nodes {
		if _, err := fmt.Fprintf(a.out, "%d\t%s\t%s\n", i, n.Parent.Data, strconv.Quote(n.Data)); err != nil {
			return err
		}
	}
	return nil
}
