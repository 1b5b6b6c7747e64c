package highlight

import (
	"context"

	"github.com/PuerkitoBio/goquery"
	"github.com/raysh454/textmark/internal/interfaces"
	"github.com/raysh454/textmark/internal/logging"
	"github.com/raysh454/textmark/internal/model"
	"golang.org/x/net/html"
)

// Config holds the defaults a Highlighter applies when a call leaves a
// value out.
type Config struct {
	// Scope is the subtree searched when a call names no scope. It may be
	// nil, in which case every call must provide one.
	Scope *html.Node

	// Name is the highlight name sets are published under.
	// Default: DefaultName.
	Name string

	// Selector restricts which text nodes are searched by their parent
	// element. Default: DefaultSelector.
	Selector string
}

// DefaultConfig returns a Config with no scope and the package defaults.
func DefaultConfig() Config {
	return Config{
		Name:     DefaultName,
		Selector: DefaultSelector,
	}
}

// Options overrides a Highlighter's defaults for one call. Zero fields
// fall back to the Highlighter's Config.
type Options struct {
	Scope    *html.Node
	Name     string
	Selector string
}

// Highlighter is a thin holder of defaults over the stateless functions.
type Highlighter struct {
	cfg      Config
	registry interfaces.HighlightRegistry
	logger   logging.Logger
}

// New checks the registry capability once, up front, and returns a
// Highlighter bound to it. Empty Name and Selector in cfg take the
// package defaults.
func New(ctx context.Context, reg interfaces.HighlightRegistry, cfg Config, logger logging.Logger) (*Highlighter, error) {
	if err := checkSupported(ctx, reg); err != nil {
		return nil, err
	}
	if cfg.Name == "" {
		cfg.Name = DefaultName
	}
	if cfg.Selector == "" {
		cfg.Selector = DefaultSelector
	}

	componentLogger := logging.OrNop(logger).With(logging.Field{Key: "component", Value: "highlighter"})
	componentLogger.Debug("created highlighter",
		logging.Field{Key: "name", Value: cfg.Name},
		logging.Field{Key: "selector", Value: cfg.Selector})

	return &Highlighter{cfg: cfg, registry: reg, logger: componentLogger}, nil
}

// Config returns the defaults the Highlighter was built with.
func (h *Highlighter) Config() Config {
	return h.cfg
}

func (h *Highlighter) resolve(opts Options) Options {
	if opts.Scope == nil {
		opts.Scope = h.cfg.Scope
	}
	if opts.Name == "" {
		opts.Name = h.cfg.Name
	}
	if opts.Selector == "" {
		opts.Selector = h.cfg.Selector
	}
	return opts
}

// SelectTextNodes forwards to the package function with defaults applied.
func (h *Highlighter) SelectTextNodes(opts Options) ([]*html.Node, error) {
	opts = h.resolve(opts)
	return SelectTextNodes(opts.Scope, opts.Selector)
}

// Highlight forwards to the package function with defaults applied.
func (h *Highlighter) Highlight(ctx context.Context, terms []string, opts Options) (model.HighlightSet, error) {
	opts = h.resolve(opts)
	set, err := Highlight(ctx, h.registry, opts.Scope, terms, opts.Name, opts.Selector)
	return h.report(opts, terms, set, err)
}

// HighlightSelection forwards to the package function with defaults
// applied. opts.Scope is ignored; sel gives the scopes.
func (h *Highlighter) HighlightSelection(ctx context.Context, sel *goquery.Selection, terms []string, opts Options) (model.HighlightSet, error) {
	opts = h.resolve(opts)
	set, err := HighlightSelection(ctx, h.registry, sel, terms, opts.Name, opts.Selector)
	return h.report(opts, terms, set, err)
}

func (h *Highlighter) report(opts Options, terms []string, set model.HighlightSet, err error) (model.HighlightSet, error) {
	if err != nil {
		h.logger.Warn("highlight failed",
			logging.Field{Key: "name", Value: opts.Name},
			logging.Field{Key: "error", Value: err.Error()})
		return nil, err
	}
	h.logger.Debug("published highlight",
		logging.Field{Key: "name", Value: opts.Name},
		logging.Field{Key: "terms", Value: len(terms)},
		logging.Field{Key: "occurrences", Value: len(set)})
	return set, nil
}

// ClearAll empties the whole registry, not just this Highlighter's name.
func (h *Highlighter) ClearAll(ctx context.Context) error {
	if err := ClearAll(ctx, h.registry); err != nil {
		return err
	}
	h.logger.Debug("cleared highlights")
	return nil
}
