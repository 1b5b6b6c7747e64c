// Package highlight computes case-insensitive occurrences of search terms
// in the text nodes of an HTML subtree and publishes them as named
// highlight sets into a HighlightRegistry.
//
// The package exposes a stateless function family (Highlight,
// HighlightSelection, ClearAll, SelectTextNodes) and a Highlighter that captures default scope, name and
// selector and forwards to it.
package highlight

import (
	"context"
	"errors"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/raysh454/textmark/internal/interfaces"
	"github.com/raysh454/textmark/internal/model"
	"github.com/raysh454/textmark/internal/textnode"
	"golang.org/x/net/html"
)

// DefaultName is the highlight name used when the caller gives none.
const DefaultName = "search-results"

// DefaultSelector matches text under any element.
const DefaultSelector = textnode.DefaultSelector

// ErrCapabilityUnsupported is returned when the registry reports that the
// host has no named highlight registry.
var ErrCapabilityUnsupported = errors.New("highlight: named highlight registry is not supported by the host")

// SelectTextNodes returns the text nodes under scope whose parent element
// matches selector, in document order.
func SelectTextNodes(scope *html.Node, selector string) ([]*html.Node, error) {
	return textnode.Select(scope, selector)
}

// Highlight finds every occurrence of terms in the text under scope and
// publishes them as one set under name, replacing any previous set of that
// name. Empty name and selector fall back to DefaultName and
// DefaultSelector.
//
// The registry capability is checked before anything else; when it fails
// nothing is traversed or published. Traversal errors are returned as the
// traversal produced them.
func Highlight(ctx context.Context, reg interfaces.HighlightRegistry, scope *html.Node, terms []string, name, selector string) (model.HighlightSet, error) {
	if err := checkSupported(ctx, reg); err != nil {
		return nil, err
	}
	nodes, err := textnode.Select(scope, selector)
	if err != nil {
		return nil, err
	}
	return publish(ctx, reg, nodes, terms, name)
}

// HighlightSelection is Highlight over every node of sel. Text reachable
// from nested scopes is searched once. An empty selection publishes an
// empty set.
func HighlightSelection(ctx context.Context, reg interfaces.HighlightRegistry, sel *goquery.Selection, terms []string, name, selector string) (model.HighlightSet, error) {
	if err := checkSupported(ctx, reg); err != nil {
		return nil, err
	}
	nodes, err := textnode.SelectSelection(sel, selector)
	if err != nil {
		return nil, err
	}
	return publish(ctx, reg, nodes, terms, name)
}

func publish(ctx context.Context, reg interfaces.HighlightRegistry, nodes []*html.Node, terms []string, name string) (model.HighlightSet, error) {
	if name == "" {
		name = DefaultName
	}
	set := ComputeOccurrences(nodes, terms)
	if err := reg.Set(ctx, name, set); err != nil {
		return nil, fmt.Errorf("publish highlight %q: %w", name, err)
	}
	return set, nil
}

// ClearAll removes every highlight set from the registry.
func ClearAll(ctx context.Context, reg interfaces.HighlightRegistry) error {
	if reg == nil {
		return ErrCapabilityUnsupported
	}
	if err := reg.Clear(ctx); err != nil {
		return fmt.Errorf("clear highlights: %w", err)
	}
	return nil
}

func checkSupported(ctx context.Context, reg interfaces.HighlightRegistry) error {
	if reg == nil || !reg.Supported(ctx) {
		return ErrCapabilityUnsupported
	}
	return nil
}
