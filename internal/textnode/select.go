// Package textnode finds the text nodes of an HTML subtree whose parent
// element matches a CSS selector.
package textnode

import (
	"errors"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// DefaultSelector matches any element.
const DefaultSelector = "*"

// ErrInvalidScope is returned when the scope is not a traversable node.
var ErrInvalidScope = errors.New("textnode: scope is not a traversable node")

// Select returns, in document order, every text node below scope whose
// immediate parent is an element matching selector. An empty selector
// means DefaultSelector. A selector that does not compile returns the
// cascadia error as is.
func Select(scope *html.Node, selector string) ([]*html.Node, error) {
	if scope == nil || scope.Type == html.ErrorNode {
		return nil, ErrInvalidScope
	}
	match, err := compile(selector)
	if err != nil {
		return nil, err
	}

	var nodes []*html.Node
	Walk(scope, parentFilter(match), func(n *html.Node) {
		nodes = append(nodes, n)
	})
	return nodes, nil
}

// SelectSelection runs Select over every node of sel and concatenates the
// results. Text nodes reachable from more than one scope (nested matches
// such as "div" inside "div") are returned once.
func SelectSelection(sel *goquery.Selection, selector string) ([]*html.Node, error) {
	if sel == nil {
		return nil, ErrInvalidScope
	}
	match, err := compile(selector)
	if err != nil {
		return nil, err
	}

	seen := make(map[*html.Node]struct{})
	var nodes []*html.Node
	for _, scope := range sel.Nodes {
		if scope == nil || scope.Type == html.ErrorNode {
			return nil, ErrInvalidScope
		}
		Walk(scope, parentFilter(match), func(n *html.Node) {
			if _, dup := seen[n]; dup {
				return
			}
			seen[n] = struct{}{}
			nodes = append(nodes, n)
		})
	}
	return nodes, nil
}

func compile(selector string) (cascadia.Selector, error) {
	if selector == "" {
		selector = DefaultSelector
	}
	return cascadia.Compile(selector)
}

// parentFilter accepts text nodes whose parent element matches. Non-text
// nodes are skipped, not rejected, so the walk still reaches their text.
func parentFilter(match cascadia.Selector) Filter {
	return func(n *html.Node) FilterResult {
		if n.Type != html.TextNode {
			return Skip
		}
		p := n.Parent
		if p == nil || p.Type != html.ElementNode || !match.Match(p) {
			return Reject
		}
		return Accept
	}
}
