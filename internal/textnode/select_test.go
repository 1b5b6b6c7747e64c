package textnode_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/raysh454/textmark/internal/textnode"
	"golang.org/x/net/html"
)

func parse(t *testing.T, src string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func texts(nodes []*html.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Data)
	}
	return out
}

func TestSelect(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		html     string
		selector string
		want     []string
	}{
		{
			name: "default selector keeps document order",
			html: `<p>one</p><div>two<span>three</span>four</div>`,
			want: []string{"one", "two", "three", "four"},
		},
		{
			name:     "restricts to matching parents",
			html:     `<p>one</p><div><p>two</p><span>three</span></div>`,
			selector: "p",
			want:     []string{"one", "two"},
		},
		{
			name:     "only the immediate parent counts",
			html:     `<div><span>inner</span>outer</div>`,
			selector: "div",
			want:     []string{"outer"},
		},
		{
			name:     "rejected text does not stop the walk",
			html:     `<section>skip<p>keep</p>skip<p>also</p></section>`,
			selector: "p",
			want:     []string{"keep", "also"},
		},
		{
			name: "comments are not text",
			html: `<p>a<!-- c -->b</p>`,
			want: []string{"a", "b"},
		},
		{
			name:     "class selector",
			html:     `<p class="hit">x</p><p>y</p><p class="other hit">z</p>`,
			selector: "p.hit",
			want:     []string{"x", "z"},
		},
		{
			name:     "no match",
			html:     `<p>x</p>`,
			selector: "article",
			want:     nil,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			doc := parse(t, tt.html)
			nodes, err := textnode.Select(doc.Nodes[0], tt.selector)
			if err != nil {
				t.Fatalf("Select: %v", err)
			}
			got := texts(nodes)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %q, want %q", got, tt.want)
			}
			for _, n := range nodes {
				if n.Type != html.TextNode {
					t.Errorf("non-text node returned: %v", n.Type)
				}
			}
		})
	}
}

func TestSelect_ElementScope(t *testing.T) {
	t.Parallel()
	doc := parse(t, `<p>outside</p><div id="scope"><p>inside</p>tail</div><p>after</p>`)
	scope := doc.Find("#scope").Nodes[0]

	nodes, err := textnode.Select(scope, "")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if got, want := texts(nodes), []string{"inside", "tail"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSelect_ReturnsLiveNodes(t *testing.T) {
	t.Parallel()
	doc := parse(t, `<p id="x">hello</p>`)
	nodes, err := textnode.Select(doc.Nodes[0], "p")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(nodes) != 1 {
		t.Fatalf("expected 1 node, got %d", len(nodes))
	}
	if nodes[0] != doc.Find("#x").Nodes[0].FirstChild {
		t.Error("expected the document's own text node, not a copy")
	}
}

func TestSelect_TextScopeHasNoDescendants(t *testing.T) {
	t.Parallel()
	doc := parse(t, `<p>alone</p>`)
	text := doc.Find("p").Nodes[0].FirstChild

	nodes, err := textnode.Select(text, "")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(nodes) != 0 {
		t.Errorf("expected no nodes, got %q", texts(nodes))
	}
}

func TestSelect_InvalidScope(t *testing.T) {
	t.Parallel()
	if _, err := textnode.Select(nil, ""); !errors.Is(err, textnode.ErrInvalidScope) {
		t.Errorf("expected ErrInvalidScope, got %v", err)
	}
	if _, err := textnode.Select(&html.Node{Type: html.ErrorNode}, ""); !errors.Is(err, textnode.ErrInvalidScope) {
		t.Errorf("expected ErrInvalidScope for error node, got %v", err)
	}
}

func TestSelect_InvalidSelector(t *testing.T) {
	t.Parallel()
	doc := parse(t, `<p>x</p>`)
	_, err := textnode.Select(doc.Nodes[0], "p[")
	if err == nil {
		t.Fatal("expected selector error")
	}
	if errors.Is(err, textnode.ErrInvalidScope) {
		t.Errorf("selector error should not be reported as a scope error: %v", err)
	}
}

func TestSelectSelection_DeduplicatesNestedScopes(t *testing.T) {
	t.Parallel()
	doc := parse(t, `<div id="a">x<div id="b">y</div></div><div id="c">z</div>`)

	nodes, err := textnode.SelectSelection(doc.Find("div"), "")
	if err != nil {
		t.Fatalf("SelectSelection: %v", err)
	}
	if got, want := texts(nodes), []string{"x", "y", "z"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSelectSelection_NilSelection(t *testing.T) {
	t.Parallel()
	if _, err := textnode.SelectSelection(nil, ""); !errors.Is(err, textnode.ErrInvalidScope) {
		t.Errorf("expected ErrInvalidScope, got %v", err)
	}
}
