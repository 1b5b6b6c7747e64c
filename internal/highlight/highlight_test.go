package highlight_test

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/raysh454/textmark/internal/highlight"
	"github.com/raysh454/textmark/internal/registry"
	"github.com/raysh454/textmark/internal/testutil"
	"github.com/raysh454/textmark/internal/textnode"
	"golang.org/x/net/html"
)

const page = `<html><body>
<p id="first">the cat sat on the mat</p>
<div>the mat is flat</div>
<p>At last</p>
</body></html>`

func parseDoc(t *testing.T, src string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func TestHighlight_PublishesUnderName(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	doc := parseDoc(t, page)
	reg := &testutil.RecordingRegistry{}

	set, err := highlight.Highlight(ctx, reg, doc.Nodes[0], []string{"at"}, "cats", "p")
	if err != nil {
		t.Fatalf("Highlight: %v", err)
	}

	first := doc.Find("#first").Nodes[0].FirstChild
	var firstSpans [][2]int
	for _, o := range set {
		if o.Node == first {
			firstSpans = append(firstSpans, [2]int{o.Start, o.End})
		}
		if o.Node.Parent.Data != "p" {
			t.Errorf("occurrence outside a paragraph: %q", o.Node.Data)
		}
	}
	if want := [][2]int{{5, 7}, {9, 11}, {20, 22}}; !equalSpans(firstSpans, want) {
		t.Errorf("got %v, want %v", firstSpans, want)
	}
	// Plus the leading "At" of "At last".
	if len(set) != 4 {
		t.Errorf("expected 4 occurrences, got %d", len(set))
	}

	if ops := reg.Ops(); !reflect.DeepEqual(ops, []string{"supported", "set"}) {
		t.Errorf("unexpected registry calls %v", ops)
	}
	published, ok := reg.Published("cats")
	if !ok || len(published) != len(set) {
		t.Errorf("expected published set of %d, got %d (ok=%v)", len(set), len(published), ok)
	}
}

func TestHighlight_DefaultsNameAndSelector(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	doc := parseDoc(t, page)
	reg := &testutil.RecordingRegistry{}

	set, err := highlight.Highlight(ctx, reg, doc.Nodes[0], []string{"mat"}, "", "")
	if err != nil {
		t.Fatalf("Highlight: %v", err)
	}
	if len(set) != 2 {
		t.Errorf("expected mat in the paragraph and the div, got %d", len(set))
	}
	if _, ok := reg.Published(highlight.DefaultName); !ok {
		t.Errorf("expected a set under %q", highlight.DefaultName)
	}
}

func TestHighlight_BlankTermsPublishEmptySet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	doc := parseDoc(t, page)
	reg := &testutil.RecordingRegistry{}

	set, err := highlight.Highlight(ctx, reg, doc.Nodes[0], []string{"", "   "}, "blank", "")
	if err != nil {
		t.Fatalf("Highlight: %v", err)
	}
	if len(set) != 0 {
		t.Errorf("expected no occurrences, got %d", len(set))
	}
	if _, ok := reg.Published("blank"); !ok {
		t.Error("expected the empty set to be published")
	}
}

func TestHighlight_UnsupportedFailsBeforeTraversal(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	reg := &testutil.RecordingRegistry{Unsupported: true}

	// A nil scope would fail traversal; the capability error must win.
	_, err := highlight.Highlight(ctx, reg, nil, []string{"x"}, "", "")
	if !errors.Is(err, highlight.ErrCapabilityUnsupported) {
		t.Fatalf("expected ErrCapabilityUnsupported, got %v", err)
	}
	if ops := reg.Ops(); !reflect.DeepEqual(ops, []string{"supported"}) {
		t.Errorf("nothing but the capability check may run, got %v", ops)
	}
}

func TestHighlight_NilRegistry(t *testing.T) {
	t.Parallel()
	_, err := highlight.Highlight(context.Background(), nil, &html.Node{Type: html.DocumentNode}, []string{"x"}, "", "")
	if !errors.Is(err, highlight.ErrCapabilityUnsupported) {
		t.Fatalf("expected ErrCapabilityUnsupported, got %v", err)
	}
}

func TestHighlight_TraversalErrorsPassThrough(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	reg := &testutil.RecordingRegistry{}

	_, err := highlight.Highlight(ctx, reg, nil, []string{"x"}, "", "")
	if err != textnode.ErrInvalidScope {
		t.Errorf("expected the traversal error unwrapped, got %v", err)
	}

	doc := parseDoc(t, page)
	if _, err := highlight.Highlight(ctx, reg, doc.Nodes[0], []string{"x"}, "", "p["); err == nil {
		t.Error("expected selector error")
	}
	for _, op := range reg.Ops() {
		if op == "set" {
			t.Error("nothing may be published after a traversal error")
		}
	}
}

func TestHighlight_PublishErrorIsWrapped(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	reg := &testutil.RecordingRegistry{SetErr: boom}
	doc := parseDoc(t, page)

	_, err := highlight.Highlight(context.Background(), reg, doc.Nodes[0], []string{"cat"}, "n", "")
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped publish error, got %v", err)
	}
}

func TestHighlight_ReplacesWithoutTouchingOtherNames(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	doc := parseDoc(t, page)
	reg := registry.NewMemory()
	scope := doc.Nodes[0]

	if _, err := highlight.Highlight(ctx, reg, scope, []string{"cat"}, "one", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := highlight.Highlight(ctx, reg, scope, []string{"mat"}, "two", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := highlight.Highlight(ctx, reg, scope, []string{"flat", "last"}, "one", ""); err != nil {
		t.Fatal(err)
	}

	one, _ := reg.Get("one")
	two, _ := reg.Get("two")
	if len(one) != 2 {
		t.Errorf("expected one to hold only flat and last, got %d", len(one))
	}
	for _, o := range one {
		if strings.EqualFold(o.Text(), "cat") {
			t.Error("old occurrences were merged into the replaced set")
		}
	}
	if len(two) != 2 {
		t.Errorf("expected two untouched with 2 occurrences, got %d", len(two))
	}
}

func TestHighlightSelection_SearchesOnlyWithinSelection(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	doc := parseDoc(t, page)
	reg := &testutil.RecordingRegistry{}

	set, err := highlight.HighlightSelection(ctx, reg, doc.Find("p"), []string{"at"}, "", "")
	if err != nil {
		t.Fatalf("HighlightSelection: %v", err)
	}
	// Three in the first paragraph and "At" of "At last"; the div is outside.
	if len(set) != 4 {
		t.Errorf("expected 4 occurrences, got %d", len(set))
	}
	for _, o := range set {
		if o.Node.Parent.Data != "p" {
			t.Errorf("occurrence outside the selection: %q", o.Node.Data)
		}
	}
	if _, ok := reg.Published(highlight.DefaultName); !ok {
		t.Errorf("expected a set under %q", highlight.DefaultName)
	}
}

func TestHighlightSelection_NestedScopesSearchedOnce(t *testing.T) {
	t.Parallel()
	doc := parseDoc(t, `<html><body><div>the mat<div>a mat</div></div></body></html>`)
	reg := registry.NewMemory()

	set, err := highlight.HighlightSelection(context.Background(), reg, doc.Find("div"), []string{"mat"}, "mats", "")
	if err != nil {
		t.Fatalf("HighlightSelection: %v", err)
	}
	if len(set) != 2 {
		t.Errorf("expected 2 occurrences, got %d", len(set))
	}
}

func TestHighlightSelection_EmptySelectionPublishesEmptySet(t *testing.T) {
	t.Parallel()
	doc := parseDoc(t, page)
	reg := &testutil.RecordingRegistry{}

	set, err := highlight.HighlightSelection(context.Background(), reg, doc.Find("section"), []string{"at"}, "none", "")
	if err != nil {
		t.Fatalf("HighlightSelection: %v", err)
	}
	if len(set) != 0 {
		t.Errorf("expected no occurrences, got %d", len(set))
	}
	if _, ok := reg.Published("none"); !ok {
		t.Error("expected the empty set to be published")
	}
}

func TestHighlightSelection_UnsupportedFailsBeforeTraversal(t *testing.T) {
	t.Parallel()
	reg := &testutil.RecordingRegistry{Unsupported: true}

	_, err := highlight.HighlightSelection(context.Background(), reg, nil, []string{"x"}, "", "")
	if !errors.Is(err, highlight.ErrCapabilityUnsupported) {
		t.Fatalf("expected ErrCapabilityUnsupported, got %v", err)
	}
	if ops := reg.Ops(); !reflect.DeepEqual(ops, []string{"supported"}) {
		t.Errorf("nothing but the capability check may run, got %v", ops)
	}
}

func TestClearAll(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	doc := parseDoc(t, page)
	reg := registry.NewMemory()

	_, _ = highlight.Highlight(ctx, reg, doc.Nodes[0], []string{"cat"}, "one", "")
	_, _ = highlight.Highlight(ctx, reg, doc.Nodes[0], []string{"mat"}, "two", "")

	if err := highlight.ClearAll(ctx, reg); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	if reg.Len() != 0 {
		t.Fatalf("expected empty registry, got %v", reg.Names())
	}
	if err := highlight.ClearAll(ctx, reg); err != nil {
		t.Fatalf("second ClearAll: %v", err)
	}
}

func TestClearAll_Errors(t *testing.T) {
	t.Parallel()
	if err := highlight.ClearAll(context.Background(), nil); !errors.Is(err, highlight.ErrCapabilityUnsupported) {
		t.Errorf("expected ErrCapabilityUnsupported, got %v", err)
	}
	boom := errors.New("boom")
	if err := highlight.ClearAll(context.Background(), &testutil.RecordingRegistry{ClearErr: boom}); !errors.Is(err, boom) {
		t.Errorf("expected wrapped clear error, got %v", err)
	}
}
