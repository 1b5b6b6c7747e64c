package highlight

import (
	"strings"
	"unicode/utf8"

	"github.com/raysh454/textmark/internal/model"
	"golang.org/x/net/html"
	"golang.org/x/text/cases"
)

// NormalizeTerm trims surrounding whitespace and case-folds term the same
// way node text is folded. The empty string means the term matches nothing.
func NormalizeTerm(term string) string {
	term = strings.TrimSpace(term)
	if term == "" {
		return ""
	}
	return foldText(term).folded
}

// foldedText is a node's text after case folding, with a map from every
// folded byte offset back to the original text. origAt[i] is -1 when i
// falls inside the fold of a single rune.
type foldedText struct {
	folded string
	origAt []int
}

// foldText folds text one rune at a time. Bytes that are not valid UTF-8
// are copied through unchanged so they still match themselves.
func foldText(text string) foldedText {
	caser := cases.Fold()
	var b strings.Builder
	b.Grow(len(text))
	origAt := make([]int, 0, len(text)+1)

	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		f := text[i : i+size]
		if r != utf8.RuneError || size > 1 {
			f = caser.String(f)
		}
		origAt = append(origAt, i)
		for j := 1; j < len(f); j++ {
			origAt = append(origAt, -1)
		}
		b.WriteString(f)
		i += size
	}
	origAt = append(origAt, len(text))

	return foldedText{folded: b.String(), origAt: origAt}
}

// FindOccurrences returns every greedy, non-overlapping, case-insensitive
// match of term in node's text, in ascending order. term is normalized
// first; a blank term yields nothing.
func FindOccurrences(node *html.Node, term string) []model.Occurrence {
	term = NormalizeTerm(term)
	if node == nil || term == "" || len(node.Data) == 0 {
		return nil
	}
	return scan(node, foldText(node.Data), term)
}

// scan expects an already normalized, non-empty term.
func scan(node *html.Node, ft foldedText, term string) []model.Occurrence {
	var out []model.Occurrence
	cursor := 0
	for cursor+len(term) <= len(ft.folded) {
		i := strings.Index(ft.folded[cursor:], term)
		if i < 0 {
			break
		}
		i += cursor

		start, end := ft.origAt[i], ft.origAt[i+len(term)]
		if start < 0 || end < 0 {
			// Match splits a multi-byte fold expansion (e.g. "s" against "ß").
			cursor = i + 1
			continue
		}
		out = append(out, model.Occurrence{Node: node, Start: start, End: end})
		cursor = i + len(term)
	}
	return out
}

// ComputeOccurrences runs FindOccurrences for every term over every node
// and flattens the result: outer loop over terms, inner loop over nodes.
// Duplicate terms are scanned again and produce duplicate occurrences.
func ComputeOccurrences(nodes []*html.Node, terms []string) model.HighlightSet {
	var set model.HighlightSet
	folded := make(map[*html.Node]foldedText, len(nodes))

	for _, raw := range terms {
		term := NormalizeTerm(raw)
		if term == "" {
			continue
		}
		for _, n := range nodes {
			if n == nil || n.Data == "" {
				continue
			}
			ft, ok := folded[n]
			if !ok {
				ft = foldText(n.Data)
				folded[n] = ft
			}
			set = append(set, scan(n, ft, term)...)
		}
	}
	return set
}
