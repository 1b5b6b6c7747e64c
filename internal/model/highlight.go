package model

import "golang.org/x/net/html"

// Occurrence is one case-insensitive match of a search term inside a single
// text node. Start and End are byte offsets into Node.Data.
type Occurrence struct {
	Node  *html.Node
	Start int
	End   int
}

// Text returns the matched slice of the node's current text.
func (o Occurrence) Text() string {
	if o.Node == nil || o.Start < 0 || o.End > len(o.Node.Data) || o.Start > o.End {
		return ""
	}
	return o.Node.Data[o.Start:o.End]
}

// Len is the length of the match in bytes.
func (o Occurrence) Len() int {
	return o.End - o.Start
}

// HighlightSet is the collection of occurrences published under one
// highlight name. Order carries no meaning.
type HighlightSet []Occurrence

// Clone returns a copy of the set that shares node pointers but not the
// backing array.
func (s HighlightSet) Clone() HighlightSet {
	if s == nil {
		return nil
	}
	out := make(HighlightSet, len(s))
	copy(out, s)
	return out
}

// ByNode groups the set by text node, keeping the relative order of
// occurrences within each node.
func (s HighlightSet) ByNode() map[*html.Node][]Occurrence {
	out := make(map[*html.Node][]Occurrence)
	for _, o := range s {
		out[o.Node] = append(out[o.Node], o)
	}
	return out
}
