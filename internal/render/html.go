// Package render turns published highlight sets into output: HTML with
// <mark> elements, styled terminal lines, or per-name counts.
package render

import (
	"io"
	"sort"
	"strings"

	"github.com/raysh454/textmark/internal/model"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// rawText elements hold text the HTML renderer writes verbatim, so no
// markup may be spliced into them.
var rawText = map[string]bool{
	"script": true, "style": true, "textarea": true, "title": true,
	"xmp": true, "iframe": true, "noembed": true, "noframes": true,
	"noscript": true, "plaintext": true,
}

type span struct {
	start, end int
	name       string
}

// HTML renders root with every highlighted span wrapped in
// <mark class="NAME ...">. Spans that overlap across names are split into
// segments whose class lists every covering name. root is not modified;
// occurrences pointing outside root are ignored.
func HTML(w io.Writer, root *html.Node, sets map[string]model.HighlightSet) error {
	byNode := collectSpans(sets)

	clones := make(map[*html.Node]*html.Node)
	out := cloneTree(root, clones)

	for orig, spans := range byNode {
		clone, ok := clones[orig]
		if !ok || clone.Parent == nil {
			continue
		}
		if clone.Parent.Type == html.ElementNode && rawText[clone.Parent.Data] {
			continue
		}
		splice(clone, segment(orig.Data, spans))
	}

	return html.Render(w, out)
}

func collectSpans(sets map[string]model.HighlightSet) map[*html.Node][]span {
	byNode := make(map[*html.Node][]span)
	for name, set := range sets {
		for _, o := range set {
			if o.Node == nil || o.Start < 0 || o.End > len(o.Node.Data) || o.Start >= o.End {
				continue
			}
			byNode[o.Node] = append(byNode[o.Node], span{start: o.Start, end: o.End, name: name})
		}
	}
	return byNode
}

func cloneTree(n *html.Node, texts map[*html.Node]*html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      append([]html.Attribute(nil), n.Attr...),
	}
	if n.Type == html.TextNode {
		texts[n] = c
	}
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		c.AppendChild(cloneTree(ch, texts))
	}
	return c
}

type piece struct {
	text  string
	names []string
}

// segment cuts text at every span edge and tags each piece with the names
// covering it.
func segment(text string, spans []span) []piece {
	cuts := []int{0, len(text)}
	for _, s := range spans {
		cuts = append(cuts, s.start, s.end)
	}
	sort.Ints(cuts)

	var pieces []piece
	for i := 1; i < len(cuts); i++ {
		a, b := cuts[i-1], cuts[i]
		if a == b {
			continue
		}
		seen := make(map[string]bool)
		var names []string
		for _, s := range spans {
			if s.start <= a && s.end >= b && !seen[s.name] {
				seen[s.name] = true
				names = append(names, s.name)
			}
		}
		sort.Strings(names)
		pieces = append(pieces, piece{text: text[a:b], names: names})
	}
	return pieces
}

func splice(textNode *html.Node, pieces []piece) {
	parent := textNode.Parent
	for _, p := range pieces {
		t := &html.Node{Type: html.TextNode, Data: p.text}
		if len(p.names) == 0 {
			parent.InsertBefore(t, textNode)
			continue
		}
		mark := &html.Node{
			Type:     html.ElementNode,
			DataAtom: atom.Mark,
			Data:     "mark",
			Attr:     []html.Attribute{{Key: "class", Val: strings.Join(p.names, " ")}},
		}
		mark.AppendChild(t)
		parent.InsertBefore(mark, textNode)
	}
	parent.RemoveChild(textNode)
}
