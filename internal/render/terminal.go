package render

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/raysh454/textmark/internal/model"
	"github.com/raysh454/textmark/internal/textnode"
	"golang.org/x/net/html"
)

// DefaultMatchStyle is how Terminal paints matches.
var DefaultMatchStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("0")).
	Background(lipgloss.Color("11"))

// Terminal writes one line per highlighted text node under root, in
// document order, with the matched ranges painted by style. Overlapping
// ranges are merged before painting.
func Terminal(w io.Writer, root *html.Node, set model.HighlightSet, style lipgloss.Style) error {
	byNode := set.ByNode()

	var err error
	textnode.Walk(root, nil, func(n *html.Node) {
		occs, ok := byNode[n]
		if !ok || err != nil {
			return
		}
		_, err = fmt.Fprintln(w, paintLine(n.Data, occs, style))
	})
	return err
}

func paintLine(text string, occs []model.Occurrence, style lipgloss.Style) string {
	ranges := make([][2]int, 0, len(occs))
	for _, o := range occs {
		if o.Start < 0 || o.End > len(text) || o.Start >= o.End {
			continue
		}
		ranges = append(ranges, [2]int{o.Start, o.End})
	}
	sort.Slice(ranges, func(i, j int) bool { return ranges[i][0] < ranges[j][0] })

	var b strings.Builder
	cursor := 0
	for _, r := range ranges {
		if r[1] <= cursor {
			continue
		}
		if r[0] < cursor {
			r[0] = cursor
		}
		b.WriteString(flatten(text[cursor:r[0]]))
		b.WriteString(style.Render(flatten(text[r[0]:r[1]])))
		cursor = r[1]
	}
	b.WriteString(flatten(text[cursor:]))
	return b.String()
}

// flatten keeps one text node on one output line.
func flatten(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == '\t' {
			return ' '
		}
		return r
	}, s)
}

// Counts writes "name<TAB>count" for every set, sorted by name.
func Counts(w io.Writer, sets map[string]model.HighlightSet) error {
	names := make([]string, 0, len(sets))
	for name := range sets {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := fmt.Fprintf(w, "%s\t%d\n", name, len(sets[name])); err != nil {
			return err
		}
	}
	return nil
}
