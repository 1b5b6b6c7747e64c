package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/raysh454/textmark/internal/logging"
	"github.com/raysh454/textmark/internal/model"
	"golang.org/x/net/html"
)

var errNotInDocument = errors.New("node is not part of the loaded document")

const supportProbe = `typeof CSS !== "undefined" && !!CSS.highlights && typeof Highlight === "function"`

const setTemplate = `(function (name, items) {
	const h = new Highlight();
	for (const it of items) {
		let n = document.documentElement;
		for (const i of it.path) {
			if (!n) break;
			n = n.childNodes[i];
		}
		if (!n || n.nodeType !== Node.TEXT_NODE || it.end > n.length) continue;
		const r = document.createRange();
		r.setStart(n, it.start);
		r.setEnd(n, it.end);
		h.add(r);
	}
	CSS.highlights.set(name, h);
	return h.size;
})(%s, %s)`

const clearScript = `CSS.highlights.clear()`

// rangeSpec locates one occurrence in the live DOM: child indices from
// <html> down to the text node, and UTF-16 offsets as DOM ranges use them.
type rangeSpec struct {
	Path  []int `json:"path"`
	Start int   `json:"start"`
	End   int   `json:"end"`
}

// Registry publishes highlight sets into the page's CSS.highlights.
type Registry struct {
	page   *Page
	logger logging.Logger
}

// Registry returns the page's highlight registry. Sets must reference
// nodes of the document returned by the page's last Load or LoadHTML.
func (p *Page) Registry() *Registry {
	return &Registry{page: p, logger: p.logger.With(logging.Field{Key: "registry", Value: "css"})}
}

func silent(p *runtime.EvaluateParams) *runtime.EvaluateParams {
	return p.WithSilent(true)
}

// Supported probes the page for the CSS Custom Highlight API.
func (r *Registry) Supported(ctx context.Context) bool {
	var ok bool
	if err := r.page.run(ctx, chromedp.Evaluate(supportProbe, &ok, silent)); err != nil {
		r.logger.Warn("capability probe failed", logging.Field{Key: "error", Value: err.Error()})
		return false
	}
	return ok
}

func (r *Registry) Set(ctx context.Context, name string, set model.HighlightSet) error {
	root := r.page.documentRoot()
	if root == nil {
		return ErrNoDocument
	}

	specs, skipped := buildSpecs(root, set)
	if skipped > 0 {
		r.logger.Warn("occurrences outside the loaded document were skipped",
			logging.Field{Key: "name", Value: name},
			logging.Field{Key: "skipped", Value: skipped})
	}

	script, err := setScript(name, specs)
	if err != nil {
		return err
	}

	var applied int
	if err := r.page.run(ctx, chromedp.Evaluate(script, &applied)); err != nil {
		return fmt.Errorf("set CSS highlight %q: %w", name, err)
	}
	if applied != len(specs) {
		r.logger.Warn("page DOM diverged from the parsed document",
			logging.Field{Key: "name", Value: name},
			logging.Field{Key: "requested", Value: len(specs)},
			logging.Field{Key: "applied", Value: applied})
	}
	r.logger.Debug("published CSS highlight",
		logging.Field{Key: "name", Value: name},
		logging.Field{Key: "ranges", Value: applied})
	return nil
}

func (r *Registry) Clear(ctx context.Context) error {
	if err := r.page.run(ctx, chromedp.Evaluate(clearScript, nil)); err != nil {
		return fmt.Errorf("clear CSS highlights: %w", err)
	}
	return nil
}

func buildSpecs(root *html.Node, set model.HighlightSet) ([]rangeSpec, int) {
	specs := make([]rangeSpec, 0, len(set))
	skipped := 0
	for _, o := range set {
		path, err := pathFrom(root, o.Node)
		if err != nil || o.Start < 0 || o.End > len(o.Node.Data) || o.Start > o.End {
			skipped++
			continue
		}
		specs = append(specs, rangeSpec{
			Path:  path,
			Start: utf16Offset(o.Node.Data, o.Start),
			End:   utf16Offset(o.Node.Data, o.End),
		})
	}
	return specs, skipped
}

// pathFrom returns the child indices leading from root to n.
func pathFrom(root, n *html.Node) ([]int, error) {
	if n == nil {
		return nil, errNotInDocument
	}
	var rev []int
	for cur := n; cur != root; cur = cur.Parent {
		if cur == nil || cur.Parent == nil {
			return nil, errNotInDocument
		}
		i := 0
		for sib := cur.PrevSibling; sib != nil; sib = sib.PrevSibling {
			i++
		}
		rev = append(rev, i)
	}

	path := make([]int, len(rev))
	for i, v := range rev {
		path[len(rev)-1-i] = v
	}
	return path, nil
}

// utf16Offset converts a byte offset into s to a UTF-16 code unit offset.
func utf16Offset(s string, byteOff int) int {
	n := 0
	for _, r := range s[:byteOff] {
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return n
}

func setScript(name string, specs []rangeSpec) (string, error) {
	nameJSON, err := json.Marshal(name)
	if err != nil {
		return "", err
	}
	if specs == nil {
		specs = []rangeSpec{}
	}
	specsJSON, err := json.Marshal(specs)
	if err != nil {
		return "", fmt.Errorf("encode ranges: %w", err)
	}
	return fmt.Sprintf(setTemplate, nameJSON, specsJSON), nil
}

func countScript(name string) string {
	nameJSON, _ := json.Marshal(name)
	return fmt.Sprintf(`(CSS.highlights.get(%s) || {size: 0}).size`, nameJSON)
}

func styleScript(name, declarations string) string {
	rule, _ := json.Marshal(fmt.Sprintf("::highlight(%s) { %s }", cssIdent(name), declarations))
	return fmt.Sprintf(`(function () {
	const s = document.createElement("style");
	s.textContent = %s;
	document.head.appendChild(s);
})()`, rule)
}

// cssIdent keeps the characters a highlight name may use unescaped in a
// ::highlight() selector and escapes the rest.
func cssIdent(name string) string {
	var out []rune
	for i, r := range name {
		switch {
		case r == '-' || r == '_' || r >= 0x80,
			r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			out = append(out, r)
		case r >= '0' && r <= '9' && i > 0:
			out = append(out, r)
		default:
			out = append(out, []rune(fmt.Sprintf("\\%x ", r))...)
		}
	}
	return string(out)
}
