package app

import (
	"fmt"
	"strings"

	"github.com/raysh454/textmark/internal/browser"
	"github.com/raysh454/textmark/internal/highlight"
	"github.com/raysh454/textmark/internal/source"
)

// Format selects how highlight results are written.
type Format string

const (
	FormatHTML  Format = "html"
	FormatText  Format = "text"
	FormatCount Format = "count"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatHTML, FormatText, FormatCount:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q: want html, text or count", s)
	}
}

// Config contains the runtime options of the CLI. Flags override these.
type Config struct {
	// Highlight defaults: name and selector. Scope is filled per document.
	HighlightCfg highlight.Config

	// Document loading
	SourceCfg source.Config

	// Chrome tab used by --browser
	BrowserCfg browser.Config

	// BrowserStyle is the CSS declaration block applied to the published
	// name in the browser, so highlights are visible in screenshots.
	BrowserStyle string

	// Output format of the highlight command
	Format Format

	// LogLevel is one of debug, info, warn, error.
	LogLevel string
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		HighlightCfg: highlight.DefaultConfig(),
		SourceCfg:    source.DefaultConfig(),
		BrowserCfg:   browser.DefaultConfig(),
		BrowserStyle: "background-color: #ffe066; color: #000;",
		Format:       FormatHTML,
		LogLevel:     "warn",
	}
}
