// Package cli provides the textmark command tree.
package cli

import (
	"io"
	"os"

	"github.com/raysh454/textmark/internal/app"
	"github.com/raysh454/textmark/internal/logging"
	"github.com/raysh454/textmark/internal/registry"
	"github.com/raysh454/textmark/internal/source"
	"github.com/spf13/cobra"
)

// Deps are the process resources the commands use. Zero fields mean
// os.Stdin and the process-wide registry.
type Deps struct {
	Stdin    io.Reader
	Registry *registry.Memory
}

type rootFlags struct {
	logLevel string
	source   string
	selector string
	within   string
}

// NewRootCmd builds the command tree around cfg.
func NewRootCmd(cfg *app.Config, deps Deps) *cobra.Command {
	if cfg == nil {
		cfg = app.DefaultConfig()
	}
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "textmark",
		Short: "Find and mark strings in HTML documents",
		Long: `textmark finds case-insensitive occurrences of search terms in the text
of an HTML document and marks them, either in rendered HTML, on the
terminal, or as CSS highlights inside a Chrome tab.

Documents are read from a file, an http(s) URL, or stdin ("-").`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", cfg.LogLevel, "log level: debug|info|warn|error")
	cmd.PersistentFlags().StringVarP(&flags.source, "source", "s", source.Stdin, "document to read: file path, http(s) URL or - for stdin")
	cmd.PersistentFlags().StringVar(&flags.selector, "selector", cfg.HighlightCfg.Selector, "CSS selector the parent element of searched text must match")
	cmd.PersistentFlags().StringVar(&flags.within, "within", "", "CSS selector for the elements to search in (default: the whole document)")

	cmd.AddCommand(newHighlightCmd(cfg, deps, flags))
	cmd.AddCommand(newNodesCmd(cfg, deps, flags))
	return cmd
}

func newApplication(cmd *cobra.Command, cfg *app.Config, deps Deps, flags *rootFlags) *app.Application {
	logger := logging.NewLogger(cmd.ErrOrStderr(), "textmark", logging.ParseLevel(flags.logLevel))
	loader := source.NewLoader(cfg.SourceCfg, logger, nil)
	if deps.Stdin != nil {
		loader.WithStdin(deps.Stdin)
	} else {
		loader.WithStdin(cmd.InOrStdin())
	}
	return app.NewApplication(cfg, logger, cmd.OutOrStdout(), loader, deps.Registry)
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd(app.DefaultConfig(), Deps{}).Execute(); err != nil {
		os.Exit(1)
	}
}
