package cli

import (
	"github.com/raysh454/textmark/internal/app"
	"github.com/spf13/cobra"
)

func newNodesCmd(cfg *app.Config, deps Deps, flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "nodes",
		Short: "List the text nodes the selector picks, in document order",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			a := newApplication(c, cfg, deps, flags)
			return a.Nodes(c.Context(), flags.source, flags.within, flags.selector)
		},
	}
}
