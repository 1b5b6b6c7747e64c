package cli

import (
	"github.com/raysh454/textmark/internal/app"
	"github.com/spf13/cobra"
)

func newHighlightCmd(cfg *app.Config, deps Deps, flags *rootFlags) *cobra.Command {
	var (
		name       string
		format     string
		clear      bool
		useBrowser bool
		screenshot string
		style      string
		headful    bool
	)

	cmd := &cobra.Command{
		Use:   "highlight TERM [TERM...]",
		Short: "Mark every occurrence of the terms",
		Long: `Mark every case-insensitive occurrence of the terms and publish them under
one highlight name. Publishing replaces an earlier set of the same name.

Without --browser the result is written as HTML with <mark> elements,
as terminal text, or as per-name counts. With --browser the document is
opened in Chrome and the occurrences become CSS highlights in the page.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			f, err := app.ParseFormat(format)
			if err != nil {
				return err
			}
			runCfg := *cfg
			runCfg.Format = f
			runCfg.BrowserStyle = style
			if headful {
				runCfg.BrowserCfg.Headless = false
			}

			a := newApplication(c, &runCfg, deps, flags)
			req := app.Request{
				Target:     flags.source,
				Terms:      args,
				Name:       name,
				Selector:   flags.selector,
				Within:     flags.within,
				Clear:      clear,
				Screenshot: screenshot,
			}
			if useBrowser {
				return a.HighlightInBrowser(c.Context(), req)
			}
			return a.Highlight(c.Context(), req)
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", cfg.HighlightCfg.Name, "highlight name to publish under")
	cmd.Flags().StringVarP(&format, "format", "f", string(cfg.Format), "output format: html|text|count")
	cmd.Flags().BoolVar(&clear, "clear", false, "clear every published highlight before publishing")
	cmd.Flags().BoolVar(&useBrowser, "browser", false, "highlight inside a Chrome tab via CSS highlights")
	cmd.Flags().StringVar(&screenshot, "screenshot", "", "with --browser, write a PNG of the highlighted page")
	cmd.Flags().StringVar(&style, "style", cfg.BrowserStyle, "with --browser, CSS declarations for the highlight")
	cmd.Flags().BoolVar(&headful, "headful", false, "with --browser, show the Chrome window")
	return cmd
}
