package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matheuskafuri/newsdesk/internal/browser"
)

var (
	flagOut  string
	flagOpen bool
)

var panelCmd = &cobra.Command{
	Use:   "panel",
	Short: "Render the top stories panel as an HTML fragment",
	Long: `Render the top stories panel as an HTML fragment.

Writes to stdout unless --out is given. With --open the fragment is written
to --out (or a temporary file) and opened in the default browser.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		if _, err := a.refresh(ctx, flagRefresh); err != nil {
			return err
		}
		filter, err := filterFlags(a)
		if err != nil {
			return err
		}
		clusters, err := a.clusters(filter)
		if err != nil {
			return err
		}

		maxStories := a.panel.MaxStories()
		if flagMax > 0 {
			maxStories = flagMax
		}
		res, err := a.panel.RenderTop(ctx, clusters, maxStories)
		if err != nil {
			return err
		}

		out := flagOut
		if out == "" && flagOpen {
			out = filepath.Join(os.TempDir(), "newsdesk-panel.html")
		}
		if out == "" {
			_, err := fmt.Fprint(cmd.OutOrStdout(), res.HTML)
			return err
		}

		if err := os.WriteFile(out, []byte(res.HTML), 0o644); err != nil {
			return fmt.Errorf("writing panel: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d stories to %s\n", len(res.Stories), out)

		if flagOpen {
			if err := browser.OpenFile(out); err != nil {
				return fmt.Errorf("opening panel: %w", err)
			}
		}
		return nil
	},
}

func init() {
	panelCmd.Flags().StringVar(&flagOut, "out", "", "write the fragment to this file")
	panelCmd.Flags().BoolVar(&flagOpen, "open", false, "open the rendered panel in the browser")
	addFilterFlags(panelCmd)
}
