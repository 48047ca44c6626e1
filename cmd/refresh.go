package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch all enabled feeds into the local cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.refresh(cmd.Context(), true)
		if err != nil {
			return err
		}

		sources := result.Sources
		sort.Slice(sources, func(i, j int) bool { return sources[i].Source < sources[j].Source })

		out := cmd.OutOrStdout()
		for _, s := range sources {
			if s.Err != nil {
				fmt.Fprintf(out, "  [warn] %v\n", s.Err)
				continue
			}
			fmt.Fprintf(out, "  %-16s %d article(s)\n", s.Source, s.Articles)
		}
		fmt.Fprintf(out, "Fetched %d article(s) from %d source(s).\n", len(result.Articles), len(sources)-len(result.Errors))
		return nil
	},
}
