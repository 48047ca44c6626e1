package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matheuskafuri/newsdesk/internal/browser"
	"github.com/matheuskafuri/newsdesk/internal/ranking"
	"github.com/matheuskafuri/newsdesk/internal/termview"
)

var (
	flagMax       int
	flagSince     string
	flagSources   []string
	flagSearch    string
	flagRefresh   bool
	flagBreakdown bool
	flagWidth     int
	flagOpenStory int
)

var topCmd = &cobra.Command{
	Use:   "top",
	Short: "Print the top stories panel in the terminal",
	RunE:  runTop,
}

func init() {
	addTopFlags(topCmd)
}

func addTopFlags(c *cobra.Command) {
	addFilterFlags(c)
	c.Flags().BoolVar(&flagBreakdown, "breakdown", false, "show how each score was computed")
	c.Flags().IntVar(&flagWidth, "width", 100, "render width in columns")
	c.Flags().IntVar(&flagOpenStory, "open", 0, "open the Nth story in the browser")
}

// addFilterFlags registers the flags shared by top and panel.
func addFilterFlags(c *cobra.Command) {
	c.Flags().IntVar(&flagMax, "max", 0, "number of stories to show (default from config)")
	c.Flags().StringVar(&flagSince, "since", "", "cluster articles from the last duration (e.g., 12h, 2d)")
	c.Flags().StringSliceVar(&flagSources, "source", nil, "only use articles from these sources (repeatable)")
	c.Flags().StringVar(&flagSearch, "search", "", "only use articles whose title or description contains this text")
	c.Flags().BoolVar(&flagRefresh, "refresh", false, "force refresh feeds first")
}

func runTop(cmd *cobra.Command, args []string) error {
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

	fmt.Fprint(cmd.OutOrStdout(), termview.Render(res, a.ranker, termview.Options{
		Width:         flagWidth,
		ShowBreakdown: flagBreakdown,
		Now:           time.Now(),
	}))

	if flagOpenStory == 0 {
		return nil
	}
	link, err := storyLink(res.Stories, flagOpenStory)
	if err != nil {
		return err
	}
	return browser.Open(link)
}

// windowFlag returns the --since override or the configured window.
func windowFlag(a *app) (time.Duration, error) {
	if flagSince == "" {
		return a.cfg.WindowDuration(), nil
	}
	d, err := parseSince(flagSince)
	if err != nil {
		return 0, fmt.Errorf("invalid --since value: %w", err)
	}
	return d, nil
}

// filterFlags builds the story filter from --since, --source and --search.
func filterFlags(a *app) (storyFilter, error) {
	window, err := windowFlag(a)
	if err != nil {
		return storyFilter{}, err
	}
	sources, err := resolveSources(a.cfg, flagSources)
	if err != nil {
		return storyFilter{}, fmt.Errorf("invalid --source value: %w", err)
	}
	return storyFilter{Window: window, Sources: sources, Search: flagSearch}, nil
}

// storyLink returns the link of the nth (1-based) story.
func storyLink(stories []ranking.Story, n int) (string, error) {
	if n < 1 || n > len(stories) {
		return "", fmt.Errorf("--open %d: only %d stories shown", n, len(stories))
	}
	link := stories[n-1].Cluster.Link
	if link == "" {
		return "", fmt.Errorf("story %d has no link", n)
	}
	return link, nil
}
