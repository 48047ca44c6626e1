// Package termview renders a ranked panel for the terminal.
package termview

import (
	"fmt"
	"strings"
	"time"

	"github.com/matheuskafuri/newsdesk/internal/cluster"
	"github.com/matheuskafuri/newsdesk/internal/panel"
	"github.com/matheuskafuri/newsdesk/internal/ranking"
	"github.com/matheuskafuri/newsdesk/internal/sentiment"
)

// Options controls terminal rendering.
type Options struct {
	Width         int
	ShowBreakdown bool
	Now           time.Time
}

// Render formats the panel result. ranker is only consulted when
// ShowBreakdown is set.
func Render(res panel.Result, ranker *ranking.Ranker, opts Options) string {
	if opts.Width <= 0 {
		opts.Width = 80
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	var lines []string
	lines = append(lines, "", "  "+headerStyle.Render(fmt.Sprintf("Top Stories · %s", opts.Now.Format("Jan 2 15:04"))))
	lines = append(lines, "  "+renderSentiment(res.Sentiment), "")

	if len(res.Stories) == 0 {
		lines = append(lines, "  "+metaStyle.Render("No significant stories right now."), "")
	}
	if opts.ShowBreakdown && ranker != nil {
		lines = append(lines, "  "+metaStyle.Render(weightsLegend(ranker.Config())), "")
	}

	for i, s := range res.Stories {
		lines = append(lines, renderStory(i+1, s, opts)...)
		if opts.ShowBreakdown && ranker != nil {
			lines = append(lines, renderBreakdown(ranker.Breakdown(s.Cluster))...)
		}
		lines = append(lines, "")
	}

	brief := res.Brief
	if brief == "" {
		brief = "no brief available"
	}
	boxWidth := opts.Width - 4
	if boxWidth < 30 {
		boxWidth = 30
	}
	box := briefBoxStyle.Width(boxWidth).Render(bodyStyle.Render(wrapText(brief, boxWidth-4)))
	for _, l := range strings.Split(box, "\n") {
		lines = append(lines, "  "+l)
	}
	if res.Brief != "" {
		note := "updated " + since(opts.Now, res.BriefAt)
		if res.BriefCached {
			note = "cached  ·  " + note
		}
		lines = append(lines, "  "+metaStyle.Render(note))
	}

	return strings.Join(lines, "\n") + "\n"
}

func renderStory(rank int, s ranking.Story, opts Options) []string {
	c := s.Cluster
	head := rankStyle.Render(fmt.Sprintf("%2d.", rank)) + " "

	indent := "      "
	title := wrapText(c.Title, opts.Width-len(indent))
	titleLines := strings.Split(title, "\n")

	lines := []string{"  " + head + titleStyle.Render(titleLines[0])}
	for _, l := range titleLines[1:] {
		lines = append(lines, indent+titleStyle.Render(l))
	}

	meta := sourceStyle.Render(c.Source) +
		metaStyle.Render(fmt.Sprintf("  ·  %d sources  ·  %s  ·  score %.1f", c.SourceCount, since(opts.Now, c.FirstSeen), s.Score))
	if lvl := c.VelocityLevel(); lvl != cluster.LevelNormal {
		meta += "  " + velocityStyle.Render(strings.ToUpper(string(lvl)))
	}
	if c.IsAlert {
		meta += "  " + alertStyle.Render("ALERT")
	}
	if c.Summary != "" {
		for _, l := range strings.Split(wrapText(c.Summary, opts.Width-len(indent)), "\n") {
			lines = append(lines, indent+bodyStyle.Render(l))
		}
	}
	lines = append(lines, indent+meta)
	if c.Link != "" {
		lines = append(lines, indent+metaStyle.Render(c.Link))
	}
	return lines
}

func renderBreakdown(b ranking.Breakdown) []string {
	rows := []string{
		fmt.Sprintf("Base (sources):        %.2f", b.Base),
		fmt.Sprintf("Keyword boost:         %.2f (%d matches)", b.KeywordBoost, b.KeywordMatches),
		fmt.Sprintf("Velocity multiplier:   x%.2f", b.VelocityMultiplier),
		fmt.Sprintf("Alert bonus:           %.2f", b.AlertBonus),
		fmt.Sprintf("Recency multiplier:    x%.2f", b.RecencyMultiplier),
		fmt.Sprintf("Final:                 %.1f", b.Final),
	}
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = "        " + bodyStyle.Render(r)
	}
	return out
}

func weightsLegend(cfg ranking.Config) string {
	return fmt.Sprintf("Weights: %.0f per source  ·  keywords %.0f + %.0f each  ·  alert +%.0f  ·  decay over %s to x%.2f",
		cfg.SourceWeight, cfg.KeywordBase, cfg.KeywordPerMatch, cfg.AlertBonus, cfg.DecayWindow, cfg.DecayFloor)
}

func renderSentiment(s *sentiment.Summary) string {
	if s == nil {
		return metaStyle.Render("Sentiment: no sentiment data")
	}
	return metaStyle.Render("Sentiment: ") +
		sentimentStyle(string(s.Overall)).Render(string(s.Overall)) +
		metaStyle.Render(fmt.Sprintf("  (%d%% negative · %d%% neutral · %d%% positive)",
			s.Percent(sentiment.Negative), s.Percent(sentiment.Neutral), s.Percent(sentiment.Positive)))
}

func since(now, t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

func wrapText(s string, width int) string {
	if width <= 0 {
		return s
	}
	words := strings.Fields(s)
	if len(words) == 0 {
		return ""
	}

	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) > width {
			lines = append(lines, line)
			line = w
		} else {
			line += " " + w
		}
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}
