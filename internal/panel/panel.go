// Package panel assembles the top stories panel: ranking, sentiment and the
// narrative brief, rendered as an HTML fragment.
package panel

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/sync/errgroup"

	"github.com/matheuskafuri/newsdesk/internal/brief"
	"github.com/matheuskafuri/newsdesk/internal/cluster"
	"github.com/matheuskafuri/newsdesk/internal/metrics"
	"github.com/matheuskafuri/newsdesk/internal/ranking"
	"github.com/matheuskafuri/newsdesk/internal/sentiment"
)

// Options configures a Panel.
type Options struct {
	MaxStories       int
	SentimentTimeout time.Duration
	BriefTimeout     time.Duration
	Now              func() time.Time
}

// Result is a rendered panel.
type Result struct {
	Stories []ranking.Story
	// Sentiment is nil when classification was unavailable.
	Sentiment *sentiment.Summary
	Brief     string
	BriefAt   time.Time
	// BriefCached is set when the brief was served from the store instead
	// of a fresh summarizer call.
	BriefCached bool
	HTML        string
}

// Panel ranks clusters and enriches the selection with best-effort calls
// to the sentiment classifier and the brief generator.
type Panel struct {
	ranker     *ranking.Ranker
	classifier sentiment.Classifier
	briefs     *brief.Generator
	logger     *slog.Logger
	opts       Options
	policy     *bluemonday.Policy
}

// New returns a Panel. classifier and briefs may be nil to skip those
// sections.
func New(ranker *ranking.Ranker, classifier sentiment.Classifier, briefs *brief.Generator, logger *slog.Logger, opts Options) *Panel {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxStories <= 0 {
		opts.MaxStories = 8
	}
	if opts.SentimentTimeout <= 0 {
		opts.SentimentTimeout = 10 * time.Second
	}
	if opts.BriefTimeout <= 0 {
		opts.BriefTimeout = 30 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Panel{
		ranker:     ranker,
		classifier: classifier,
		briefs:     briefs,
		logger:     logger,
		opts:       opts,
		policy:     bluemonday.StrictPolicy(),
	}
}

// MaxStories returns the configured panel size.
func (p *Panel) MaxStories() int {
	return p.opts.MaxStories
}

// Render builds the panel with the configured number of stories.
func (p *Panel) Render(ctx context.Context, clusters []cluster.Cluster) (Result, error) {
	return p.RenderTop(ctx, clusters, p.opts.MaxStories)
}

// RenderTop builds the panel with at most maxStories stories. Sentiment and
// brief failures are logged and leave their sections empty; only a template
// failure is returned as an error.
func (p *Panel) RenderTop(ctx context.Context, clusters []cluster.Cluster, maxStories int) (Result, error) {
	start := time.Now()

	stories := p.ranker.SelectTopStories(clusters, maxStories)
	metrics.RecordRanking(len(clusters), len(stories))
	res := Result{Stories: stories}

	if len(stories) > 0 {
		titles := make([]string, len(stories))
		for i, s := range stories {
			titles[i] = s.Cluster.Title
		}

		g, gctx := errgroup.WithContext(ctx)
		if p.classifier != nil {
			g.Go(func() error {
				summary, err := p.classifySentiment(gctx, titles)
				if err != nil {
					p.logger.Warn("sentiment_failed",
						slog.Int("stories", len(titles)),
						slog.String("error", err.Error()))
					return nil
				}
				res.Sentiment = &summary
				return nil
			})
		}
		if p.briefs != nil {
			g.Go(func() error {
				b, err := p.brief(gctx, titles)
				if err != nil {
					if !errors.Is(err, brief.ErrNoBrief) {
						p.logger.Warn("brief_failed", slog.String("error", err.Error()))
					}
					return nil
				}
				// the template escapes on output, so store plain text
				res.Brief = html.UnescapeString(p.policy.Sanitize(b.Text))
				res.BriefAt = b.GeneratedAt
				res.BriefCached = b.Cached
				return nil
			})
		}
		_ = g.Wait()
	}

	out, err := renderHTML(res, p.opts.Now())
	if err != nil {
		metrics.RecordRender("error", time.Since(start).Seconds())
		return res, fmt.Errorf("rendering panel: %w", err)
	}
	res.HTML = out

	metrics.RecordRender("ok", time.Since(start).Seconds())
	p.logger.Debug("panel_rendered",
		slog.Int("clusters", len(clusters)),
		slog.Int("stories", len(stories)),
		slog.Bool("sentiment", res.Sentiment != nil),
		slog.Bool("brief", res.Brief != ""))
	return res, nil
}

func (p *Panel) classifySentiment(ctx context.Context, titles []string) (sentiment.Summary, error) {
	ctx, cancel := context.WithTimeout(ctx, p.opts.SentimentTimeout)
	defer cancel()

	results, err := p.classifier.Classify(ctx, titles)
	metrics.RecordExternal("sentiment", err)
	if err != nil {
		return sentiment.Summary{}, err
	}
	return sentiment.Summarize(results), nil
}

func (p *Panel) brief(ctx context.Context, titles []string) (brief.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, p.opts.BriefTimeout)
	defer cancel()
	return p.briefs.Get(ctx, titles, p.opts.Now())
}

func renderHTML(res Result, now time.Time) (string, error) {
	var buf bytes.Buffer
	err := panelTemplate.Execute(&buf, struct {
		Result
		Now time.Time
	}{res, now})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
