package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/matheuskafuri/newsdesk/internal/ai"
	"github.com/matheuskafuri/newsdesk/internal/brief"
	"github.com/matheuskafuri/newsdesk/internal/cache"
	"github.com/matheuskafuri/newsdesk/internal/cluster"
	"github.com/matheuskafuri/newsdesk/internal/config"
	"github.com/matheuskafuri/newsdesk/internal/feed"
	"github.com/matheuskafuri/newsdesk/internal/logging"
	"github.com/matheuskafuri/newsdesk/internal/panel"
	"github.com/matheuskafuri/newsdesk/internal/ranking"
	"github.com/matheuskafuri/newsdesk/internal/sentiment"
)

const fetchTimeout = 30 * time.Second

// app holds the wired components shared by the subcommands.
type app struct {
	cfg    *config.Config
	db     *cache.Cache
	logger *slog.Logger
	ranker *ranking.Ranker
	panel  *panel.Panel

	closers []func() error
}

func newApp() (*app, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	logger := logging.New(os.Stderr, logging.FromEnv(flagLogLevel, cfg.LogLevel), flagLogFormat)

	db, err := cache.Open(config.CachePath())
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	a := &app{cfg: cfg, db: db, logger: logger}
	a.closers = append(a.closers, db.Close)

	store, closeStore, err := newBriefStore(cfg, db)
	if err != nil {
		a.Close()
		return nil, err
	}
	if closeStore != nil {
		a.closers = append(a.closers, closeStore)
	}

	a.ranker = ranking.New(cfg.RankingConfig(), nil)
	generator := brief.NewGenerator(newSummarizer(cfg, logger), store, cfg.BriefCooldown(), logger)
	a.panel = panel.New(a.ranker, newClassifier(cfg), generator, logger, panel.Options{
		MaxStories:       cfg.GetMaxStories(),
		SentimentTimeout: cfg.SentimentTimeout(),
		BriefTimeout:     cfg.BriefTimeout(),
	})
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close_failed", slog.String("error", err.Error()))
		}
	}
}

// refresh fetches feeds into the cache when the refresh interval has passed,
// or always when force is set. Old articles are pruned afterwards.
func (a *app) refresh(ctx context.Context, force bool) (feed.FetchResult, error) {
	if !force && !a.db.NeedsRefresh(a.cfg.RefreshDuration()) {
		return feed.FetchResult{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	result := feed.FetchAll(ctx, a.cfg.EnabledSources(), a.logger)
	cancel()

	if err := a.db.UpsertArticles(result.Articles); err != nil {
		return result, fmt.Errorf("caching articles: %w", err)
	}
	if err := a.db.SetLastRefresh(); err != nil {
		a.logger.Warn("set_last_refresh_failed", slog.String("error", err.Error()))
	}

	pruned, err := a.db.Prune(a.cfg.RetentionDuration())
	if err != nil {
		a.logger.Warn("prune_failed", slog.String("error", err.Error()))
	}
	a.logger.Info("feeds_refreshed",
		slog.Int("sources", len(result.Sources)),
		slog.Int("articles", len(result.Articles)),
		slog.Int("errors", len(result.Errors)),
		slog.Int64("pruned", pruned))
	return result, nil
}

// maxWindowArticles bounds how many articles one clustering pass reads.
const maxWindowArticles = 5000

// storyFilter narrows the articles that are clustered into stories.
type storyFilter struct {
	Window  time.Duration
	Sources []string
	Search  string
}

// clusters groups the articles published within the filter's window,
// optionally restricted to some sources or to a search term.
func (a *app) clusters(f storyFilter) ([]cluster.Cluster, error) {
	articles, err := a.db.GetArticles(cache.QueryOpts{
		Since:   time.Now().Add(-f.Window),
		Sources: f.Sources,
		Search:  f.Search,
		Limit:   maxWindowArticles,
	})
	if err != nil {
		return nil, fmt.Errorf("loading articles: %w", err)
	}
	return cluster.Build(articles, a.cfg.ClusterOptions()), nil
}

// resolveSources maps --source values onto configured source names,
// ignoring case.
func resolveSources(cfg *config.Config, names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, nil
	}
	known := cfg.SourceNames()
	out := make([]string, 0, len(names))
	for _, n := range names {
		match := ""
		for _, k := range known {
			if strings.EqualFold(strings.TrimSpace(n), k) {
				match = k
				break
			}
		}
		if match == "" {
			return nil, fmt.Errorf("unknown source %q (enabled: %s)", n, strings.Join(known, ", "))
		}
		out = append(out, match)
	}
	return out, nil
}

// newBriefStore returns the configured brief store and an optional closer.
func newBriefStore(cfg *config.Config, db *cache.Cache) (brief.Store, func() error, error) {
	switch cfg.BriefStore() {
	case "memory":
		return brief.NewMemoryStore(), nil, nil
	case "sqlite":
		return brief.NewSQLiteStore(db), nil, nil
	case "redis":
		store, err := brief.NewRedisStore(cfg.RedisURL())
		if err != nil {
			return nil, nil, fmt.Errorf("opening brief store: %w", err)
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown brief store %q", cfg.BriefStore())
	}
}

// newClassifier uses the sentiment worker when configured, otherwise the
// offline lexicon.
func newClassifier(cfg *config.Config) sentiment.Classifier {
	if cfg.Sentiment.Endpoint != "" {
		return sentiment.NewHTTPClassifier(cfg.Sentiment.Endpoint, cfg.SentimentTimeout())
	}
	return sentiment.NewLexicon()
}

// newSummarizer returns nil when AI is not configured, in which case only
// stored briefs are shown.
func newSummarizer(cfg *config.Config, logger *slog.Logger) ai.Summarizer {
	s, err := ai.New(cfg.AI, cfg.AIKey())
	if err != nil {
		if !errors.Is(err, ai.ErrNotConfigured) {
			logger.Warn("ai_disabled", slog.String("error", err.Error()))
		}
		return nil
	}
	return s
}

func parseSince(s string) (time.Duration, error) {
	var d time.Duration
	if len(s) > 1 && s[len(s)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(s, "%dd", &days); err == nil {
			d = time.Duration(days) * 24 * time.Hour
		}
	}
	if d == 0 {
		var err error
		if d, err = time.ParseDuration(s); err != nil {
			return 0, err
		}
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration %q must be positive", s)
	}
	return d, nil
}
