// Package feed fetches articles from RSS and Atom sources.
package feed

import (
	"context"
	"crypto/sha256"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"

	"github.com/matheuskafuri/newsdesk/internal/cache"
	"github.com/matheuskafuri/newsdesk/internal/config"
	"github.com/matheuskafuri/newsdesk/internal/metrics"
)

const (
	maxAge         = 7 * 24 * time.Hour
	maxDescription = 300
)

var strict = bluemonday.StrictPolicy()

type Fetcher interface {
	Fetch(ctx context.Context, source config.Source) ([]cache.Article, error)
}

type RSSFetcher struct {
	parser *gofeed.Parser
	now    func() time.Time
}

func NewRSSFetcher() *RSSFetcher {
	p := gofeed.NewParser()
	p.UserAgent = "newsdesk/1.0"
	return &RSSFetcher{parser: p, now: time.Now}
}

func (f *RSSFetcher) Fetch(ctx context.Context, source config.Source) ([]cache.Article, error) {
	feed, err := f.parser.ParseURLWithContext(source.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", source.Name, err)
	}

	now := f.now()
	cutoff := now.Add(-maxAge)
	articles := make([]cache.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item.Link == "" || strings.TrimSpace(item.Title) == "" {
			continue
		}

		pub := now
		if item.PublishedParsed != nil {
			pub = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			pub = *item.UpdatedParsed
		}

		// Skip articles older than 7 days
		if pub.Before(cutoff) {
			continue
		}

		desc := item.Description
		if desc == "" {
			desc = item.Content
		}

		articles = append(articles, cache.Article{
			ID:          articleID(item.Link),
			Source:      source.Name,
			Title:       stripHTML(item.Title),
			Link:        item.Link,
			Description: truncate(stripHTML(desc), maxDescription),
			Published:   pub.UTC(),
			FetchedAt:   now.UTC(),
		})
	}
	return articles, nil
}

func articleID(link string) string {
	h := sha256.Sum256([]byte(link))
	return fmt.Sprintf("%x", h[:16])
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

// stripHTML removes markup and decodes entities, collapsing whitespace.
func stripHTML(s string) string {
	text := html.UnescapeString(strict.Sanitize(s))
	return strings.Join(strings.Fields(text), " ")
}

// SourceResult is the outcome of fetching one source.
type SourceResult struct {
	Source   string
	Articles int
	Err      error
}

type FetchResult struct {
	Articles []cache.Article
	Errors   []error
	Sources  []SourceResult
}

// FetchAll fetches every source concurrently with the RSS fetcher.
func FetchAll(ctx context.Context, sources []config.Source, logger *slog.Logger) FetchResult {
	return FetchAllWith(ctx, NewRSSFetcher(), sources, logger)
}

// FetchAllWith fetches every source concurrently. A failing source is
// recorded in Errors and does not affect the others.
func FetchAllWith(ctx context.Context, fetcher Fetcher, sources []config.Source, logger *slog.Logger) FetchResult {
	if logger == nil {
		logger = slog.Default()
	}
	var (
		mu     sync.Mutex
		result FetchResult
		wg     sync.WaitGroup
	)

	for _, src := range sources {
		wg.Add(1)
		go func(s config.Source) {
			defer wg.Done()
			articles, err := fetcher.Fetch(ctx, s)
			metrics.RecordExternal("feed", err)

			mu.Lock()
			defer mu.Unlock()
			result.Sources = append(result.Sources, SourceResult{Source: s.Name, Articles: len(articles), Err: err})
			if err != nil {
				logger.Warn("feed_fetch_failed", slog.String("source", s.Name), slog.String("error", err.Error()))
				result.Errors = append(result.Errors, err)
				return
			}
			logger.Debug("feed_fetched", slog.String("source", s.Name), slog.Int("articles", len(articles)))
			result.Articles = append(result.Articles, articles...)
		}(src)
	}

	wg.Wait()
	return result
}
