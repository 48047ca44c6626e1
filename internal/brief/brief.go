// Package brief keeps the narrative summary of the top stories and gates how
// often it is regenerated.
package brief

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/matheuskafuri/newsdesk/internal/ai"
	"github.com/matheuskafuri/newsdesk/internal/metrics"
)

// ErrNoBrief is returned when no brief could be produced or recalled.
var ErrNoBrief = errors.New("no brief available")

// Entry is a cached brief with its age and time to live. RetryAt is set
// after a failed regeneration; no new attempt is made before it.
type Entry struct {
	Value       string        `json:"value"`
	LastUpdated time.Time     `json:"last_updated"`
	TTL         time.Duration `json:"ttl"`
	RetryAt     time.Time     `json:"retry_at"`
}

// BackingOff reports whether a failed regeneration still blocks retries at
// now.
func (e Entry) BackingOff(now time.Time) bool {
	return !e.RetryAt.IsZero() && now.Before(e.RetryAt)
}

// IsStale reports whether the entry must be regenerated at now. An empty
// entry is always stale.
func (e Entry) IsStale(now time.Time) bool {
	if e.Value == "" || e.LastUpdated.IsZero() {
		return true
	}
	return now.Sub(e.LastUpdated) >= e.TTL
}

// Store persists the current brief entry.
type Store interface {
	Load(ctx context.Context) (Entry, error)
	Save(ctx context.Context, e Entry) error
}

// Result is the brief handed to the panel.
type Result struct {
	Text        string
	GeneratedAt time.Time
	// Cached is true when the text came from the store rather than a fresh
	// summarizer call.
	Cached bool
}

// Generator returns the stored brief while it is fresh and asks the
// summarizer for a new one once the cooldown has passed.
type Generator struct {
	summarizer ai.Summarizer
	store      Store
	ttl        time.Duration
	backoff    time.Duration
	logger     *slog.Logger

	// sem serializes regeneration; waiting on it honours the caller's context.
	sem chan struct{}
}

// DefaultBackoff is how long a failed regeneration suppresses new attempts.
const DefaultBackoff = time.Minute

// NewGenerator returns a Generator. summarizer may be nil, in which case
// only previously stored briefs are served.
func NewGenerator(summarizer ai.Summarizer, store Store, ttl time.Duration, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		summarizer: summarizer,
		store:      store,
		ttl:        ttl,
		backoff:    DefaultBackoff,
		logger:     logger,
		sem:        make(chan struct{}, 1),
	}
}

// Get returns the brief for headlines at now. Summarizer failures fall back to
// the last stored brief and hold off further attempts for the back-off
// period; ErrNoBrief is returned only when nothing is available.
func (g *Generator) Get(ctx context.Context, headlines []string, now time.Time) (Result, error) {
	select {
	case g.sem <- struct{}{}:
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
	defer func() { <-g.sem }()

	entry, err := g.store.Load(ctx)
	if err != nil && !errors.Is(err, ErrNoBrief) {
		g.logger.Warn("brief_load_failed", slog.String("error", err.Error()))
		entry = Entry{}
	}

	if !entry.IsStale(now) {
		metrics.RecordBrief("hit")
		return Result{Text: entry.Value, GeneratedAt: entry.LastUpdated, Cached: true}, nil
	}

	if g.summarizer == nil || len(headlines) == 0 {
		return g.fallback(entry)
	}
	if entry.BackingOff(now) {
		metrics.RecordBrief("backoff")
		return g.fallback(entry)
	}

	metrics.RecordBrief("miss")
	text, err := g.summarizer.Brief(ctx, headlines)
	metrics.RecordExternal("summary", err)
	if err != nil {
		g.logger.Warn("brief_generation_failed",
			slog.Int("headlines", len(headlines)),
			slog.String("error", err.Error()))
		entry.RetryAt = now.Add(g.backoff)
		if err := g.store.Save(ctx, entry); err != nil {
			g.logger.Warn("brief_save_failed", slog.String("error", err.Error()))
		}
		return g.fallback(entry)
	}

	fresh := Entry{Value: text, LastUpdated: now, TTL: g.ttl}
	if err := g.store.Save(ctx, fresh); err != nil {
		g.logger.Warn("brief_save_failed", slog.String("error", err.Error()))
	}
	g.logger.Debug("brief_generated", slog.Int("headlines", len(headlines)), slog.Int("chars", len(text)))
	return Result{Text: text, GeneratedAt: now}, nil
}

func (g *Generator) fallback(entry Entry) (Result, error) {
	if entry.Value == "" {
		return Result{}, ErrNoBrief
	}
	metrics.RecordBrief("fallback")
	return Result{Text: entry.Value, GeneratedAt: entry.LastUpdated, Cached: true}, nil
}

// MemoryStore keeps the entry in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	entry Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(_ context.Context) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entry.Value == "" && m.entry.RetryAt.IsZero() {
		return Entry{}, ErrNoBrief
	}
	return m.entry, nil
}

func (m *MemoryStore) Save(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entry = e
	return nil
}
