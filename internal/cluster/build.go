package cluster

import (
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/matheuskafuri/newsdesk/internal/cache"
)

// Options controls how articles are grouped and classified.
type Options struct {
	// Similarity is the minimum Jaccard overlap of title tokens for an
	// article to join an existing cluster.
	Similarity float64
	AlertTerms []string

	// Sources-per-hour thresholds for each velocity level.
	ElevatedRate float64
	SpikeRate    float64
	ViralRate    float64
}

// DefaultOptions returns the clustering defaults.
func DefaultOptions() Options {
	return Options{
		Similarity:   0.5,
		AlertTerms:   []string{"breaking", "urgent", "evacuat", "state of emergency", "martial law"},
		ElevatedRate: 3,
		SpikeRate:    6,
		ViralRate:    10,
	}
}

type group struct {
	primary cache.Article
	tokens  map[string]bool
	members []cache.Article
	sources []string
	seen    map[string]bool
	first   time.Time
	last    time.Time
}

// Build groups articles about the same event into clusters. Articles are
// visited oldest first so the earliest report becomes the primary item.
// The input slice is not modified.
func Build(articles []cache.Article, opts Options) []Cluster {
	if len(articles) == 0 {
		return nil
	}

	sorted := make([]cache.Article, len(articles))
	copy(sorted, articles)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Published.Before(sorted[j].Published)
	})

	var groups []*group
	for _, a := range sorted {
		tokens := tokenSet(a.Title)
		var target *group
		for _, g := range groups {
			if jaccard(tokens, g.tokens) >= opts.Similarity {
				target = g
				break
			}
		}
		if target == nil {
			target = &group{
				primary: a,
				tokens:  tokens,
				seen:    map[string]bool{},
				first:   a.Published,
				last:    a.Published,
			}
			groups = append(groups, target)
		}
		target.members = append(target.members, a)
		if !target.seen[a.Source] {
			target.seen[a.Source] = true
			target.sources = append(target.sources, a.Source)
		}
		if a.Published.Before(target.first) {
			target.first = a.Published
		}
		if a.Published.After(target.last) {
			target.last = a.Published
		}
	}

	out := make([]Cluster, 0, len(groups))
	for _, g := range groups {
		c := Cluster{
			ID:          g.primary.ID,
			Title:       g.primary.Title,
			Link:        g.primary.Link,
			Summary:     summary(g),
			Source:      g.primary.Source,
			SourceCount: len(g.sources),
			Sources:     g.sources,
			FirstSeen:   g.first,
			LastSeen:    g.last,
			IsAlert:     containsAny(strings.ToLower(g.primary.Title), opts.AlertTerms),
		}
		v := velocity(g, opts)
		c.Velocity = &v
		out = append(out, c)
	}
	return out
}

// summary is the primary's description, or the first member's when the
// primary has none.
func summary(g *group) string {
	if g.primary.Description != "" {
		return g.primary.Description
	}
	for _, m := range g.members {
		if m.Description != "" {
			return m.Description
		}
	}
	return ""
}

func velocity(g *group, opts Options) Velocity {
	span := g.last.Sub(g.first)
	hours := span.Hours()
	if hours < 1 {
		hours = 1
	}
	rate := float64(len(g.sources)) / hours

	level := LevelNormal
	switch {
	case rate >= opts.ViralRate:
		level = LevelViral
	case rate >= opts.SpikeRate:
		level = LevelSpike
	case rate >= opts.ElevatedRate:
		level = LevelElevated
	}

	// Compare first-report arrivals of each source in each half of the span.
	mid := g.first.Add(span / 2)
	firstSeen := map[string]time.Time{}
	for _, m := range g.members {
		if t, ok := firstSeen[m.Source]; !ok || m.Published.Before(t) {
			firstSeen[m.Source] = m.Published
		}
	}
	var early, late int
	for _, t := range firstSeen {
		if t.After(mid) {
			late++
		} else {
			early++
		}
	}
	trend := TrendSteady
	switch {
	case span > 0 && late > early:
		trend = TrendRising
	case span > 0 && late < early:
		trend = TrendFalling
	}

	return Velocity{Level: level, Trend: trend, SourcesPerHour: rate}
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if t != "" && strings.Contains(s, strings.ToLower(t)) {
			return true
		}
	}
	return false
}

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "in": true,
	"on": true, "at": true, "to": true, "for": true, "of": true, "with": true,
	"by": true, "from": true, "is": true, "as": true, "after": true, "over": true,
	"says": true, "said": true, "its": true, "it": true, "be": true, "are": true,
}

func tokenSet(title string) map[string]bool {
	set := map[string]bool{}
	for _, w := range strings.Fields(strings.ToLower(title)) {
		w = strings.TrimFunc(w, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if w == "" || stopWords[w] {
			continue
		}
		set[w] = true
	}
	return set
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for w := range a {
		if b[w] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}
