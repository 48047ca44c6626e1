package ranking

import (
	"math"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/matheuskafuri/newsdesk/internal/cluster"
)

// Config holds the tunable tables and constants used for scoring and
// selection.
type Config struct {
	Keywords            []string
	VelocityMultipliers map[cluster.Level]float64

	SourceWeight    float64
	KeywordBase     float64
	KeywordPerMatch float64
	AlertBonus      float64

	// DecayWindow is the age at which recency decay reaches its floor.
	DecayWindow time.Duration
	DecayFloor  float64

	MinSources   int
	MaxPerSource int
}

// DefaultKeywords are high-impact geopolitical and crisis terms.
var DefaultKeywords = []string{
	"war", "invasion", "military", "nuclear", "sanctions", "missile",
	"attack", "troops", "conflict", "strike", "bomb", "casualties",
	"ceasefire", "treaty", "nato", "coup", "crisis", "emergency",
	"escalat", "ultimatum", "blockade", "embargo", "expel", "annex",
	"russia", "ukraine", "china", "taiwan", "iran", "israel", "gaza",
	"north korea", "syria", "yemen", "red sea", "south china sea",
}

// DefaultConfig returns the standard scoring configuration.
func DefaultConfig() Config {
	return Config{
		Keywords: append([]string(nil), DefaultKeywords...),
		VelocityMultipliers: map[cluster.Level]float64{
			cluster.LevelNormal:   1,
			cluster.LevelElevated: 1.5,
			cluster.LevelSpike:    2.5,
			cluster.LevelViral:    3,
		},
		SourceWeight:    15,
		KeywordBase:     40,
		KeywordPerMatch: 10,
		AlertBonus:      50,
		DecayWindow:     12 * time.Hour,
		DecayFloor:      0.5,
		MinSources:      2,
		MaxPerSource:    3,
	}
}

// Breakdown shows how each step contributed to the final score.
type Breakdown struct {
	Base               float64
	KeywordMatches     int
	KeywordBoost       float64
	VelocityMultiplier float64
	AlertBonus         float64
	RecencyMultiplier  float64
	Final              float64
}

// Story is a selected cluster with its importance score.
type Story struct {
	Cluster cluster.Cluster `json:"cluster"`
	Score   float64         `json:"score"`
}

// Ranker scores clusters and selects the top stories. It holds no mutable
// state and is safe for concurrent use.
type Ranker struct {
	cfg Config
	now func() time.Time
}

// New returns a Ranker. A nil clock defaults to time.Now.
func New(cfg Config, now func() time.Time) *Ranker {
	if now == nil {
		now = time.Now
	}
	return &Ranker{cfg: cfg, now: now}
}

// Config returns the ranker's configuration.
func (r *Ranker) Config() Config {
	return r.cfg
}

// Importance computes the importance score of a cluster.
func (r *Ranker) Importance(c cluster.Cluster) float64 {
	return r.Breakdown(c).Final
}

// Breakdown computes the importance score with its component details.
// Steps apply in a fixed order: base and keywords, velocity multiplier,
// alert bonus, recency decay.
func (r *Ranker) Breakdown(c cluster.Cluster) Breakdown {
	b := Breakdown{
		Base:               float64(c.SourceCount) * r.cfg.SourceWeight,
		KeywordMatches:     keywordMatches(c.Title, r.cfg.Keywords),
		VelocityMultiplier: r.velocityMultiplier(c.VelocityLevel()),
		RecencyMultiplier:  r.recency(c.FirstSeen),
	}
	if b.KeywordMatches > 0 {
		b.KeywordBoost = r.cfg.KeywordBase + r.cfg.KeywordPerMatch*float64(b.KeywordMatches)
	}
	if c.IsAlert {
		b.AlertBonus = r.cfg.AlertBonus
	}

	score := b.Base + b.KeywordBoost
	score *= b.VelocityMultiplier
	score += b.AlertBonus
	score *= b.RecencyMultiplier
	b.Final = math.Max(0, score)
	return b
}

func (r *Ranker) velocityMultiplier(level cluster.Level) float64 {
	if m, ok := r.cfg.VelocityMultipliers[level]; ok {
		return m
	}
	return 1
}

// recency decays linearly over the decay window and never drops below the
// floor.
func (r *Ranker) recency(firstSeen time.Time) float64 {
	if r.cfg.DecayWindow <= 0 {
		return 1
	}
	age := r.now().Sub(firstSeen).Hours()
	if age < 0 {
		age = 0
	}
	return math.Max(r.cfg.DecayFloor, 1-age/r.cfg.DecayWindow.Hours())
}

// keywordMatches counts the keywords present in title. Phrases match as
// substrings of the normalized title, keywords of up to four letters match a
// whole word or its plural, and longer keywords match word prefixes so stems
// like "escalat" cover their inflections.
func keywordMatches(title string, keywords []string) int {
	tokens := tokenize(title)
	if len(tokens) == 0 {
		return 0
	}
	joined := " " + strings.Join(tokens, " ") + " "

	n := 0
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if strings.Contains(kw, " ") {
			if strings.Contains(joined, " "+kw) {
				n++
			}
			continue
		}
		for _, tok := range tokens {
			if wordMatch(tok, kw) {
				n++
				break
			}
		}
	}
	return n
}

func wordMatch(tok, kw string) bool {
	if len(kw) <= 4 {
		return tok == kw || tok == kw+"s"
	}
	return strings.HasPrefix(tok, kw)
}

func tokenize(s string) []string {
	var tokens []string
	for _, word := range strings.Fields(strings.ToLower(s)) {
		word = strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if word != "" {
			tokens = append(tokens, word)
		}
	}
	return tokens
}

// Eligible reports whether a cluster may be ranked at all: it needs
// corroboration, an alert flag, or above-normal velocity.
func (r *Ranker) Eligible(c cluster.Cluster) bool {
	return c.SourceCount >= r.cfg.MinSources ||
		c.IsAlert ||
		c.VelocityLevel() != cluster.LevelNormal
}

// SelectTopStories returns at most maxCount eligible clusters ordered by
// descending score, with no more than MaxPerSource stories sharing a primary
// source. Equal scores keep their input order.
func (r *Ranker) SelectTopStories(clusters []cluster.Cluster, maxCount int) []Story {
	if maxCount <= 0 || len(clusters) == 0 {
		return []Story{}
	}

	candidates := make([]Story, 0, len(clusters))
	for _, c := range clusters {
		if !r.Eligible(c) {
			continue
		}
		candidates = append(candidates, Story{Cluster: c, Score: r.Importance(c)})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	selected := make([]Story, 0, min(maxCount, len(candidates)))
	perSource := map[string]int{}
	for _, s := range candidates {
		if len(selected) >= maxCount {
			break
		}
		if perSource[s.Cluster.Source] >= r.cfg.MaxPerSource {
			continue
		}
		perSource[s.Cluster.Source]++
		selected = append(selected, s)
	}
	return selected
}
