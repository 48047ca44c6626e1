package config

import (
	"embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/matheuskafuri/newsdesk/internal/cluster"
	"github.com/matheuskafuri/newsdesk/internal/ranking"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

type Source struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	URL     string `yaml:"url"`
	Enabled bool   `yaml:"enabled"`
}

type AIConfig struct {
	Provider string `yaml:"provider"` // "claude" or "openai"
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
}

// RankingConfig is the YAML form of ranking.Config. Zero values fall back to
// ranking.DefaultConfig.
type RankingConfig struct {
	Keywords            []string           `yaml:"keywords,omitempty"`
	VelocityMultipliers map[string]float64 `yaml:"velocity_multipliers,omitempty"`
	SourceWeight        float64            `yaml:"source_weight,omitempty"`
	KeywordBase         float64            `yaml:"keyword_base,omitempty"`
	KeywordPerMatch     float64            `yaml:"keyword_per_match,omitempty"`
	AlertBonus          float64            `yaml:"alert_bonus,omitempty"`
	DecayWindow         string             `yaml:"decay_window,omitempty"`
	DecayFloor          float64            `yaml:"decay_floor,omitempty"`
	MinSources          int                `yaml:"min_sources,omitempty"`
	MaxPerSource        int                `yaml:"max_per_source,omitempty"`
}

type ClusteringConfig struct {
	Similarity   float64  `yaml:"similarity,omitempty"`
	AlertTerms   []string `yaml:"alert_terms,omitempty"`
	ElevatedRate float64  `yaml:"elevated_rate,omitempty"`
	SpikeRate    float64  `yaml:"spike_rate,omitempty"`
	ViralRate    float64  `yaml:"viral_rate,omitempty"`
}

type SentimentConfig struct {
	// Endpoint of the classifier worker. Empty uses the built-in lexicon.
	Endpoint string `yaml:"endpoint,omitempty"`
	Timeout  string `yaml:"timeout,omitempty"`
}

type BriefConfig struct {
	Cooldown string `yaml:"cooldown,omitempty"`
	Store    string `yaml:"store,omitempty"` // "sqlite", "memory" or "redis"
	RedisURL string `yaml:"redis_url,omitempty"`
	Timeout  string `yaml:"timeout,omitempty"`
}

type ServerConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

type Config struct {
	RefreshInterval string           `yaml:"refresh_interval"`
	Retention       string           `yaml:"retention"`
	Window          string           `yaml:"window,omitempty"`
	MaxStories      int              `yaml:"max_stories,omitempty"`
	LogLevel        string           `yaml:"log_level,omitempty"`
	Sources         []Source         `yaml:"sources"`
	Ranking         RankingConfig    `yaml:"ranking,omitempty"`
	Clustering      ClusteringConfig `yaml:"clustering,omitempty"`
	Sentiment       SentimentConfig  `yaml:"sentiment,omitempty"`
	Brief           BriefConfig      `yaml:"brief,omitempty"`
	Server          ServerConfig     `yaml:"server,omitempty"`
	AI              *AIConfig        `yaml:"ai,omitempty"`
}

// AIEnabled returns true if AI is configured with a valid API key.
func (c *Config) AIEnabled() bool {
	return c.AI != nil && c.AIKey() != ""
}

// AIKey returns the resolved API key (config or env var).
func (c *Config) AIKey() string {
	if c.AI != nil && c.AI.APIKey != "" {
		return c.AI.APIKey
	}
	return os.Getenv("NEWSDESK_AI_KEY")
}

// RedisURL returns the brief store redis URL (config or env var).
func (c *Config) RedisURL() string {
	if c.Brief.RedisURL != "" {
		return c.Brief.RedisURL
	}
	return os.Getenv("NEWSDESK_REDIS_URL")
}

func (c *Config) RefreshDuration() time.Duration {
	return parseDuration(c.RefreshInterval, 30*time.Minute)
}

func (c *Config) RetentionDuration() time.Duration {
	return parseDuration(c.Retention, 3*24*time.Hour)
}

// WindowDuration is how far back articles are considered for clustering.
func (c *Config) WindowDuration() time.Duration {
	return parseDuration(c.Window, 24*time.Hour)
}

func (c *Config) BriefCooldown() time.Duration {
	return parseDuration(c.Brief.Cooldown, 10*time.Minute)
}

func (c *Config) BriefTimeout() time.Duration {
	return parseDuration(c.Brief.Timeout, 30*time.Second)
}

func (c *Config) SentimentTimeout() time.Duration {
	return parseDuration(c.Sentiment.Timeout, 10*time.Second)
}

// GetMaxStories returns the panel size, defaulting to 8.
func (c *Config) GetMaxStories() int {
	if c.MaxStories <= 0 {
		return 8
	}
	return c.MaxStories
}

func (c *Config) ServerAddr() string {
	if c.Server.Addr == "" {
		return ":8080"
	}
	return c.Server.Addr
}

func (c *Config) BriefStore() string {
	if c.Brief.Store == "" {
		return "sqlite"
	}
	return c.Brief.Store
}

func (c *Config) EnabledSources() []Source {
	var out []Source
	for _, s := range c.Sources {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

func (c *Config) SourceNames() []string {
	var names []string
	for _, s := range c.EnabledSources() {
		names = append(names, s.Name)
	}
	return names
}

// RankingConfig merges the ranking section over ranking.DefaultConfig.
func (c *Config) RankingConfig() ranking.Config {
	rc := ranking.DefaultConfig()
	r := c.Ranking
	if len(r.Keywords) > 0 {
		rc.Keywords = r.Keywords
	}
	for level, m := range r.VelocityMultipliers {
		rc.VelocityMultipliers[cluster.Level(level)] = m
	}
	if r.SourceWeight > 0 {
		rc.SourceWeight = r.SourceWeight
	}
	if r.KeywordBase > 0 {
		rc.KeywordBase = r.KeywordBase
	}
	if r.KeywordPerMatch > 0 {
		rc.KeywordPerMatch = r.KeywordPerMatch
	}
	if r.AlertBonus > 0 {
		rc.AlertBonus = r.AlertBonus
	}
	rc.DecayWindow = parseDuration(r.DecayWindow, rc.DecayWindow)
	if r.DecayFloor > 0 {
		rc.DecayFloor = r.DecayFloor
	}
	if r.MinSources > 0 {
		rc.MinSources = r.MinSources
	}
	if r.MaxPerSource > 0 {
		rc.MaxPerSource = r.MaxPerSource
	}
	return rc
}

// ClusterOptions merges the clustering section over cluster.DefaultOptions.
func (c *Config) ClusterOptions() cluster.Options {
	opts := cluster.DefaultOptions()
	cc := c.Clustering
	if cc.Similarity > 0 {
		opts.Similarity = cc.Similarity
	}
	if len(cc.AlertTerms) > 0 {
		opts.AlertTerms = cc.AlertTerms
	}
	if cc.ElevatedRate > 0 {
		opts.ElevatedRate = cc.ElevatedRate
	}
	if cc.SpikeRate > 0 {
		opts.SpikeRate = cc.SpikeRate
	}
	if cc.ViralRate > 0 {
		opts.ViralRate = cc.ViralRate
	}
	return opts
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "newsdesk", "config.yaml")
}

func CachePath() string {
	return filepath.Join(xdg.CacheHome, "newsdesk", "newsdesk.db")
}

// parseDuration accepts Go durations plus an "Nd" day suffix. Invalid and
// non-positive values fall back to def.
func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := positiveDuration(s)
	if err != nil {
		return def
	}
	return d
}

func positiveDuration(s string) (time.Duration, error) {
	var d time.Duration
	if len(s) > 1 && s[len(s)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(s, "%dd", &days); err == nil {
			d = time.Duration(days) * 24 * time.Hour
		} else {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
	} else {
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

func loadDefaults() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

func Load(path string) (*Config, error) {
	defaults, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// First run: best-effort copy of the defaults to disk.
			_ = writeDefaults(path)
			return defaults, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	mergeDefaultSources(&cfg, defaults)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeDefaultSources keeps user sources in order, refreshes the URL and type
// of sources that share a name with a default, and appends new defaults.
func mergeDefaultSources(cfg, defaults *Config) {
	index := make(map[string]int, len(cfg.Sources))
	for i, s := range cfg.Sources {
		index[s.Name] = i
	}
	for _, d := range defaults.Sources {
		if i, ok := index[d.Name]; ok {
			cfg.Sources[i].URL = d.URL
			cfg.Sources[i].Type = d.Type
			continue
		}
		cfg.Sources = append(cfg.Sources, d)
	}
}

func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, _ := defaultConfigFS.ReadFile("default_config.yaml")
	return os.WriteFile(path, data, 0o644)
}

func validate(cfg *Config) error {
	validTypes := map[string]bool{"rss": true, "atom": true}
	for i, s := range cfg.Sources {
		if s.Name == "" {
			return fmt.Errorf("source %d: name is required", i)
		}
		if s.URL == "" {
			return fmt.Errorf("source %q: url is required", s.Name)
		}
		u, err := url.Parse(s.URL)
		if err != nil {
			return fmt.Errorf("source %q: invalid url: %w", s.Name, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("source %q: url scheme must be http or https, got %q", s.Name, u.Scheme)
		}
		if !validTypes[s.Type] {
			return fmt.Errorf("source %q: unknown type %q (valid: rss, atom)", s.Name, s.Type)
		}
	}

	validLevels := map[string]bool{
		string(cluster.LevelNormal):   true,
		string(cluster.LevelElevated): true,
		string(cluster.LevelSpike):    true,
		string(cluster.LevelViral):    true,
	}
	for level, m := range cfg.Ranking.VelocityMultipliers {
		if !validLevels[level] {
			return fmt.Errorf("ranking: unknown velocity level %q (valid: normal, elevated, spike, viral)", level)
		}
		if m <= 0 {
			return fmt.Errorf("ranking: velocity multiplier for %q must be positive, got %v", level, m)
		}
	}
	if cfg.Ranking.DecayFloor < 0 || cfg.Ranking.DecayFloor > 1 {
		return fmt.Errorf("ranking: decay_floor must be within [0, 1], got %v", cfg.Ranking.DecayFloor)
	}
	if cfg.Clustering.Similarity < 0 || cfg.Clustering.Similarity > 1 {
		return fmt.Errorf("clustering: similarity must be within [0, 1], got %v", cfg.Clustering.Similarity)
	}

	durations := []struct{ key, value string }{
		{"refresh_interval", cfg.RefreshInterval},
		{"retention", cfg.Retention},
		{"window", cfg.Window},
		{"ranking.decay_window", cfg.Ranking.DecayWindow},
		{"sentiment.timeout", cfg.Sentiment.Timeout},
		{"brief.cooldown", cfg.Brief.Cooldown},
		{"brief.timeout", cfg.Brief.Timeout},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		if _, err := positiveDuration(d.value); err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
	}

	switch cfg.BriefStore() {
	case "sqlite", "memory":
	case "redis":
		if cfg.RedisURL() == "" {
			return fmt.Errorf("brief: redis store requires redis_url or NEWSDESK_REDIS_URL")
		}
	default:
		return fmt.Errorf("brief: unknown store %q (valid: sqlite, memory, redis)", cfg.Brief.Store)
	}

	if cfg.Sentiment.Endpoint != "" {
		u, err := url.Parse(cfg.Sentiment.Endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("sentiment: endpoint must be an http(s) url, got %q", cfg.Sentiment.Endpoint)
		}
	}
	return nil
}
