package cluster

import "time"

// Level classifies how fast a cluster is picking up sources.
type Level string

const (
	LevelNormal   Level = "normal"
	LevelElevated Level = "elevated"
	LevelSpike    Level = "spike"
	LevelViral    Level = "viral"
)

// Trend is the direction of a cluster's source growth.
type Trend string

const (
	TrendRising  Trend = "rising"
	TrendSteady  Trend = "steady"
	TrendFalling Trend = "falling"
)

// Velocity describes the rate of new coverage for a cluster.
type Velocity struct {
	Level          Level   `json:"level"`
	Trend          Trend   `json:"trend"`
	SourcesPerHour float64 `json:"sources_per_hour"`
}

// Cluster is a deduplicated news event reported by one or more sources.
type Cluster struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Summary     string    `json:"summary,omitempty"`
	Source      string    `json:"source"`
	SourceCount int       `json:"source_count"`
	Sources     []string  `json:"sources,omitempty"`
	FirstSeen   time.Time `json:"first_seen"`
	LastSeen    time.Time `json:"last_seen"`
	Velocity    *Velocity `json:"velocity,omitempty"`
	IsAlert     bool      `json:"is_alert"`
}

// VelocityLevel returns the cluster's velocity level, normal when unset.
func (c Cluster) VelocityLevel() Level {
	if c.Velocity == nil || c.Velocity.Level == "" {
		return LevelNormal
	}
	return c.Velocity.Level
}
