package panel

import (
	"fmt"
	"html/template"
	"time"

	"github.com/matheuskafuri/newsdesk/internal/cluster"
	"github.com/matheuskafuri/newsdesk/internal/sentiment"
)

var panelTemplate = template.Must(template.New("panel").Funcs(template.FuncMap{
	"rank":    func(i int) int { return i + 1 },
	"badge":   velocityBadge,
	"ago":     ago,
	"percent": func(s *sentiment.Summary, l string) int { return s.Percent(sentiment.Label(l)) },
	"score":   func(f float64) string { return fmt.Sprintf("%.1f", f) },
}).Parse(`<section class="panel top-stories" data-count="{{len .Stories}}">
<header class="panel-header"><h2>Top Stories</h2></header>
{{- if .Stories}}
<ol class="story-list">
{{- range $i, $s := .Stories}}
<li class="story{{if $s.Cluster.IsAlert}} story-alert{{end}}" data-score="{{score $s.Score}}">
<span class="story-rank">{{rank $i}}</span>
{{if $s.Cluster.Link}}<a class="story-title" href="{{$s.Cluster.Link}}" target="_blank" rel="noopener noreferrer">{{$s.Cluster.Title}}</a>{{else}}<span class="story-title">{{$s.Cluster.Title}}</span>{{end}}
{{- with $s.Cluster.Summary}}
<p class="story-summary">{{.}}</p>
{{- end}}
<span class="story-meta">{{$s.Cluster.Source}} &middot; {{$s.Cluster.SourceCount}} sources &middot; {{ago $.Now $s.Cluster.FirstSeen}}</span>
{{- with badge $s.Cluster}} <span class="badge badge-{{.}}">{{.}}</span>{{end}}
{{- if $s.Cluster.IsAlert}} <span class="badge badge-alert">alert</span>{{end}}
</li>
{{- end}}
</ol>
{{- else}}
<p class="panel-empty">No significant stories right now.</p>
{{- end}}
<div class="panel-sentiment">
{{- with .Sentiment}}
<span class="sentiment sentiment-{{.Overall}}">{{.Overall}}</span>
<span class="sentiment-split">{{percent . "negative"}}% negative &middot; {{percent . "neutral"}}% neutral &middot; {{percent . "positive"}}% positive</span>
{{- else}}
<span class="sentiment-empty">no sentiment data</span>
{{- end}}
</div>
<div class="panel-brief">
{{- if .Brief}}
<p>{{.Brief}}</p>
<span class="brief-meta">{{if .BriefCached}}cached &middot; {{end}}updated {{ago .Now .BriefAt}}</span>
{{- else}}
<p class="brief-empty">no brief available</p>
{{- end}}
</div>
</section>
`))

// velocityBadge returns the badge label for clusters moving faster than
// normal, or "" otherwise.
func velocityBadge(c cluster.Cluster) string {
	if lvl := c.VelocityLevel(); lvl != cluster.LevelNormal {
		return string(lvl)
	}
	return ""
}

func ago(now, t time.Time) string {
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
