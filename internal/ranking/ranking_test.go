package ranking

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/matheuskafuri/newsdesk/internal/cluster"
)

var testNow = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

func testRanker() *Ranker {
	return New(DefaultConfig(), func() time.Time { return testNow })
}

func velocity(level cluster.Level) *cluster.Velocity {
	return &cluster.Velocity{Level: level, Trend: cluster.TrendSteady}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestImportanceOrderOfOperations(t *testing.T) {
	r := testRanker()
	c := cluster.Cluster{
		Title:       "Missile strike reported near border",
		Source:      "Reuters",
		SourceCount: 3,
		Velocity:    velocity(cluster.LevelSpike),
		IsAlert:     true,
		FirstSeen:   testNow.Add(-3 * time.Hour),
	}

	// keywords: "missile", "strike" -> 40 + 20
	// (45 + 60) * 2.5 = 262.5; + 50 = 312.5; * (1 - 3/12) = 234.375
	got := r.Importance(c)
	if !approx(got, 234.375) {
		t.Errorf("expected 234.375, got %v", got)
	}

	b := r.Breakdown(c)
	if b.Base != 45 || b.KeywordMatches != 2 || b.KeywordBoost != 60 {
		t.Errorf("unexpected base/keyword breakdown: %+v", b)
	}
	if b.VelocityMultiplier != 2.5 || b.AlertBonus != 50 || !approx(b.RecencyMultiplier, 0.75) {
		t.Errorf("unexpected multiplier breakdown: %+v", b)
	}
}

func TestImportanceNoKeywords(t *testing.T) {
	r := testRanker()
	c := cluster.Cluster{Title: "Local weather update", SourceCount: 2, FirstSeen: testNow}
	if got := r.Importance(c); !approx(got, 30) {
		t.Errorf("expected 30, got %v", got)
	}
}

func TestVelocityMultipliers(t *testing.T) {
	r := testRanker()
	tests := []struct {
		velocity *cluster.Velocity
		want     float64
	}{
		{nil, 30},
		{velocity(cluster.LevelNormal), 30},
		{velocity(cluster.LevelElevated), 45},
		{velocity(cluster.LevelSpike), 75},
		{velocity(cluster.LevelViral), 90},
		{velocity("unknown"), 30},
	}
	for _, tt := range tests {
		c := cluster.Cluster{Title: "Quiet day", SourceCount: 2, FirstSeen: testNow, Velocity: tt.velocity}
		if got := r.Importance(c); !approx(got, tt.want) {
			t.Errorf("velocity %+v: expected %v, got %v", tt.velocity, tt.want, got)
		}
	}
}

func TestAlertBonusNotScaledByVelocity(t *testing.T) {
	r := testRanker()
	c := cluster.Cluster{Title: "Quiet day", SourceCount: 1, FirstSeen: testNow, Velocity: velocity(cluster.LevelViral), IsAlert: true}
	// 15 * 3 + 50
	if got := r.Importance(c); !approx(got, 95) {
		t.Errorf("expected 95, got %v", got)
	}
}

func TestRecencyFloor(t *testing.T) {
	r := testRanker()
	fresh := cluster.Cluster{Title: "Quiet day", SourceCount: 4, FirstSeen: testNow}
	for _, age := range []time.Duration{6 * time.Hour, 12 * time.Hour, 48 * time.Hour, 24 * 365 * time.Hour} {
		old := fresh
		old.FirstSeen = testNow.Add(-age)
		if r.Importance(old) < 0.5*r.Importance(fresh)-1e-9 {
			t.Errorf("age %v: score %v dropped below half of %v", age, r.Importance(old), r.Importance(fresh))
		}
	}

	old := fresh
	old.FirstSeen = testNow.Add(-6 * time.Hour)
	if got := r.Importance(old); !approx(got, 30) {
		t.Errorf("expected 6h-old score 30, got %v", got)
	}
}

func TestRecencyFutureAndZeroTimestamps(t *testing.T) {
	r := testRanker()
	future := cluster.Cluster{Title: "Quiet day", SourceCount: 2, FirstSeen: testNow.Add(time.Hour)}
	if got := r.Importance(future); !approx(got, 30) {
		t.Errorf("future first-seen should count as age 0, got %v", got)
	}
	zero := cluster.Cluster{Title: "Quiet day", SourceCount: 2}
	if got := r.Importance(zero); !approx(got, 15) {
		t.Errorf("zero first-seen should hit the floor, got %v", got)
	}
}

func TestImportanceNonNegative(t *testing.T) {
	r := testRanker()
	inputs := []cluster.Cluster{
		{},
		{SourceCount: -3},
		{SourceCount: 1, FirstSeen: testNow.Add(-1000 * time.Hour)},
		{SourceCount: 50, Title: "war war war", IsAlert: true, Velocity: velocity(cluster.LevelViral)},
	}
	for _, c := range inputs {
		if got := r.Importance(c); got < 0 {
			t.Errorf("negative score %v for %+v", got, c)
		}
	}
}

func TestImportanceIncreasesWithSources(t *testing.T) {
	r := testRanker()
	prev := -1.0
	for n := 1; n <= 10; n++ {
		c := cluster.Cluster{Title: "Russia and Ukraine talks", SourceCount: n, FirstSeen: testNow.Add(-20 * time.Hour)}
		got := r.Importance(c)
		if got <= prev {
			t.Errorf("sourceCount %d: score %v not greater than %v", n, got, prev)
		}
		prev = got
	}
}

func TestKeywordMatchesCaseInsensitive(t *testing.T) {
	if n := keywordMatches("NATO warns of ESCALATION", DefaultKeywords); n != 2 {
		// "nato", "escalat"; "warns" is not "war"
		t.Errorf("expected 2 matches, got %d", n)
	}
	if n := keywordMatches("", DefaultKeywords); n != 0 {
		t.Errorf("expected 0 matches for empty title, got %d", n)
	}
}

func TestKeywordMatchesWholeWords(t *testing.T) {
	tests := []struct {
		title string
		want  int
	}{
		{"Senator unveils software award for coupon startups", 0},
		{"Wars and coups: a decade in review", 2},
		{"Bombs fall as missiles strike Kyiv", 3},
		{"Tanker attacked in the Red Sea", 2},
		{"North Korea fires missile", 2},
		{"Sanctions escalate over Gaza", 3},
		{"Warsaw hosts trade fair", 0},
	}
	for _, tt := range tests {
		if got := keywordMatches(tt.title, DefaultKeywords); got != tt.want {
			t.Errorf("keywordMatches(%q) = %d, want %d", tt.title, got, tt.want)
		}
	}
}

func TestKeywordMatchesConfiguredCase(t *testing.T) {
	if n := keywordMatches("Volcano erupts near capital", []string{"VOLCANO", " Erupt "}); n != 2 {
		t.Errorf("expected 2 matches, got %d", n)
	}
}

func TestSelectTopStoriesEmpty(t *testing.T) {
	r := testRanker()
	for _, n := range []int{-1, 0, 1, 10} {
		got := r.SelectTopStories(nil, n)
		if got == nil || len(got) != 0 {
			t.Errorf("maxCount %d: expected empty non-nil slice, got %v", n, got)
		}
	}
}

func TestSelectTopStoriesNonPositiveMax(t *testing.T) {
	r := testRanker()
	clusters := []cluster.Cluster{{Title: "a", Source: "A", SourceCount: 5, FirstSeen: testNow}}
	if got := r.SelectTopStories(clusters, 0); len(got) != 0 {
		t.Errorf("expected empty for maxCount 0, got %d", len(got))
	}
	if got := r.SelectTopStories(clusters, -4); len(got) != 0 {
		t.Errorf("expected empty for negative maxCount, got %d", len(got))
	}
}

func TestSelectTopStoriesFilter(t *testing.T) {
	r := testRanker()
	clusters := []cluster.Cluster{
		{ID: "single", Title: "Nuclear war crisis in Taiwan", Source: "A", SourceCount: 1, FirstSeen: testNow, Velocity: velocity(cluster.LevelNormal)},
		{ID: "unset", Title: "Nuclear war crisis", Source: "A", SourceCount: 1, FirstSeen: testNow},
		{ID: "corroborated", Title: "Quiet day", Source: "B", SourceCount: 2, FirstSeen: testNow},
		{ID: "alert", Title: "Quiet day", Source: "C", SourceCount: 1, FirstSeen: testNow, IsAlert: true},
		{ID: "elevated", Title: "Quiet day", Source: "D", SourceCount: 1, FirstSeen: testNow, Velocity: velocity(cluster.LevelElevated)},
	}

	got := r.SelectTopStories(clusters, 10)
	ids := map[string]bool{}
	for _, s := range got {
		ids[s.Cluster.ID] = true
	}
	if ids["single"] || ids["unset"] {
		t.Errorf("single-source normal clusters must be excluded, got %v", ids)
	}
	for _, id := range []string{"corroborated", "alert", "elevated"} {
		if !ids[id] {
			t.Errorf("expected %s to be selected", id)
		}
	}
}

func TestSelectTopStoriesExampleOrdering(t *testing.T) {
	r := testRanker()
	a := cluster.Cluster{ID: "A", Title: "Russia launches missile strike", Source: "X", SourceCount: 3, Velocity: velocity(cluster.LevelSpike), IsAlert: true, FirstSeen: testNow}
	b := cluster.Cluster{ID: "B", Title: "Local weather update", Source: "Y", SourceCount: 2, Velocity: velocity(cluster.LevelNormal), FirstSeen: testNow}

	if r.Importance(a) <= r.Importance(b) {
		t.Fatalf("expected A to outscore B: %v vs %v", r.Importance(a), r.Importance(b))
	}
	got := r.SelectTopStories([]cluster.Cluster{b, a}, 5)
	if len(got) != 2 || got[0].Cluster.ID != "A" || got[1].Cluster.ID != "B" {
		t.Fatalf("expected [A B], got %v", storyIDs(got))
	}
	if got[0].Score != r.Importance(a) {
		t.Errorf("story score should equal Importance, got %v", got[0].Score)
	}
}

func TestSelectTopStoriesSourceCap(t *testing.T) {
	r := testRanker()
	var clusters []cluster.Cluster
	for i := 0; i < 5; i++ {
		clusters = append(clusters, cluster.Cluster{
			ID:          fmt.Sprintf("s%d", i),
			Title:       "Quiet day",
			Source:      "Same",
			SourceCount: 10 - i,
			FirstSeen:   testNow,
		})
	}

	got := r.SelectTopStories(clusters, 5)
	if len(got) != 3 {
		t.Fatalf("expected 3 stories from one source, got %d", len(got))
	}
	want := []string{"s0", "s1", "s2"}
	for i, id := range want {
		if got[i].Cluster.ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, got[i].Cluster.ID)
		}
	}
}

func TestSelectTopStoriesCapTriggersOnFourth(t *testing.T) {
	r := testRanker()
	clusters := []cluster.Cluster{
		{ID: "a1", Title: "Quiet day", Source: "A", SourceCount: 9, FirstSeen: testNow},
		{ID: "a2", Title: "Quiet day", Source: "A", SourceCount: 8, FirstSeen: testNow},
		{ID: "a3", Title: "Quiet day", Source: "A", SourceCount: 7, FirstSeen: testNow},
		{ID: "a4", Title: "Quiet day", Source: "A", SourceCount: 6, FirstSeen: testNow},
		{ID: "b1", Title: "Quiet day", Source: "B", SourceCount: 5, FirstSeen: testNow},
	}
	got := storyIDs(r.SelectTopStories(clusters, 10))
	want := []string{"a1", "a2", "a3", "b1"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestSelectTopStoriesTiesKeepInputOrder(t *testing.T) {
	r := testRanker()
	clusters := []cluster.Cluster{
		{ID: "first", Title: "Quiet day", Source: "A", SourceCount: 2, FirstSeen: testNow},
		{ID: "second", Title: "Quiet day", Source: "B", SourceCount: 2, FirstSeen: testNow},
	}
	got := r.SelectTopStories(clusters, 2)
	if len(got) != 2 || got[0].Cluster.ID != "first" || got[1].Cluster.ID != "second" {
		t.Errorf("expected input order on ties, got %v", storyIDs(got))
	}
	if got[0].Score != got[1].Score {
		t.Errorf("expected equal scores, got %v and %v", got[0].Score, got[1].Score)
	}
}

func TestSelectTopStoriesMaxCount(t *testing.T) {
	r := testRanker()
	var clusters []cluster.Cluster
	for i := 0; i < 10; i++ {
		clusters = append(clusters, cluster.Cluster{
			ID:          fmt.Sprintf("c%d", i),
			Title:       "Quiet day",
			Source:      fmt.Sprintf("src%d", i),
			SourceCount: 2 + i,
			FirstSeen:   testNow,
		})
	}
	got := r.SelectTopStories(clusters, 4)
	if len(got) != 4 {
		t.Fatalf("expected 4, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Score > got[i-1].Score {
			t.Errorf("not sorted descending at %d: %v > %v", i, got[i].Score, got[i-1].Score)
		}
	}
	if got[0].Cluster.ID != "c9" {
		t.Errorf("expected highest source count first, got %s", got[0].Cluster.ID)
	}
}

func TestSelectTopStoriesDoesNotMutateInput(t *testing.T) {
	r := testRanker()
	clusters := []cluster.Cluster{
		{ID: "low", Title: "Quiet day", Source: "A", SourceCount: 2, FirstSeen: testNow},
		{ID: "high", Title: "Quiet day", Source: "B", SourceCount: 8, FirstSeen: testNow, Velocity: velocity(cluster.LevelSpike)},
	}
	r.SelectTopStories(clusters, 2)
	if clusters[0].ID != "low" || clusters[1].ID != "high" {
		t.Errorf("input order changed: %s, %s", clusters[0].ID, clusters[1].ID)
	}
	if clusters[1].Velocity.Level != cluster.LevelSpike {
		t.Errorf("velocity mutated: %+v", clusters[1].Velocity)
	}
}

func TestNewDefaultsClock(t *testing.T) {
	r := New(DefaultConfig(), nil)
	c := cluster.Cluster{Title: "Quiet day", SourceCount: 2, FirstSeen: time.Now()}
	if got := r.Importance(c); got < 29 || got > 30 {
		t.Errorf("expected ~30 with wall clock, got %v", got)
	}
}

func storyIDs(stories []Story) []string {
	ids := make([]string, len(stories))
	for i, s := range stories {
		ids[i] = s.Cluster.ID
	}
	return ids
}
