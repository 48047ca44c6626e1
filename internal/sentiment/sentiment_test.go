package sentiment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexiconClassify(t *testing.T) {
	tests := []struct {
		text string
		want Label
	}{
		{"Missile attack kills dozens in border town", Negative},
		{"Ceasefire agreement brings peace to region", Positive},
		{"Parliament meets on Tuesday", Neutral},
		{"", Neutral},
		{"Tensions escalating as troops mass", Negative},
		{"State of emergency declared", Negative},
	}
	l := NewLexicon()
	for _, tt := range tests {
		got, err := l.Classify(context.Background(), []string{tt.text})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, tt.want, got[0].Label, "text %q", tt.text)
		assert.GreaterOrEqual(t, got[0].Score, -1.0)
		assert.LessOrEqual(t, got[0].Score, 1.0)
	}
}

func TestLexiconKeepsOrder(t *testing.T) {
	got, err := NewLexicon().Classify(context.Background(), []string{"peace deal", "bomb blast", "weather"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []Label{Positive, Negative, Neutral}, []Label{got[0].Label, got[1].Label, got[2].Label})
}

func TestSummarize(t *testing.T) {
	s := Summarize([]Result{
		{Label: Negative, Score: -0.9},
		{Label: Negative, Score: -0.6},
		{Label: Positive, Score: 0.5},
		{Label: Neutral, Score: 0},
	})
	assert.Equal(t, 1, s.Positive)
	assert.Equal(t, 2, s.Negative)
	assert.Equal(t, 1, s.Neutral)
	assert.Equal(t, 4, s.Total())
	assert.Equal(t, Negative, s.Overall)
	assert.InDelta(t, -0.25, s.Tone, 1e-9)
	assert.Equal(t, 50, s.Percent(Negative))
	assert.Equal(t, 25, s.Percent(Positive))
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, Neutral, s.Overall)
	assert.Zero(t, s.Total())
	assert.Zero(t, s.Percent(Positive))
}

func TestHTTPClassifier(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var req classifyRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"a", "b", "c"}, req.Texts)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[{"label":"NEGATIVE","score":-0.8},{"label":"LABEL_2","score":0.7},{"label":"mixed","score":0.05}]}`))
	}))
	defer srv.Close()

	c := NewHTTPClassifier(srv.URL, 5*time.Second)
	got, err := c.Classify(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, Negative, got[0].Label)
	assert.Equal(t, Positive, got[1].Label)
	assert.Equal(t, Neutral, got[2].Label)
}

func TestHTTPClassifierErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model not loaded", http.StatusServiceUnavailable)
		}},
		{"bad json", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"results":`))
		}},
		{"length mismatch", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"results":[{"label":"positive","score":0.9}]}`))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()
			_, err := NewHTTPClassifier(srv.URL, time.Second).Classify(context.Background(), []string{"a", "b"})
			assert.Error(t, err)
		})
	}
}

func TestHTTPClassifierRespectsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := NewHTTPClassifier(srv.URL, 5*time.Second).Classify(ctx, []string{"a"})
	assert.Error(t, err)
}

func TestHTTPClassifierEmptyInput(t *testing.T) {
	got, err := NewHTTPClassifier("http://127.0.0.1:0", time.Second).Classify(context.Background(), nil)
	assert.NoError(t, err)
	assert.Empty(t, got)
}
