package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Label is a sentiment classification.
type Label string

const (
	Positive Label = "positive"
	Negative Label = "negative"
	Neutral  Label = "neutral"
)

// Result is the classification of a single text. Score is in [-1, 1].
type Result struct {
	Label Label   `json:"label"`
	Score float64 `json:"score"`
}

// Classifier labels texts, one result per input in the same order.
type Classifier interface {
	Classify(ctx context.Context, texts []string) ([]Result, error)
}

// Summary aggregates results for display.
type Summary struct {
	Positive int
	Negative int
	Neutral  int
	// Tone is the mean score across all results.
	Tone    float64
	Overall Label
}

// Total returns the number of classified texts.
func (s Summary) Total() int {
	return s.Positive + s.Negative + s.Neutral
}

// Percent returns the share of texts with the given label, 0 to 100.
func (s Summary) Percent(l Label) int {
	total := s.Total()
	if total == 0 {
		return 0
	}
	var n int
	switch l {
	case Positive:
		n = s.Positive
	case Negative:
		n = s.Negative
	default:
		n = s.Neutral
	}
	return n * 100 / total
}

// Summarize counts labels and derives the overall tone. A mean score within
// ±0.15 reads as neutral.
func Summarize(results []Result) Summary {
	var s Summary
	if len(results) == 0 {
		s.Overall = Neutral
		return s
	}
	var sum float64
	for _, r := range results {
		switch r.Label {
		case Positive:
			s.Positive++
		case Negative:
			s.Negative++
		default:
			s.Neutral++
		}
		sum += r.Score
	}
	s.Tone = sum / float64(len(results))
	switch {
	case s.Tone > 0.15:
		s.Overall = Positive
	case s.Tone < -0.15:
		s.Overall = Negative
	default:
		s.Overall = Neutral
	}
	return s
}

// HTTPClassifier calls a sentiment worker over HTTP.
type HTTPClassifier struct {
	endpoint string
	client   *http.Client
}

// NewHTTPClassifier returns a client for the worker at endpoint.
func NewHTTPClassifier(endpoint string, timeout time.Duration) *HTTPClassifier {
	return &HTTPClassifier{endpoint: endpoint, client: &http.Client{Timeout: timeout}}
}

type classifyRequest struct {
	Texts []string `json:"texts"`
}

type classifyResponse struct {
	Results []Result `json:"results"`
}

func (h *HTTPClassifier) Classify(ctx context.Context, texts []string) ([]Result, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	body, _ := json.Marshal(classifyRequest{Texts: texts})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sentiment worker error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("sentiment worker %d: %s", resp.StatusCode, string(b))
	}

	var cr classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("decoding sentiment response: %w", err)
	}
	if len(cr.Results) != len(texts) {
		return nil, fmt.Errorf("sentiment worker returned %d results for %d texts", len(cr.Results), len(texts))
	}
	for i := range cr.Results {
		cr.Results[i].Label = normalizeLabel(cr.Results[i].Label, cr.Results[i].Score)
	}
	return cr.Results, nil
}

// normalizeLabel maps worker labels such as "NEGATIVE" or "LABEL_0" onto
// the three known labels, using the score when the label is unrecognised.
func normalizeLabel(l Label, score float64) Label {
	switch l {
	case Positive, "POSITIVE", "pos", "LABEL_2":
		return Positive
	case Negative, "NEGATIVE", "neg", "LABEL_0":
		return Negative
	case Neutral, "NEUTRAL", "neu", "LABEL_1":
		return Neutral
	}
	switch {
	case score > 0.15:
		return Positive
	case score < -0.15:
		return Negative
	default:
		return Neutral
	}
}
