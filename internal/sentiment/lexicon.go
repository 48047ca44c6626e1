package sentiment

import (
	"context"
	"strings"
	"unicode"
)

var negativeTerms = []string{
	"attack", "kill", "killed", "dead", "death", "deaths", "war", "strike",
	"bomb", "crisis", "collapse", "crash", "fear", "threat", "warn", "violence",
	"protest", "riot", "flood", "fire", "earthquake", "famine", "outbreak",
	"sanction", "arrest", "fraud", "scandal", "recession", "layoff", "missile",
	"hostage", "casualties", "injured", "shooting", "explosion", "coup",
	"escalat", "condemn", "invasion", "emergency", "drought", "evacuat",
	"state of emergency", "death toll", "cut off",
}

var positiveTerms = []string{
	"peace", "ceasefire", "agreement", "deal", "rescue", "recover", "recovery",
	"growth", "win", "wins", "victory", "breakthrough", "release", "released",
	"freed", "aid", "support", "celebrate", "record high", "improve", "boost",
	"reopen", "cure", "vaccine", "treaty", "reconcil", "rebound", "success",
	"talks resume", "prize",
}

// Lexicon is an offline classifier that counts crisis and relief terms. It
// is used when no sentiment worker is configured.
type Lexicon struct {
	negative []string
	positive []string
}

func NewLexicon() *Lexicon {
	return &Lexicon{negative: negativeTerms, positive: positiveTerms}
}

func (l *Lexicon) Classify(_ context.Context, texts []string) ([]Result, error) {
	results := make([]Result, len(texts))
	for i, t := range texts {
		results[i] = l.classify(t)
	}
	return results, nil
}

func (l *Lexicon) classify(text string) Result {
	tokens := tokenize(text)
	lower := strings.ToLower(text)

	neg := matches(tokens, lower, l.negative)
	pos := matches(tokens, lower, l.positive)
	if neg == 0 && pos == 0 {
		return Result{Label: Neutral}
	}

	score := float64(pos-neg) / float64(pos+neg)
	return Result{Label: normalizeLabel("", score), Score: score}
}

// matches counts terms present in text. Single words match token prefixes
// so "escalat" catches "escalation"; phrases match the lowered text.
func matches(tokens []string, lower string, terms []string) int {
	n := 0
	for _, term := range terms {
		if strings.Contains(term, " ") {
			if strings.Contains(lower, term) {
				n++
			}
			continue
		}
		for _, tok := range tokens {
			if strings.HasPrefix(tok, term) {
				n++
				break
			}
		}
	}
	return n
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
