package models

import (
	"fmt"
	"strings"
)

// SentimentLabel is one of the five canonical primary sentiment labels.
type SentimentLabel string

const (
	SentimentVeryPositive SentimentLabel = "VERY_POSITIVE"
	SentimentPositive     SentimentLabel = "POSITIVE"
	SentimentNeutral      SentimentLabel = "NEUTRAL"
	SentimentNegative     SentimentLabel = "NEGATIVE"
	SentimentVeryNegative SentimentLabel = "VERY_NEGATIVE"
)

// SentimentLabels lists the canonical primary labels in display order.
func SentimentLabels() []SentimentLabel {
	return []SentimentLabel{
		SentimentVeryPositive,
		SentimentPositive,
		SentimentNeutral,
		SentimentNegative,
		SentimentVeryNegative,
	}
}

// IsValid reports whether the label is one of the five canonical labels.
func (l SentimentLabel) IsValid() bool {
	switch l {
	case SentimentVeryPositive, SentimentPositive, SentimentNeutral,
		SentimentNegative, SentimentVeryNegative:
		return true
	}
	return false
}

// Aspect sentiment values (tri-state, lowercase).
const (
	AspectPositive = "positive"
	AspectNeutral  = "neutral"
	AspectNegative = "negative"
)

// CanonicalAspects is the fixed aspect set every stored verdict carries.
func CanonicalAspects() []string {
	return []string{"technological", "societal", "ethical"}
}

// IsAspectSentiment reports whether s is one of positive/neutral/negative.
func IsAspectSentiment(s string) bool {
	return s == AspectPositive || s == AspectNeutral || s == AspectNegative
}

// PrimarySentiment is the headline classification of a tweet.
type PrimarySentiment struct {
	Label SentimentLabel `json:"label"`
	Score float64        `json:"score"`
}

// AspectScore is the per-aspect classification of a tweet.
type AspectScore struct {
	Sentiment string  `json:"sentiment"`
	Score     float64 `json:"score"`
}

// DefaultAspectScore is stored for any canonical aspect the model omitted.
func DefaultAspectScore() AspectScore {
	return AspectScore{Sentiment: AspectNeutral, Score: 0.5}
}

// SentimentVerdict is the full multi-aspect classification of one tweet.
type SentimentVerdict struct {
	PrimarySentiment  PrimarySentiment       `json:"primary_sentiment"`
	Aspects           map[string]AspectScore `json:"aspects"`
	OverallConfidence float64                `json:"overall_confidence"`
}

// Normalize canonicalizes a verdict in place: the primary label is
// uppercased, aspect sentiments are lowercased, non-canonical aspects are
// dropped and missing canonical aspects are filled with the default.
func (v *SentimentVerdict) Normalize() {
	v.PrimarySentiment.Label = SentimentLabel(strings.ToUpper(strings.TrimSpace(string(v.PrimarySentiment.Label))))

	normalized := make(map[string]AspectScore, len(CanonicalAspects()))
	for _, name := range CanonicalAspects() {
		score, ok := v.Aspects[name]
		if !ok {
			normalized[name] = DefaultAspectScore()
			continue
		}
		score.Sentiment = strings.ToLower(strings.TrimSpace(score.Sentiment))
		if !IsAspectSentiment(score.Sentiment) {
			score = DefaultAspectScore()
		}
		normalized[name] = score
	}
	v.Aspects = normalized
}

// Validate checks a normalized verdict against the storage invariants.
func (v SentimentVerdict) Validate() error {
	if !v.PrimarySentiment.Label.IsValid() {
		return fmt.Errorf("invalid primary sentiment label: %q", v.PrimarySentiment.Label)
	}
	if len(v.Aspects) != len(CanonicalAspects()) {
		return fmt.Errorf("expected %d aspects, got %d", len(CanonicalAspects()), len(v.Aspects))
	}
	for _, name := range CanonicalAspects() {
		score, ok := v.Aspects[name]
		if !ok {
			return fmt.Errorf("missing canonical aspect %q", name)
		}
		if !IsAspectSentiment(score.Sentiment) {
			return fmt.Errorf("aspect %q has invalid sentiment %q", name, score.Sentiment)
		}
	}
	return nil
}
