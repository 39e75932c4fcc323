package enrichment

import (
	"errors"
	"testing"

	"github.com/sentipulse/sentipulse/internal/models"
)

const validContent = `{
	"primary_sentiment": {"label": "POSITIVE", "score": 0.85},
	"aspects": {
		"technological": {"sentiment": "positive", "score": 0.9},
		"societal": {"sentiment": "neutral", "score": 0.5},
		"ethical": {"sentiment": "negative", "score": 0.3}
	},
	"overall_confidence": 0.8
}`

func TestParseVerdict(t *testing.T) {
	verdict, err := ParseVerdict(validContent)
	if err != nil {
		t.Fatalf("ParseVerdict: %v", err)
	}

	if verdict.PrimarySentiment.Label != models.SentimentPositive {
		t.Fatalf("unexpected label %q", verdict.PrimarySentiment.Label)
	}
	if verdict.OverallConfidence != 0.8 {
		t.Fatalf("unexpected confidence %v", verdict.OverallConfidence)
	}
	if got := verdict.Aspects["ethical"]; got.Sentiment != models.AspectNegative || got.Score != 0.3 {
		t.Fatalf("unexpected ethical aspect: %+v", got)
	}
}

func TestParseVerdictCanonicalizesAspects(t *testing.T) {
	content := `{
		"primary_sentiment": {"label": "neutral", "score": 0.5},
		"aspects": {
			"Technological": {"sentiment": "Positive", "score": 0.7},
			"economic": {"sentiment": "negative", "score": 0.2}
		},
		"overall_confidence": 0.6
	}`

	verdict, err := ParseVerdict(content)
	if err != nil {
		t.Fatalf("ParseVerdict: %v", err)
	}

	if len(verdict.Aspects) != 3 {
		t.Fatalf("expected exactly 3 canonical aspects, got %v", verdict.Aspects)
	}
	if _, ok := verdict.Aspects["economic"]; ok {
		t.Fatal("non-canonical aspect survived")
	}
	if got := verdict.Aspects["technological"]; got.Sentiment != models.AspectPositive {
		t.Fatalf("mixed-case aspect not canonicalized: %+v", got)
	}
	if got := verdict.Aspects["societal"]; got != models.DefaultAspectScore() {
		t.Fatalf("missing aspect not defaulted: %+v", got)
	}
	if verdict.PrimarySentiment.Label != models.SentimentNeutral {
		t.Fatalf("label not uppercased: %q", verdict.PrimarySentiment.Label)
	}
}

func TestParseVerdictCleansControlCharacters(t *testing.T) {
	dirty := "\x00\x01" + validContent[:20] + "\x02" + validContent[20:] + "\n\t"

	verdict, err := ParseVerdict(dirty)
	if err != nil {
		t.Fatalf("expected cleanup retry to succeed, got %v", err)
	}
	if verdict.PrimarySentiment.Label != models.SentimentPositive {
		t.Fatalf("unexpected label %q", verdict.PrimarySentiment.Label)
	}
}

func TestParseVerdictFormatErrors(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"not json", "the sentiment is positive"},
		{"missing primary", `{"aspects": {}, "overall_confidence": 0.5}`},
		{"missing aspects", `{"primary_sentiment": {"label": "NEUTRAL", "score": 0.5}, "overall_confidence": 0.5}`},
		{"missing confidence", `{"primary_sentiment": {"label": "NEUTRAL", "score": 0.5}, "aspects": {}}`},
		{"invalid label", `{"primary_sentiment": {"label": "AMAZING", "score": 0.5}, "aspects": {}, "overall_confidence": 0.5}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseVerdict(tc.content)
			var formatErr *FormatError
			if !errors.As(err, &formatErr) {
				t.Fatalf("expected FormatError, got %v", err)
			}
		})
	}
}
