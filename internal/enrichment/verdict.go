package enrichment

import (
	"encoding/json"
	"strings"

	"github.com/sentipulse/sentipulse/internal/models"
)

// verdictPayload mirrors the JSON the model is asked to produce. Pointers
// distinguish missing required fields from zero values.
type verdictPayload struct {
	PrimarySentiment *struct {
		Label string  `json:"label"`
		Score float64 `json:"score"`
	} `json:"primary_sentiment"`
	Aspects map[string]struct {
		Sentiment string  `json:"sentiment"`
		Score     float64 `json:"score"`
	} `json:"aspects"`
	OverallConfidence *float64 `json:"overall_confidence"`
}

// ParseVerdict decodes model output into a normalized verdict. If the raw
// content is invalid it gets one best-effort cleanup pass (stray whitespace
// and control characters stripped) and a single re-parse; a second failure is
// a FormatError.
func ParseVerdict(content string) (*models.SentimentVerdict, error) {
	payload, reason := decodePayload(content)
	if payload == nil {
		payload, reason = decodePayload(cleanContent(content))
	}
	if payload == nil {
		return nil, &FormatError{Reason: reason}
	}

	verdict := models.SentimentVerdict{
		PrimarySentiment: models.PrimarySentiment{
			Label: models.SentimentLabel(payload.PrimarySentiment.Label),
			Score: payload.PrimarySentiment.Score,
		},
		Aspects:           make(map[string]models.AspectScore, len(payload.Aspects)),
		OverallConfidence: *payload.OverallConfidence,
	}
	for name, aspect := range payload.Aspects {
		verdict.Aspects[strings.ToLower(name)] = models.AspectScore{
			Sentiment: aspect.Sentiment,
			Score:     aspect.Score,
		}
	}

	verdict.Normalize()
	if err := verdict.Validate(); err != nil {
		return nil, &FormatError{Reason: err.Error()}
	}

	return &verdict, nil
}

// decodePayload parses content and checks the required fields. On failure it
// returns nil and the reason.
func decodePayload(content string) (*verdictPayload, string) {
	var payload verdictPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, err.Error()
	}

	if payload.PrimarySentiment == nil || payload.PrimarySentiment.Label == "" {
		return nil, "missing primary_sentiment.label"
	}
	if payload.Aspects == nil {
		return nil, "missing aspects"
	}
	if payload.OverallConfidence == nil {
		return nil, "missing overall_confidence"
	}

	return &payload, ""
}

// cleanContent strips control characters and surrounding whitespace that
// models occasionally embed in otherwise valid JSON.
func cleanContent(content string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, content)
	return strings.TrimSpace(cleaned)
}
