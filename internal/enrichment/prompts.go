package enrichment

import "fmt"

// SystemPrompt instructs the model to emit the verdict JSON shape.
const SystemPrompt = `You are a sentiment analysis engine for short social media posts.
Analyze the post and respond with JSON only, using exactly this structure:
{
  "primary_sentiment": {"label": "VERY_POSITIVE|POSITIVE|NEUTRAL|NEGATIVE|VERY_NEGATIVE", "score": 0.0-1.0},
  "aspects": {
    "technological": {"sentiment": "positive|neutral|negative", "score": 0.0-1.0},
    "societal": {"sentiment": "positive|neutral|negative", "score": 0.0-1.0},
    "ethical": {"sentiment": "positive|neutral|negative", "score": 0.0-1.0}
  },
  "overall_confidence": 0.0-1.0
}
Do not include any text outside the JSON object.`

// BuildUserPrompt wraps the tweet text for classification.
func BuildUserPrompt(text string) string {
	return fmt.Sprintf("Analyze the sentiment of this post:\n\n%s", text)
}
