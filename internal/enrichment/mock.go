package enrichment

import (
	"context"
	"sync"

	"github.com/sentipulse/sentipulse/internal/models"
)

// MockClassifier is a scripted classifier for testing/development. Each call
// consumes one queued error first; once the queue is empty it returns the
// configured verdict.
type MockClassifier struct {
	mu      sync.Mutex
	verdict models.SentimentVerdict
	errs    []error
	calls   int
}

// NewMockClassifier creates a mock returning a neutral verdict.
func NewMockClassifier() *MockClassifier {
	verdict := models.SentimentVerdict{
		PrimarySentiment:  models.PrimarySentiment{Label: models.SentimentNeutral, Score: 0.5},
		Aspects:           map[string]models.AspectScore{},
		OverallConfidence: 0.9,
	}
	verdict.Normalize()
	return &MockClassifier{verdict: verdict}
}

// SetVerdict replaces the verdict returned on success.
func (m *MockClassifier) SetVerdict(v models.SentimentVerdict) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v.Normalize()
	m.verdict = v
}

// QueueErrors appends failures to be returned before the next success.
func (m *MockClassifier) QueueErrors(errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs = append(m.errs, errs...)
}

// Classify implements SentimentClassifier.
func (m *MockClassifier) Classify(ctx context.Context, text string) (*models.SentimentVerdict, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		return nil, err
	}

	verdict := m.verdict
	verdict.Aspects = make(map[string]models.AspectScore, len(m.verdict.Aspects))
	for name, score := range m.verdict.Aspects {
		verdict.Aspects[name] = score
	}
	return &verdict, nil
}

// Calls returns how many times Classify was invoked.
func (m *MockClassifier) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
