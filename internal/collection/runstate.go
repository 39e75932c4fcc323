package collection

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/sentipulse/sentipulse/internal/models"
)

// Run is the cancellation token for one collection run. The collector polls
// Cancelled at every window and page boundary; an in-flight request always
// completes before cancellation takes effect.
type Run struct {
	id        string
	startedAt time.Time
	cancelled atomic.Bool
}

// ID returns the run identifier.
func (r *Run) ID() string { return r.id }

// StartedAt returns when the run began.
func (r *Run) StartedAt() time.Time { return r.startedAt }

// Cancelled reports whether a cancel request was observed.
func (r *Run) Cancelled() bool { return r.cancelled.Load() }

// Info returns the externally visible snapshot.
func (r *Run) Info() models.RunInfo {
	status := models.RunActive
	if r.Cancelled() {
		status = models.RunCancelled
	}
	return models.RunInfo{
		RunID:     r.id,
		StartedAt: r.startedAt,
		Status:    status,
	}
}

// Registry owns the process-wide current run. Transitions happen under a
// single lock and cancel requests validate the run id, so two overlapping
// triggers cannot corrupt each other's cancellation signal: a cancel for a
// stale or mismatched id is a no-op.
type Registry struct {
	mu      sync.Mutex
	current *Run
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Begin installs a new active run and returns its handle. A previously
// active run keeps its own handle but can no longer be cancelled through the
// registry.
func (g *Registry) Begin() *Run {
	g.mu.Lock()
	defer g.mu.Unlock()

	run := &Run{
		id:        uuid.NewString(),
		startedAt: time.Now().UTC(),
	}
	g.current = run
	return run
}

// Finish clears the current run if it is still the given one.
func (g *Registry) Finish(run *Run) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.current == run {
		g.current = nil
	}
}

// Cancel flags the current run if the id matches. It reports whether a
// cancellation was actually delivered.
func (g *Registry) Cancel(runID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.current == nil || g.current.id != runID {
		return false
	}
	if g.current.cancelled.Load() {
		return false
	}
	g.current.cancelled.Store(true)
	return true
}

// Status returns the current run snapshot, if any.
func (g *Registry) Status() (models.RunInfo, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.current == nil {
		return models.RunInfo{}, false
	}
	return g.current.Info(), true
}
