package monitoring

import (
	"fmt"
	"sync"
	"time"

	"github.com/banshee-data/agreement.report/internal/timeutil"
	"github.com/banshee-data/agreement.report/internal/version"
	"github.com/google/uuid"
)

// Recorder collects diagnostic lines for one analysis run. It is the returned
// diagnostic record for callers that prefer data over log output.
type Recorder struct {
	mu        sync.Mutex
	clock     timeutil.Clock
	runID     string
	startedAt time.Time
	lines     []string
	forward   LogFunc
}

// NewRecorder creates a Recorder with a fresh run id. Lines are also forwarded
// to forward when it is non-nil.
func NewRecorder(forward LogFunc) *Recorder {
	return NewRecorderWithClock(forward, timeutil.RealClock{})
}

// NewRecorderWithClock is NewRecorder with an injected clock.
func NewRecorderWithClock(forward LogFunc, clock timeutil.Clock) *Recorder {
	return &Recorder{
		clock:     clock,
		runID:     uuid.New().String(),
		startedAt: clock.Now(),
		forward:   forward,
	}
}

// Logf records one formatted line. Its method value satisfies LogFunc.
func (r *Recorder) Logf(format string, v ...interface{}) {
	line := fmt.Sprintf(format, v...)
	r.mu.Lock()
	r.lines = append(r.lines, line)
	r.mu.Unlock()
	r.forward.Emit("[%s] %s", r.runID[:8], line)
}

// Record is an immutable snapshot of a Recorder.
type Record struct {
	RunID     string        `json:"run_id"`
	Version   string        `json:"version"`
	GitSHA    string        `json:"git_sha"`
	StartedAt time.Time     `json:"started_at"`
	Elapsed   time.Duration `json:"elapsed_ns"`
	Lines     []string      `json:"lines"`
}

// Snapshot returns a copy of everything recorded so far.
func (r *Recorder) Snapshot() Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	lines := make([]string, len(r.lines))
	copy(lines, r.lines)
	return Record{
		RunID:     r.runID,
		Version:   version.Version,
		GitSHA:    version.GitSHA,
		StartedAt: r.startedAt,
		Elapsed:   r.clock.Since(r.startedAt),
		Lines:     lines,
	}
}
