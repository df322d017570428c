package dataset

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

// ErrPartialLoad marks a load where some sources succeeded and others failed.
// The succeeded data is still usable. A matcher finding no candidate is not
// an error kind at all; it is a valid outcome.
var ErrPartialLoad = eris.New("dataset: partial load")

// Status tracks one source's load lifecycle.
type Status string

// Source load statuses.
const (
	StatusNotAttempted Status = "not-attempted"
	StatusLoading      Status = "loading"
	StatusSuccess      Status = "success"
	StatusFailed       Status = "failed"
)

// SourceResult is the per-source outcome of a load run: the Ok/Err result
// type the continue-on-partial-failure policy aggregates over.
type SourceResult struct {
	Name    string        `json:"name"`
	Status  Status        `json:"status"`
	Rows    int           `json:"rows"`
	Elapsed time.Duration `json:"elapsed"`
	Err     error         `json:"-"`
	Error   string        `json:"error,omitempty"`
}

// LoadReport aggregates the per-source results of one LoadAll run. Callers
// read statuses here instead of catching exceptions; a failed source shows up
// as StatusFailed alongside its healthy siblings.
type LoadReport struct {
	RunID   string    `json:"run_id"`
	Started time.Time `json:"started"`

	mu      sync.Mutex
	Sources map[string]*SourceResult `json:"sources"`
}

// NewLoadReport creates a report covering the named sources, all initially
// not-attempted.
func NewLoadReport(sources ...string) *LoadReport {
	rep := &LoadReport{
		RunID:   uuid.NewString(),
		Started: time.Now().UTC(),
		Sources: make(map[string]*SourceResult, len(sources)),
	}
	for _, s := range sources {
		rep.Sources[s] = &SourceResult{Name: s, Status: StatusNotAttempted}
	}
	return rep
}

func (r *LoadReport) begin(source string) time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	if res, ok := r.Sources[source]; ok {
		res.Status = StatusLoading
	}
	return time.Now()
}

func (r *LoadReport) finish(source string, started time.Time, rows int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.Sources[source]
	if !ok {
		return
	}
	res.Elapsed = time.Since(started)
	if err != nil {
		res.Status = StatusFailed
		res.Err = err
		res.Error = err.Error()
		return
	}
	res.Status = StatusSuccess
	res.Rows = rows
}

// Partial reports whether at least one source failed while at least one
// succeeded.
func (r *LoadReport) Partial() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	var failed, succeeded bool
	for _, res := range r.Sources {
		switch res.Status {
		case StatusFailed:
			failed = true
		case StatusSuccess:
			succeeded = true
		}
	}
	return failed && succeeded
}

// AllFailed reports whether every attempted source failed.
func (r *LoadReport) AllFailed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	any := false
	for _, res := range r.Sources {
		switch res.Status {
		case StatusSuccess:
			return false
		case StatusFailed:
			any = true
		}
	}
	return any
}
