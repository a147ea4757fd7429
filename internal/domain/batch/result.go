// Package batch holds per-item outcomes for fault-isolated batch operations.
package batch

// ItemStatus is the processing outcome of a single batch item.
type ItemStatus string

// Batch item status values.
const (
	StatusOK    ItemStatus = "ok"
	StatusError ItemStatus = "error"
)

// Result is the outcome of processing one document in a batch operation.
// Failures are carried here instead of aborting the batch.
type Result struct {
	path   string
	status ItemStatus
	err    error
}

// NewOK creates a successful batch result.
func NewOK(path string) Result { return Result{path: path, status: StatusOK} }

// NewError creates a failed batch result.
func NewError(path string, err error) Result {
	return Result{path: path, status: StatusError, err: err}
}

// Path returns the document path.
func (r Result) Path() string { return r.path }

// Status returns the processing outcome.
func (r Result) Status() ItemStatus { return r.status }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }

// Summary aggregates batch results into success/failure counts.
type Summary struct {
	Succeeded int
	Failed    int
}

// Summarize counts results by status.
func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		if r.Status() == StatusOK {
			s.Succeeded++
		} else {
			s.Failed++
		}
	}
	return s
}
