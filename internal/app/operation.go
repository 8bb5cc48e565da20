package app

// Run tracks a CLI invocation that may mutate the archive. Runs start in
// memory with ID=0; only mutating commands persist them, and the persisted
// id becomes the version of the snapshot uploaded when the app closes.
type Run struct {
	ID         int64
	Operation  string
	Parameters string
	Status     string // "success" or "error"
}

// NewRun creates a new in-memory run.
func NewRun(operation, parameters string) *Run {
	return &Run{
		Operation:  operation,
		Parameters: parameters,
		Status:     "success",
	}
}

// Persisted returns true if this run has been saved to the database.
func (r *Run) Persisted() bool {
	return r.ID != 0
}

// Observe marks the run failed when err is non-nil and returns err.
func (r *Run) Observe(err error) error {
	if err != nil {
		r.Status = "error"
	}
	return err
}
