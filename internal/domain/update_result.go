package domain

// UpdateResult accumulates the per-pair outcome of one ingestion run.
// A given pair lands in exactly one of the three buckets.
type UpdateResult struct {
	RunID   string
	Updated []string
	Skipped []string
	Errors  map[string]string
}

func NewUpdateResult(runID string) *UpdateResult {
	return &UpdateResult{
		RunID:  runID,
		Errors: make(map[string]string),
	}
}

func (r *UpdateResult) AddSuccess(pair string) {
	r.Updated = append(r.Updated, pair)
}

func (r *UpdateResult) AddSkipped(pair string) {
	r.Skipped = append(r.Skipped, pair)
}

func (r *UpdateResult) AddError(pair, message string) {
	r.Errors[pair] = message
}

func (r *UpdateResult) SuccessCount() int {
	return len(r.Updated)
}

func (r *UpdateResult) SkippedCount() int {
	return len(r.Skipped)
}

func (r *UpdateResult) ErrorCount() int {
	return len(r.Errors)
}

func (r *UpdateResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// IsCompleteSuccess reports whether the run had zero errors and wrote at
// least one rate.
func (r *UpdateResult) IsCompleteSuccess() bool {
	return len(r.Errors) == 0 && len(r.Updated) > 0
}
