package harness

import "github.com/roach88/nblineage/internal/notebook"

// StepTrace records the outcome of one step.
type StepTrace struct {
	Seq             int    `json:"seq"`
	Op              string `json:"op"`
	Cells           int    `json:"cells"` // cell count after the step
	Minted          int    `json:"minted,omitempty"`
	HistoryRecorded int    `json:"history_recorded,omitempty"`
	Branched        int    `json:"branched,omitempty"`
	Tracked         bool   `json:"tracked,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: every step applied and every
	// assertion held.
	Pass bool `json:"pass"`

	// Trace contains one entry per applied step, in order.
	Trace []StepTrace `json:"trace"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Document is the notebook after the last step.
	Document *notebook.Document `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []StepTrace{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends t with the next sequence number.
func (r *Result) AddTrace(t StepTrace) {
	t.Seq = len(r.Trace) + 1
	r.Trace = append(r.Trace, t)
}
