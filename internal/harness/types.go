package harness

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true if every assertion held.
	Pass bool `json:"pass"`

	// Plan is the rendered fetch plan, the golden file payload.
	Plan string `json:"plan"`

	Paths     []string `json:"paths"`
	Depth     int      `json:"depth"`
	Truncated []string `json:"truncated"`

	// Views is the size of the registry the plan was computed against.
	Views int `json:"views"`

	// Errors contains assertion failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:      true,
		Paths:     []string{},
		Truncated: []string{},
		Errors:    []string{},
	}
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
