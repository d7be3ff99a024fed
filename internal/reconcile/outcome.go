package reconcile

import "mediadex/internal/records"

// Outcome is the per-file verdict reported to the batch driver.
type Outcome string

const (
	OutcomeInserted  Outcome = "inserted"
	OutcomeUpdated   Outcome = "updated"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeConflict  Outcome = "conflict"
	OutcomeFailed    Outcome = "failed"
)

// Outcomes lists every outcome in reporting order.
func Outcomes() []Outcome {
	return []Outcome{OutcomeInserted, OutcomeUpdated, OutcomeUnchanged, OutcomeSkipped, OutcomeConflict, OutcomeFailed}
}

// Failure reports whether the outcome counts as an item-level failure.
func (o Outcome) Failure() bool {
	return o == OutcomeConflict || o == OutcomeFailed
}

// Result is the outcome of reconciling one item. Record is the record that
// was built (and written, unless the outcome is unchanged). Warnings carries
// recoverable field, tag and enrichment errors.
type Result struct {
	Outcome  Outcome
	Kind     records.Kind
	Record   *records.Record
	Warnings []error
}
