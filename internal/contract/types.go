// Package contract implements delegation contracts: creation, a forward
// -only status machine, and evaluation that emits a reputation signal.
// Status is modeled as a small closed string enum rather than an open
// string field; invalid transitions are rejected at run time by a lookup
// in the transitions table.
package contract

import "time"

// Status is the closed set of contract lifecycle states.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusEvaluated Status = "evaluated"
)

// transitions is the table of legal forward moves; anything not listed is
// an InvalidTransition, including re-evaluating an evaluated contract.
var transitions = map[Status]Status{
	StatusDraft:     StatusActive,
	StatusActive:    StatusCompleted,
	StatusCompleted: StatusEvaluated,
}

// CanTransition reports whether moving from 'from' to 'to' is a legal
// single forward step.
func CanTransition(from, to Status) bool {
	next, ok := transitions[from]
	return ok && next == to
}

// Evaluation holds the contract's scoring criteria and, once evaluated,
// its result.
type Evaluation struct {
	Criteria map[string]float64 `yaml:"criteria" json:"criteria"`
	Result   map[string]float64 `yaml:"result,omitempty" json:"result,omitempty"`
}

// Contract is a delegation contract.
type Contract struct {
	Slug         string     `yaml:"-" json:"-"`
	Status       Status     `yaml:"status" json:"status"`
	Delegator    string     `yaml:"delegator" json:"delegator"`
	Delegate     string     `yaml:"delegate" json:"delegate"`
	DelegateSlug string     `yaml:"delegateSlug" json:"delegateSlug"`
	Task         string     `yaml:"task" json:"task"`
	Evaluation   Evaluation `yaml:"evaluation" json:"evaluation"`
	CreatedAt    time.Time  `yaml:"createdAt" json:"createdAt"`
}
