package pipeline

import (
	"context"
	"fmt"
)

// Executor is one pipeline stage. Execute receives the accumulated state and
// returns a new state with the stage's output written and Next set to one of
// the stage's two legal destinations.
type Executor interface {
	Stage() Stage
	Execute(ctx context.Context, st *State) *State
}

// Route validates the destination an executor chose. Executors own the
// success/error decision; the router only enforces the transition table.
// An illegal destination is an internal consistency fault and is mapped to
// the Error stage with a system-category error appended.
func Route(executed Stage, st *State) *State {
	if LegalTransition(executed, st.Next) {
		return st
	}

	routed := st.Clone()
	routed.AddError(fmt.Sprintf(
		"system invariant violated: stage %s selected illegal transition to %s", executed, st.Next))
	routed.Next = StageError
	if executed == StageError {
		// The error stage has no error edge of its own; force termination.
		routed.Next = StageDone
		routed.Succeeded = false
	}
	return routed
}

// Limits holds the request bounds the orchestrator and validate stage enforce.
type Limits struct {
	// MinInputLength is the minimum accepted request text length in runes.
	MinInputLength int

	// MaxInputLength is the maximum accepted request text length in runes.
	MaxInputLength int

	// MaxAttendees caps the extracted attendee count.
	MaxAttendees int

	// BudgetFloor is the minimum budget in minor currency units.
	BudgetFloor int
}

// DefaultLimits returns the limits used when no configuration is supplied.
func DefaultLimits() Limits {
	return Limits{
		MinInputLength: 10,
		MaxInputLength: 5000,
		MaxAttendees:   10000,
		BudgetFloor:    1000,
	}
}
