package workflow

import "context"

// StateMachine tracks the current state and validates transitions.
// Implementations are not safe for concurrent use; callers serialize access.
type StateMachine interface {
	// State returns the current state
	State() State

	// CanFire returns true if the trigger has a transition whose guard passes
	CanFire(ctx context.Context, trigger Trigger) bool

	// Fire attempts to execute the trigger, transitioning to the new state if allowed
	Fire(ctx context.Context, trigger Trigger) error

	// PermittedTriggers returns the configured triggers of the current state, sorted
	PermittedTriggers() []Trigger
}

// TransitionFunc observes a completed transition
type TransitionFunc func(from, to State, trigger Trigger)
