package program

import (
	"fmt"

	"github.com/malbeclabs/doublezero-sub004/pkg/fabric/state"
)

// Action is one edge of the canonical state-transition diagram (§4.4).
type Action uint8

const (
	ActionActivate Action = iota
	ActionReject
	ActionSuspend
	ActionResume
	ActionDelete
)

// applyLifecycle advances the shared Status template (Location, Exchange,
// Contributor, Device, AccessPass all use state.Status) and fails on any
// edge not drawn in the diagram.
func applyLifecycle(current state.Status, action Action) (state.Status, error) {
	switch action {
	case ActionActivate:
		if current != state.StatusPending {
			return current, fmt.Errorf("%w: Activate from %s", ErrInvalidStateTransition, current)
		}
		return state.StatusActivated, nil
	case ActionReject:
		if current != state.StatusPending {
			return current, fmt.Errorf("%w: Reject from %s", ErrInvalidStateTransition, current)
		}
		return state.StatusRejected, nil
	case ActionSuspend:
		if current != state.StatusActivated {
			return current, fmt.Errorf("%w: Suspend from %s", ErrInvalidStateTransition, current)
		}
		return state.StatusSuspended, nil
	case ActionResume:
		if current != state.StatusSuspended {
			return current, fmt.Errorf("%w: Resume from %s", ErrInvalidStateTransition, current)
		}
		return state.StatusActivated, nil
	case ActionDelete:
		if current != state.StatusActivated && current != state.StatusSuspended {
			return current, fmt.Errorf("%w: Delete from %s", ErrInvalidStateTransition, current)
		}
		return state.StatusDeleting, nil
	default:
		return current, fmt.Errorf("%w: unknown action", ErrInvalidStateTransition)
	}
}
