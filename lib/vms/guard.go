package vms

import "fmt"

// decision is the transition guard's verdict on a requested action given
// the observed state. A non-nil err means the request is rejected and no
// mutating call may be issued.
type decision struct {
	outcome Outcome
	message string
	// stopFirst marks a forced delete of a running guest: a stop must be
	// submitted and complete its own round trip before the delete goes out.
	stopFirst bool
	err       error
}

// guard evaluates the transition table. It is pure: no network calls, no
// side effects, same inputs always produce the same verdict.
//
//	            start     stop      shutdown  reset     delete     delete(force)
//	running     noop      submit    submit    submit    reject     submit(stop first)
//	stopped     submit    noop      noop      reject    submit     submit
//	unknown     submit    submit    submit    reject    reject     submit
func guard(status Status, action Action, force bool) decision {
	switch action {
	case ActionStart:
		if status == StatusRunning {
			return decision{outcome: OutcomeNoop, message: "already running"}
		}
		return decision{outcome: OutcomeSubmitted}

	case ActionStop, ActionShutdown:
		if status == StatusStopped {
			return decision{outcome: OutcomeNoop, message: "already stopped"}
		}
		return decision{outcome: OutcomeSubmitted}

	case ActionReset:
		if status != StatusRunning {
			return decision{err: fmt.Errorf("%w: cannot reset a %s vm, it must be running", ErrInvalidState, status)}
		}
		return decision{outcome: OutcomeSubmitted}

	case ActionDelete:
		switch status {
		case StatusRunning:
			if !force {
				return decision{err: fmt.Errorf("%w: vm is running, stop it first or set force", ErrInvalidState)}
			}
			return decision{outcome: OutcomeSubmitted, stopFirst: true}
		case StatusStopped:
			return decision{outcome: OutcomeSubmitted}
		default:
			if !force {
				return decision{err: fmt.Errorf("%w: vm state is unknown, set force to delete anyway", ErrInvalidState)}
			}
			return decision{outcome: OutcomeSubmitted}
		}
	}

	return decision{err: fmt.Errorf("%w: unsupported action %q", ErrInvalidState, action)}
}
