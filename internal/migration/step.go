package migration

import "fmt"

// Step represents the wizard's position in the migration lifecycle.
type Step string

const (
	// StepDetect probes the on-device store for migratable data.
	StepDetect Step = "detect"
	// StepReview presents the detected counts for user confirmation.
	StepReview Step = "review"
	// StepBackup produces (or explicitly skips) a backup artifact.
	StepBackup Step = "backup"
	// StepMigrate transfers records to the remote service.
	StepMigrate Step = "migrate"
	// StepComplete is the terminal success state.
	StepComplete Step = "complete"
	// StepError is reachable from any non-terminal step.
	StepError Step = "error"
)

func (s Step) String() string { return string(s) }

// Terminal reports whether no further transition is possible from s.
// StepError is not terminal: the user may retry or roll back to review.
func (s Step) Terminal() bool { return s == StepComplete }

// ValidateTransition checks whether moving to target is allowed and returns
// an error if not.
func (s Step) ValidateTransition(target Step) error {
	if !s.isValidTransition(target) {
		return fmt.Errorf("invalid step transition from %s to %s", s, target)
	}
	return nil
}

// isValidTransition enforces the wizard lifecycle. The error step is
// reachable from every non-terminal step; from error the only way out is
// back to review (retry or rollback).
func (s Step) isValidTransition(target Step) bool {
	if target == StepError {
		return s != StepComplete && s != StepError
	}
	switch s {
	case StepDetect:
		return target == StepReview
	case StepReview:
		return target == StepBackup
	case StepBackup:
		return target == StepMigrate
	case StepMigrate:
		return target == StepComplete
	case StepError:
		return target == StepReview
	case StepComplete:
		return false
	default:
		return false
	}
}
