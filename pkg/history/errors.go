package history

import (
	"errors"
	"fmt"
)

var (
	// ErrHistoryWriteFailed marks a history record that could not be stored
	// after its state change was committed.
	ErrHistoryWriteFailed = errors.New("history.write_failed")

	// ErrRecordNotFound is returned for unknown record ids.
	ErrRecordNotFound = errors.New("history.record_not_found")

	// ErrStagingFailed is returned when staged metadata cannot be read or cleared.
	ErrStagingFailed = errors.New("history.staging_failed")

	// ErrCommitFailed wraps the error of the state mutation passed to TransitionTo.
	ErrCommitFailed = errors.New("history.commit_failed")
)

// ErrHistoryWrite is the secondary failure reported when the state mutation
// already committed but its history record was not stored. The mutation is
// not rolled back; callers decide on compensation.
type ErrHistoryWrite struct {
	Commit Commit
	Err    error
}

func (e *ErrHistoryWrite) Error() string {
	return fmt.Sprintf("failed to record transition '%s' -> '%s' of %s: %v",
		e.Commit.FromState, e.Commit.ToState, e.Commit.Model, e.Err)
}

// Unwrap exposes both ErrHistoryWriteFailed and the storage error.
func (e *ErrHistoryWrite) Unwrap() []error {
	return []error{ErrHistoryWriteFailed, e.Err}
}

func NewErrHistoryWrite(c Commit, err error) *ErrHistoryWrite {
	return &ErrHistoryWrite{
		Commit: c,
		Err:    err,
	}
}

func IsHistoryWriteError(err error) bool {
	var e *ErrHistoryWrite
	return errors.As(err, &e)
}
