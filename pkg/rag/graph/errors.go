package graph

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyQuestion is returned before any stage runs
	ErrEmptyQuestion = errors.New("question must not be empty")

	// ErrMissingInput means a stage ran before the stage that feeds it.
	// This is an ordering bug, never a runtime condition to recover from.
	ErrMissingInput = errors.New("stage input missing")

	ErrInvalidGraph = errors.New("invalid graph")
)

// StageError reports which pipeline stage aborted the run
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline stage %q failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// CheckpointError reports a session store failure during a run
type CheckpointError struct {
	SessionID string
	Err       error
}

func (e *CheckpointError) Error() string {
	return fmt.Sprintf("checkpoint for session %s failed: %v", e.SessionID, e.Err)
}

func (e *CheckpointError) Unwrap() error {
	return e.Err
}
