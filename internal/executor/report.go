package executor

import (
	"time"

	"github.com/gitgoal/gitgoal/internal/errors"
)

// Status is the terminal outcome of an execution.
type Status string

const (
	StatusGoalReached      Status = "goal_reached"
	StatusAborted          Status = "aborted"
	StatusExhaustedReplans Status = "exhausted_replans"
	StatusFatal            Status = "fatal"
)

// Record is one structured report entry. Serialization to a machine form is
// the logging collaborator's job; the core only produces the records.
type Record struct {
	Timestamp     time.Time
	Level         string
	CorrelationID int
	Action        string
	PredictedStateDigest string
	ObservedStateDigest  string
	ExitCode      int
	Message       string
}

// Report is the full outcome of one Execute call.
type Report struct {
	// RunID uniquely identifies this execution across log streams.
	RunID   string
	Status  Status
	Records []Record
	// Err carries the structural error that ended the run, if any.
	Err error
}

// ExitCode maps the report to the process exit code contract: 0 goal
// reached, 1 exhausted replans, 2 fatal, 3 no plan, 4 environment missing.
func (r *Report) ExitCode() int {
	if r.Err != nil {
		return errors.ExitCode(r.Err)
	}
	switch r.Status {
	case StatusGoalReached:
		return errors.ExitGoalReached
	case StatusExhaustedReplans:
		return errors.ExitExhaustedReplans
	default:
		return errors.ExitFatal
	}
}
