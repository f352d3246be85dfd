// Job posting lifecycle.
//
// Valid status graph:
//
//	DRAFT ──► OPEN ◄──► PAUSED
//	            │
//	            ▼
//	         FILLED
//
// Every non-terminal status may also move to CLOSED. CLOSED is terminal.
package model

import "fmt"

// JobStatus values mirror the job_status enum in PostgreSQL.
type JobStatus string

const (
	StatusDraft  JobStatus = "DRAFT"
	StatusOpen   JobStatus = "OPEN"
	StatusPaused JobStatus = "PAUSED"
	StatusFilled JobStatus = "FILLED"
	StatusClosed JobStatus = "CLOSED"
)

// validTransitions lists every allowed (from → to) pair.
var validTransitions = map[JobStatus][]JobStatus{
	StatusDraft:  {StatusOpen, StatusClosed},
	StatusOpen:   {StatusPaused, StatusFilled, StatusClosed},
	StatusPaused: {StatusOpen, StatusClosed},
	StatusFilled: {StatusClosed},
	// CLOSED is terminal — no outgoing transitions
}

// ParseJobStatus converts a raw string to a JobStatus, returning an error
// for unknown values.
func ParseJobStatus(s string) (JobStatus, error) {
	st := JobStatus(s)
	switch st {
	case StatusDraft, StatusOpen, StatusPaused, StatusFilled, StatusClosed:
		return st, nil
	}
	return "", fmt.Errorf("unknown job status %q", s)
}

// IsTransitionAllowed returns true when moving from → to is permitted by the
// lifecycle graph.
func IsTransitionAllowed(from, to JobStatus) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false // terminal state — no outgoing transitions
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// IsSearchable returns true when a posting in this status appears in
// proximity search results.
func IsSearchable(s JobStatus) bool { return s == StatusOpen }
