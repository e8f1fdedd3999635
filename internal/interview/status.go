// Package interview implements the scheduling state machine over an
// interview's status. Transition operations check their preconditions
// and report failures as precondition errors rather than validation
// errors; the status set, transition table, and per-type defaults live
// here so guard predicates stay unit-testable without a database.
package interview

import (
	"fmt"

	"github.com/jblue-ops/atslite-sub000/internal/common/errors"
)

// Status is an interview's scheduling state.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
)

// InterviewType classifies how the interview is conducted.
type InterviewType string

const (
	TypePhone      InterviewType = "phone"
	TypeVideo      InterviewType = "video"
	TypeOnsite     InterviewType = "onsite"
	TypeTechnical  InterviewType = "technical"
	TypeBehavioral InterviewType = "behavioral"
	TypePanel      InterviewType = "panel"
)

// Decision is the interviewer's verdict, recordable only once the
// interview is completed.
type Decision string

const (
	DecisionStrongYes Decision = "strong_yes"
	DecisionYes       Decision = "yes"
	DecisionMaybe     Decision = "maybe"
	DecisionNo        Decision = "no"
	DecisionStrongNo  Decision = "strong_no"
)

// statusTransitions maps each status to the statuses a guarded operation
// may move it to. Terminal statuses have no outgoing moves. scheduled ->
// scheduled covers reschedule, which resets the timer without changing
// state.
var statusTransitions = map[Status][]Status{
	StatusScheduled: {StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow},
	StatusConfirmed: {StatusScheduled, StatusCompleted, StatusCancelled, StatusNoShow},
	StatusCompleted: {},
	StatusCancelled: {},
	StatusNoShow:    {},
}

// defaultDurations is assigned once at creation when no duration is
// supplied, never overwritten afterwards.
var defaultDurations = map[InterviewType]int{
	TypePhone:      30,
	TypeVideo:      45,
	TypeTechnical:  90,
	TypePanel:      90,
	TypeBehavioral: 60,
	TypeOnsite:     60,
}

// DefaultDuration returns the default length in minutes for an
// interview type.
func DefaultDuration(t InterviewType) int {
	if d, ok := defaultDurations[t]; ok {
		return d
	}
	return 60
}

// ParseStatus converts a raw string into a Status.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", errors.NewValidationError(
			errors.Violation("status", errors.CodeInvalidStatus, fmt.Sprintf("unknown status %q", raw)),
		)
	}
	return s, nil
}

// ParseInterviewType converts a raw string into an InterviewType.
func ParseInterviewType(raw string) (InterviewType, error) {
	t := InterviewType(raw)
	if !t.Valid() {
		return "", errors.NewValidationError(
			errors.Violation("interview_type", errors.CodeInvalidType, fmt.Sprintf("unknown interview type %q", raw)),
		)
	}
	return t, nil
}

// ParseDecision converts a raw string into a Decision. Empty input is
// valid and means no decision has been recorded.
func ParseDecision(raw string) (Decision, error) {
	if raw == "" {
		return "", nil
	}
	d := Decision(raw)
	if !d.Valid() {
		return "", errors.NewValidationError(
			errors.Violation("decision", errors.CodeInvalidDecision, fmt.Sprintf("unknown decision %q", raw)),
		)
	}
	return d, nil
}

// Valid reports whether the status is part of the scheduling lifecycle.
func (s Status) Valid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// Terminal reports whether the status has no outgoing transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusNoShow
}

// Open reports whether the interview can still move: scheduled or
// confirmed.
func (s Status) Open() bool {
	return s == StatusScheduled || s == StatusConfirmed
}

func (s Status) String() string {
	return string(s)
}

// Valid reports whether the type is a known interview type.
func (t InterviewType) Valid() bool {
	_, ok := defaultDurations[t]
	return ok
}

func (t InterviewType) String() string {
	return string(t)
}

// Valid reports whether the decision is a known verdict.
func (d Decision) Valid() bool {
	switch d {
	case DecisionStrongYes, DecisionYes, DecisionMaybe, DecisionNo, DecisionStrongNo:
		return true
	}
	return false
}

// Positive reports whether the decision recommends the candidate.
func (d Decision) Positive() bool {
	return d == DecisionStrongYes || d == DecisionYes
}

// Negative reports whether the decision recommends against the
// candidate.
func (d Decision) Negative() bool {
	return d == DecisionNo || d == DecisionStrongNo
}

func (d Decision) String() string {
	return string(d)
}

// CanTransition reports whether a guarded operation may move an
// interview between the two statuses. Time preconditions are checked
// separately by the entity guards.
func CanTransition(from, to Status) bool {
	for _, allowed := range statusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
