// Package pipeline implements the hiring-pipeline state machine over an
// application's status. Transitions are driven by guarded operations on
// Service; the stage set and transition table live here so position
// queries stay unit-testable without a database.
package pipeline

import (
	"fmt"

	"github.com/jblue-ops/atslite-sub000/internal/common/errors"
)

// Stage is an application's position in the hiring funnel.
type Stage string

const (
	StageApplied            Stage = "applied"
	StageScreening          Stage = "screening"
	StagePhoneInterview     Stage = "phone_interview"
	StageTechnicalInterview Stage = "technical_interview"
	StageFinalInterview     Stage = "final_interview"
	StageOffer              Stage = "offer"
	StageAccepted           Stage = "accepted"
	StageRejected           Stage = "rejected"
	StageWithdrawn          Stage = "withdrawn"
)

// stageTransitions maps each stage to the stages a guarded operation may
// move it to. Terminal stages have no outgoing moves. Backward moves
// between intermediate stages are a deliberate business rule: recruiters
// may send an application back to an earlier stage, or re-enter the
// current one.
var stageTransitions = map[Stage][]Stage{
	StageApplied: {
		StageScreening, StagePhoneInterview, StageTechnicalInterview, StageFinalInterview, StageOffer,
		StageAccepted, StageRejected, StageWithdrawn,
	},
	StageScreening: {
		StageScreening, StagePhoneInterview, StageTechnicalInterview, StageFinalInterview, StageOffer,
		StageAccepted, StageRejected, StageWithdrawn,
	},
	StagePhoneInterview: {
		StageScreening, StagePhoneInterview, StageTechnicalInterview, StageFinalInterview, StageOffer,
		StageAccepted, StageRejected, StageWithdrawn,
	},
	StageTechnicalInterview: {
		StageScreening, StagePhoneInterview, StageTechnicalInterview, StageFinalInterview, StageOffer,
		StageAccepted, StageRejected, StageWithdrawn,
	},
	StageFinalInterview: {
		StageScreening, StagePhoneInterview, StageTechnicalInterview, StageFinalInterview, StageOffer,
		StageAccepted, StageRejected, StageWithdrawn,
	},
	StageOffer: {
		StageScreening, StagePhoneInterview, StageTechnicalInterview, StageFinalInterview, StageOffer,
		StageAccepted, StageRejected, StageWithdrawn,
	},
	StageAccepted:  {},
	StageRejected:  {},
	StageWithdrawn: {},
}

// AllStages lists every stage in funnel order.
func AllStages() []Stage {
	return []Stage{
		StageApplied, StageScreening, StagePhoneInterview, StageTechnicalInterview,
		StageFinalInterview, StageOffer, StageAccepted, StageRejected, StageWithdrawn,
	}
}

// AdvanceTargets lists the intermediate stages AdvanceTo may move an
// application to. Terminal stages are reached only through their
// dedicated operations.
func AdvanceTargets() []Stage {
	return []Stage{StageScreening, StagePhoneInterview, StageTechnicalInterview, StageFinalInterview, StageOffer}
}

// ParseStage converts a raw string into a Stage.
func ParseStage(raw string) (Stage, error) {
	s := Stage(raw)
	if !s.Valid() {
		return "", errors.NewValidationError(
			errors.Violation("status", errors.CodeInvalidStage, fmt.Sprintf("unknown stage %q", raw)),
		)
	}
	return s, nil
}

// Valid reports whether the stage is part of the funnel.
func (s Stage) Valid() bool {
	_, ok := stageTransitions[s]
	return ok
}

// Terminal reports whether the stage has no outgoing transitions.
func (s Stage) Terminal() bool {
	return s == StageAccepted || s == StageRejected || s == StageWithdrawn
}

// NeedsAction reports whether a recruiter still has to triage the
// application.
func (s Stage) NeedsAction() bool {
	return s == StageApplied || s == StageScreening
}

// InInterviewStage reports whether the application sits in one of the
// interviewing stages.
func (s Stage) InInterviewStage() bool {
	return s == StagePhoneInterview || s == StageTechnicalInterview || s == StageFinalInterview
}

func (s Stage) String() string {
	return string(s)
}

// CanTransition reports whether a guarded operation may move an
// application between the two stages.
func CanTransition(from, to Stage) bool {
	for _, allowed := range stageTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
