package pipeline

import (
	"fmt"
	"time"

	"github.com/jblue-ops/atslite-sub000/internal/common/errors"
	"github.com/jblue-ops/atslite-sub000/internal/rules"
)

// Application is one candidate's progress through one job's hiring
// funnel. Exactly one application exists per (candidate, job) pair.
type Application struct {
	ID              string
	CompanyID       string
	CandidateID     string
	JobID           string
	Status          Stage
	AppliedAt       time.Time
	StageChangedAt  *time.Time
	StageChangedBy  *string
	RejectedAt      *time.Time
	RejectionReason *string
	SalaryOffered   *int64 // USD cents
	Rating          *int
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Active reports whether the application is still in the funnel.
func (a *Application) Active() bool {
	return !a.Status.Terminal()
}

// Closed reports whether the application reached a terminal stage.
func (a *Application) Closed() bool {
	return a.Status.Terminal()
}

// NeedsAction reports whether the application awaits recruiter triage.
func (a *Application) NeedsAction() bool {
	return a.Status.NeedsAction()
}

// InInterviewStage reports whether the application sits in an
// interviewing stage.
func (a *Application) InInterviewStage() bool {
	return a.Status.InInterviewStage()
}

// DaysSinceApplied counts whole calendar days since the apply date.
func (a *Application) DaysSinceApplied(now time.Time) int {
	return rules.DaysBetween(a.AppliedAt, now)
}

// DaysInCurrentStage counts from the last stage change, falling back to
// the apply date for applications that have never moved.
func (a *Application) DaysInCurrentStage(now time.Time) int {
	since := a.AppliedAt
	if a.StageChangedAt != nil {
		since = *a.StageChangedAt
	}
	return rules.DaysBetween(since, now)
}

// TimeToHire returns whole days from the apply date to the final update.
// Only defined once the application is accepted.
func (a *Application) TimeToHire() (int, bool) {
	if a.Status != StageAccepted {
		return 0, false
	}
	return rules.DaysBetween(a.AppliedAt, a.UpdatedAt), true
}

// AppendNote adds to the free-text notes without overwriting history.
func (a *Application) AppendNote(note string) {
	note = rules.NormalizeText(note)
	if note == "" {
		return
	}
	if a.Notes == "" {
		a.Notes = note
		return
	}
	a.Notes = a.Notes + "\n" + note
}

// Normalize trims free-text fields before validation.
func (a *Application) Normalize() {
	a.Notes = rules.NormalizeText(a.Notes)
	if a.RejectionReason != nil {
		reason := rules.NormalizeText(*a.RejectionReason)
		if reason == "" {
			a.RejectionReason = nil
		} else {
			a.RejectionReason = &reason
		}
	}
}

// Validate checks every field-level invariant and returns a single
// ValidationError enumerating all violations. Nothing is persisted when
// any rule fails.
func (a *Application) Validate(now time.Time) error {
	var violations []errors.FieldViolation

	if a.CompanyID == "" {
		violations = append(violations, errors.Violation("company_id", errors.CodeMissingRequired, "company_id is required"))
	}
	if a.CandidateID == "" {
		violations = append(violations, errors.Violation("candidate_id", errors.CodeMissingRequired, "candidate_id is required"))
	}
	if a.JobID == "" {
		violations = append(violations, errors.Violation("job_id", errors.CodeMissingRequired, "job_id is required"))
	}
	if !a.Status.Valid() {
		violations = append(violations, errors.Violation("status", errors.CodeInvalidStage, fmt.Sprintf("unknown stage %q", string(a.Status))))
	}
	if v := rules.AppliedAtNotInFuture(a.AppliedAt, now); v != nil {
		violations = append(violations, *v)
	}
	if v := rules.RejectionConsistency(string(a.Status), a.RejectedAt); v != nil {
		violations = append(violations, *v)
	}
	if v := rules.SalaryNonNegative(a.SalaryOffered); v != nil {
		violations = append(violations, *v)
	}
	if v := rules.RatingInRange(a.Rating); v != nil {
		violations = append(violations, *v)
	}

	if len(violations) == 0 {
		return nil
	}
	return errors.NewValidationError(violations...)
}
