package interview

import (
	"fmt"
	"time"

	"github.com/jblue-ops/atslite-sub000/internal/common/errors"
	"github.com/jblue-ops/atslite-sub000/internal/rules"
)

// Interview is one scheduled conversation between an application's
// candidate and an interviewer. An application owns its interviews;
// deleting the application cascades to them.
type Interview struct {
	ID                 string
	ApplicationID      string
	CompanyID          string
	InterviewerID      string
	ScheduledBy        *string
	Type               InterviewType
	Status             Status
	ScheduledAt        time.Time
	DurationMinutes    int
	Location           string
	VideoLink          string
	CompletedAt        *time.Time
	Decision           Decision // empty until a completed interview records one
	Rating             *int
	Feedback           string
	Notes              string
	CancellationReason *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ==========================================
// TRANSITION GUARDS
// ==========================================

// CanConfirm allows confirmation only from scheduled.
func (i *Interview) CanConfirm() bool {
	return i.Status == StatusScheduled
}

// CanComplete allows completion from scheduled or confirmed once the
// scheduled time has passed.
func (i *Interview) CanComplete(now time.Time) bool {
	return i.Status.Open() && !i.ScheduledAt.After(now)
}

// CanCancel allows cancellation from scheduled or confirmed at any time.
func (i *Interview) CanCancel() bool {
	return i.Status.Open()
}

// CanMarkNoShow allows a no-show from scheduled or confirmed once the
// scheduled time has passed.
func (i *Interview) CanMarkNoShow(now time.Time) bool {
	return i.Status.Open() && !i.ScheduledAt.After(now)
}

// CanReschedule allows rescheduling from scheduled or confirmed.
func (i *Interview) CanReschedule() bool {
	return i.Status.Open()
}

// ==========================================
// SCHEDULING QUERIES
// ==========================================

// IsUpcoming reports whether the interview is still open and in the
// future.
func (i *Interview) IsUpcoming(now time.Time) bool {
	return i.Status.Open() && i.ScheduledAt.After(now)
}

// IsOverdue reports whether the scheduled time passed while the
// interview is still open.
func (i *Interview) IsOverdue(now time.Time) bool {
	return i.Status.Open() && !i.ScheduledAt.After(now)
}

// RequiresLocation reports whether the type demands a physical location.
func (i *Interview) RequiresLocation() bool {
	return i.Type == TypeOnsite
}

// RequiresVideoLink reports whether the type demands a video link.
func (i *Interview) RequiresVideoLink() bool {
	return i.Type == TypeVideo
}

// IsRemote reports whether the interview happens off-site.
func (i *Interview) IsRemote() bool {
	return i.Type == TypePhone || i.Type == TypeVideo
}

// HasPositiveDecision reports whether the recorded verdict recommends
// the candidate.
func (i *Interview) HasPositiveDecision() bool {
	return i.Decision.Positive()
}

// HasNegativeDecision reports whether the recorded verdict recommends
// against the candidate.
func (i *Interview) HasNegativeDecision() bool {
	return i.Decision.Negative()
}

// NeedsFeedback reports whether a completed interview still lacks
// written feedback.
func (i *Interview) NeedsFeedback() bool {
	return i.Status == StatusCompleted && i.Feedback == ""
}

// ==========================================
// NORMALIZATION AND VALIDATION
// ==========================================

// AppendNote adds to the free-text notes without overwriting history.
func (i *Interview) AppendNote(note string) {
	note = rules.NormalizeText(note)
	if note == "" {
		return
	}
	if i.Notes == "" {
		i.Notes = note
		return
	}
	i.Notes = i.Notes + "\n" + note
}

// Normalize trims free-text fields and prefixes the video link with
// https:// when it lacks a scheme.
func (i *Interview) Normalize() {
	i.Location = rules.NormalizeText(i.Location)
	i.VideoLink = rules.NormalizeVideoLink(i.VideoLink)
	i.Feedback = rules.NormalizeText(i.Feedback)
	i.Notes = rules.NormalizeText(i.Notes)
	if i.CancellationReason != nil {
		reason := rules.NormalizeText(*i.CancellationReason)
		if reason == "" {
			i.CancellationReason = nil
		} else {
			i.CancellationReason = &reason
		}
	}
}

// Validate checks every field-level invariant and returns a single
// ValidationError enumerating all violations.
func (i *Interview) Validate() error {
	var violations []errors.FieldViolation

	if i.ApplicationID == "" {
		violations = append(violations, errors.Violation("application_id", errors.CodeMissingRequired, "application_id is required"))
	}
	if i.CompanyID == "" {
		violations = append(violations, errors.Violation("company_id", errors.CodeMissingRequired, "company_id is required"))
	}
	if i.InterviewerID == "" {
		violations = append(violations, errors.Violation("interviewer_id", errors.CodeMissingRequired, "interviewer_id is required"))
	}
	if !i.Status.Valid() {
		violations = append(violations, errors.Violation("status", errors.CodeInvalidStatus, fmt.Sprintf("unknown status %q", string(i.Status))))
	}
	if !i.Type.Valid() {
		violations = append(violations, errors.Violation("interview_type", errors.CodeInvalidType, fmt.Sprintf("unknown interview type %q", string(i.Type))))
	}
	if i.Decision != "" && !i.Decision.Valid() {
		violations = append(violations, errors.Violation("decision", errors.CodeInvalidDecision, fmt.Sprintf("unknown decision %q", string(i.Decision))))
	}
	if v := rules.CompletionConsistency(string(i.Status), i.CompletedAt); v != nil {
		violations = append(violations, *v)
	}
	if v := rules.DecisionRequiresCompletion(string(i.Status), string(i.Decision)); v != nil {
		violations = append(violations, *v)
	}
	if v := rules.LocationRequiredForOnsite(string(i.Type), i.Location); v != nil {
		violations = append(violations, *v)
	}
	if v := rules.VideoLinkRequiredForVideo(string(i.Type), i.VideoLink); v != nil {
		violations = append(violations, *v)
	}
	if v := rules.DurationInRange(i.DurationMinutes); v != nil {
		violations = append(violations, *v)
	}
	if v := rules.RatingInRange(i.Rating); v != nil {
		violations = append(violations, *v)
	}

	if len(violations) == 0 {
		return nil
	}
	return errors.NewValidationError(violations...)
}

// ValidateNew additionally requires a future scheduled time. The rule
// applies only at creation: reschedule may set a past time.
func (i *Interview) ValidateNew(now time.Time) error {
	err := i.Validate()
	v := rules.ScheduledAtNotInPast(i.ScheduledAt, now)
	if v == nil {
		return err
	}
	if err == nil {
		return errors.NewValidationError(*v)
	}
	verr := errors.AsValidation(err)
	return errors.NewValidationError(append(verr.Violations, *v)...)
}
