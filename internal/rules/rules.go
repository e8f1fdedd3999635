// Package rules contains the pure consistency predicates shared by the
// application pipeline and the interview scheduler. Every function is
// side-effect free and returns nil when the field combination is valid,
// so each rule can be unit-tested without a database.
package rules

import (
	"fmt"
	"strings"
	"time"

	"github.com/jblue-ops/atslite-sub000/internal/common/errors"
)

const (
	statusCompleted = "completed"
	statusRejected  = "rejected"

	typeOnsite = "onsite"
	typeVideo  = "video"

	durationMin = 1
	durationMax = 480

	ratingMin = 1
	ratingMax = 5
)

func fail(field string, code errors.ErrorCode, message string) *errors.FieldViolation {
	return &errors.FieldViolation{Field: field, Code: code, Message: message}
}

// ==========================================
// TIMESTAMP CONSISTENCY
// ==========================================

// CompletionConsistency fails unless completed_at is present exactly when
// the status is completed.
func CompletionConsistency(status string, completedAt *time.Time) *errors.FieldViolation {
	if (status == statusCompleted) == (completedAt != nil) {
		return nil
	}
	if completedAt == nil {
		return fail("completed_at", errors.CodeCompletionMismatch, "completed_at must be set when status is completed")
	}
	return fail("completed_at", errors.CodeCompletionMismatch, "completed_at must be empty unless status is completed")
}

// RejectionConsistency fails unless rejected_at is present exactly when
// the status is rejected.
func RejectionConsistency(status string, rejectedAt *time.Time) *errors.FieldViolation {
	if (status == statusRejected) == (rejectedAt != nil) {
		return nil
	}
	if rejectedAt == nil {
		return fail("rejected_at", errors.CodeRejectionMismatch, "rejected_at must be set when status is rejected")
	}
	return fail("rejected_at", errors.CodeRejectionMismatch, "rejected_at must be empty unless status is rejected")
}

// ==========================================
// CONDITIONAL FIELD PRESENCE
// ==========================================

// DecisionRequiresCompletion fails when a decision is recorded on an
// interview that has not been completed.
func DecisionRequiresCompletion(status, decision string) *errors.FieldViolation {
	if decision == "" || status == statusCompleted {
		return nil
	}
	return fail("decision", errors.CodeDecisionIncomplete, "decision requires a completed interview")
}

// LocationRequiredForOnsite fails when an onsite interview has no location.
func LocationRequiredForOnsite(interviewType, location string) *errors.FieldViolation {
	if interviewType != typeOnsite || strings.TrimSpace(location) != "" {
		return nil
	}
	return fail("location", errors.CodeLocationRequired, "location is required for onsite interviews")
}

// VideoLinkRequiredForVideo fails when a video interview has no link.
func VideoLinkRequiredForVideo(interviewType, videoLink string) *errors.FieldViolation {
	if interviewType != typeVideo || strings.TrimSpace(videoLink) != "" {
		return nil
	}
	return fail("video_link", errors.CodeVideoLinkRequired, "video link is required for video interviews")
}

// ==========================================
// TEMPORAL AND RANGE BOUNDS
// ==========================================

// ScheduledAtNotInPast is enforced only when an interview is created.
// Reschedule deliberately bypasses this rule and may set a past time.
func ScheduledAtNotInPast(scheduledAt, now time.Time) *errors.FieldViolation {
	if scheduledAt.After(now) {
		return nil
	}
	return fail("scheduled_at", errors.CodeScheduledInPast, "scheduled_at must be in the future")
}

// AppliedAtNotInFuture fails when an application claims a future apply date.
func AppliedAtNotInFuture(appliedAt, now time.Time) *errors.FieldViolation {
	if !appliedAt.After(now) {
		return nil
	}
	return fail("applied_at", errors.CodeAppliedInFuture, "applied_at cannot be in the future")
}

// DurationInRange bounds an interview duration to 1-480 minutes.
func DurationInRange(minutes int) *errors.FieldViolation {
	if minutes >= durationMin && minutes <= durationMax {
		return nil
	}
	return fail("duration_minutes", errors.CodeDurationOutOfRange,
		fmt.Sprintf("duration_minutes must be between %d and %d", durationMin, durationMax))
}

// RatingInRange bounds an optional rating to 1-5.
func RatingInRange(rating *int) *errors.FieldViolation {
	if rating == nil || (*rating >= ratingMin && *rating <= ratingMax) {
		return nil
	}
	return fail("rating", errors.CodeRatingOutOfRange,
		fmt.Sprintf("rating must be between %d and %d", ratingMin, ratingMax))
}

// SalaryNonNegative bounds an optional offered salary, in USD cents.
func SalaryNonNegative(cents *int64) *errors.FieldViolation {
	if cents == nil || *cents >= 0 {
		return nil
	}
	return fail("salary_offered", errors.CodeSalaryNegative, "salary_offered cannot be negative")
}

// ==========================================
// CALENDAR ARITHMETIC
// ==========================================

// DaysBetween counts whole calendar days between two instants in UTC.
// Both the pipeline's time-to-hire and the analytics averages use this
// same day arithmetic.
func DaysBetween(from, to time.Time) int {
	from = from.UTC()
	to = to.UTC()
	fromDay := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	toDay := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(toDay.Sub(fromDay).Hours() / 24)
}

// ==========================================
// NORMALIZATION
// ==========================================

// NormalizeText trims surrounding whitespace.
func NormalizeText(s string) string {
	return strings.TrimSpace(s)
}

// NormalizeVideoLink trims the link and prefixes https:// when no scheme
// is present, so "zoom.us/j/123" becomes "https://zoom.us/j/123".
func NormalizeVideoLink(link string) string {
	link = strings.TrimSpace(link)
	if link == "" {
		return ""
	}
	if strings.Contains(link, "://") {
		return link
	}
	return "https://" + link
}
