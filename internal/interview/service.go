package interview

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jblue-ops/atslite-sub000/internal/common/errors"
	"github.com/jblue-ops/atslite-sub000/internal/common/logger"
	"github.com/jblue-ops/atslite-sub000/internal/common/metrics"
	"github.com/jblue-ops/atslite-sub000/internal/rules"
)

const interviewColumns = `id, application_id, company_id, interviewer_id, scheduled_by, interview_type, status, scheduled_at, duration_minutes, location, video_link, completed_at, decision, rating, feedback, notes, cancellation_reason, created_at, updated_at`

const (
	getInterviewQuery = `SELECT ` + interviewColumns + ` FROM interviews WHERE id = $1 AND company_id = $2`

	listInterviewsQuery = `SELECT ` + interviewColumns + ` FROM interviews WHERE application_id = $1 AND company_id = $2 ORDER BY scheduled_at`

	insertInterviewQuery = `INSERT INTO interviews (` + interviewColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

	// The transition updates re-check their status and time preconditions
	// in the WHERE clause, so two concurrent callers cannot both win.
	confirmQuery = `UPDATE interviews SET status = $1, updated_at = $2 WHERE id = $3 AND company_id = $4 AND status = 'scheduled'`

	completeQuery = `UPDATE interviews SET status = $1, completed_at = $2, decision = $3, rating = $4, feedback = $5, notes = $6, updated_at = $7 WHERE id = $8 AND company_id = $9 AND status IN ('scheduled', 'confirmed') AND scheduled_at <= $10`

	cancelQuery = `UPDATE interviews SET status = $1, cancellation_reason = $2, updated_at = $3 WHERE id = $4 AND company_id = $5 AND status IN ('scheduled', 'confirmed')`

	noShowQuery = `UPDATE interviews SET status = $1, notes = $2, updated_at = $3 WHERE id = $4 AND company_id = $5 AND status IN ('scheduled', 'confirmed') AND scheduled_at <= $6`

	rescheduleQuery = `UPDATE interviews SET status = $1, scheduled_at = $2, scheduled_by = COALESCE($3, scheduled_by), cancellation_reason = NULL, notes = $4, updated_at = $5 WHERE id = $6 AND company_id = $7 AND status IN ('scheduled', 'confirmed')`
)

const (
	actionSchedule   = "schedule"
	actionConfirm    = "confirm"
	actionComplete   = "complete"
	actionCancel     = "cancel"
	actionNoShow     = "mark_no_show"
	actionReschedule = "reschedule"
)

// ParticipantGuard verifies that the application belongs to the caller's
// company and that every named participant belongs to the same company.
// The map keys are participant field names ("interviewer_id",
// "scheduled_by") so violations can name the offending field.
type ParticipantGuard interface {
	CheckParticipants(ctx context.Context, companyID, applicationID string, participants map[string]string) error
}

// Service persists scheduler transitions. Each operation evaluates its
// guard on the loaded record for a precise error, then re-checks the
// precondition atomically through a compare-and-swap update.
type Service struct {
	db     *sql.DB
	logger logger.Logger
	guard  ParticipantGuard
	hook   TransitionHook
}

// NewService creates a scheduler service. A nil hook disables the
// after-transition callback.
func NewService(db *sql.DB, log logger.Logger, guard ParticipantGuard, hook TransitionHook) *Service {
	if hook == nil {
		hook = NoopHook{}
	}
	return &Service{db: db, logger: log, guard: guard, hook: hook}
}

// ScheduleInput describes a new interview. DurationMinutes defaults by
// type when zero; ScheduledBy is optional.
type ScheduleInput struct {
	ApplicationID   string
	InterviewerID   string
	ScheduledBy     string
	Type            InterviewType
	ScheduledAt     time.Time
	DurationMinutes int
	Location        string
	VideoLink       string
	Notes           string
}

// CompleteInput records the outcome of a finished interview.
type CompleteInput struct {
	Feedback string
	Rating   *int
	Decision Decision
	Notes    string
}

// CancelInput carries the optional cancellation reason.
type CancelInput struct {
	Reason string
}

// NoShowInput carries the optional note recorded with a no-show.
type NoShowInput struct {
	Notes string
}

// RescheduleInput moves an interview to a new time. NewTime may be in
// the past: the forward-time rule applies only at creation.
type RescheduleInput struct {
	NewTime   time.Time
	ChangedBy string
	Reason    string
}

// ==========================================
// OPERATIONS
// ==========================================

// Schedule creates an interview in the scheduled status. The scheduled
// time must be in the future and every participant must belong to the
// application's company.
func (s *Service) Schedule(ctx context.Context, companyID string, in ScheduleInput) (*Interview, error) {
	now := time.Now().UTC()
	defer metrics.ObserveTransitionDuration("interview", now)

	iv := &Interview{
		ID:              uuid.New().String(),
		ApplicationID:   in.ApplicationID,
		CompanyID:       companyID,
		InterviewerID:   in.InterviewerID,
		Type:            in.Type,
		Status:          StatusScheduled,
		ScheduledAt:     in.ScheduledAt,
		DurationMinutes: in.DurationMinutes,
		Location:        in.Location,
		VideoLink:       in.VideoLink,
		Notes:           in.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if in.ScheduledBy != "" {
		scheduledBy := in.ScheduledBy
		iv.ScheduledBy = &scheduledBy
	}
	if iv.DurationMinutes == 0 {
		iv.DurationMinutes = DefaultDuration(in.Type)
	}

	iv.Normalize()
	if err := iv.ValidateNew(now); err != nil {
		metrics.InterviewTransitionsRejected.WithLabelValues(actionSchedule, string(errors.Classify(err))).Inc()
		return nil, err
	}

	participants := map[string]string{"interviewer_id": in.InterviewerID}
	if in.ScheduledBy != "" {
		participants["scheduled_by"] = in.ScheduledBy
	}
	if err := s.guard.CheckParticipants(ctx, companyID, in.ApplicationID, participants); err != nil {
		metrics.InterviewTransitionsRejected.WithLabelValues(actionSchedule, string(errors.Classify(err))).Inc()
		return nil, err
	}

	if _, err := s.db.ExecContext(ctx, insertInterviewQuery,
		iv.ID, iv.ApplicationID, iv.CompanyID, iv.InterviewerID, iv.ScheduledBy,
		string(iv.Type), string(iv.Status), iv.ScheduledAt, iv.DurationMinutes,
		iv.Location, iv.VideoLink, iv.CompletedAt, nullableString(string(iv.Decision)),
		iv.Rating, iv.Feedback, iv.Notes, iv.CancellationReason, iv.CreatedAt, iv.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to insert interview: %w", err)
	}

	metrics.InterviewTransitions.WithLabelValues(actionSchedule).Inc()
	s.logger.Info("interview scheduled", map[string]interface{}{
		"interview_id":   iv.ID,
		"application_id": iv.ApplicationID,
		"company_id":     iv.CompanyID,
		"interview_type": string(iv.Type),
		"scheduled_at":   iv.ScheduledAt,
	})
	s.hook.AfterTransition(ctx, iv, actionSchedule)
	return iv, nil
}

// Confirm moves a scheduled interview to confirmed.
func (s *Service) Confirm(ctx context.Context, companyID, interviewID string) (*Interview, error) {
	now := time.Now().UTC()
	defer metrics.ObserveTransitionDuration("interview", now)

	iv, err := s.Get(ctx, companyID, interviewID)
	if err != nil {
		return nil, err
	}
	if !iv.CanConfirm() {
		return nil, s.reject(actionConfirm, iv.Status, "only a scheduled interview can be confirmed")
	}

	res, err := s.db.ExecContext(ctx, confirmQuery, string(StatusConfirmed), now, interviewID, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to confirm interview: %w", err)
	}
	if changed, _ := res.RowsAffected(); changed == 0 {
		return nil, s.reject(actionConfirm, iv.Status, "interview changed concurrently")
	}

	iv.Status = StatusConfirmed
	iv.UpdatedAt = now
	s.finish(ctx, iv, actionConfirm)
	return iv, nil
}

// Complete closes an interview that has taken place and records its
// outcome. Completing an interview whose scheduled time is still in the
// future fails and changes nothing.
func (s *Service) Complete(ctx context.Context, companyID, interviewID string, in CompleteInput) (*Interview, error) {
	now := time.Now().UTC()
	defer metrics.ObserveTransitionDuration("interview", now)

	iv, err := s.Get(ctx, companyID, interviewID)
	if err != nil {
		return nil, err
	}
	prior := iv.Status
	if !iv.CanComplete(now) {
		reason := "interview already closed"
		if prior.Open() {
			reason = "scheduled time has not passed yet"
		}
		return nil, s.reject(actionComplete, prior, reason)
	}

	iv.Status = StatusCompleted
	iv.CompletedAt = &now
	iv.Decision = in.Decision
	if in.Rating != nil {
		iv.Rating = in.Rating
	}
	if in.Feedback != "" {
		iv.Feedback = in.Feedback
	}
	iv.AppendNote(in.Notes)
	iv.UpdatedAt = now
	iv.Normalize()

	if err := iv.Validate(); err != nil {
		metrics.InterviewTransitionsRejected.WithLabelValues(actionComplete, string(errors.Classify(err))).Inc()
		return nil, err
	}

	res, err := s.db.ExecContext(ctx, completeQuery,
		string(StatusCompleted), iv.CompletedAt, nullableString(string(iv.Decision)), iv.Rating,
		iv.Feedback, iv.Notes, iv.UpdatedAt, interviewID, companyID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to complete interview: %w", err)
	}
	if changed, _ := res.RowsAffected(); changed == 0 {
		return nil, s.reject(actionComplete, prior, "interview changed concurrently")
	}

	s.finish(ctx, iv, actionComplete)
	return iv, nil
}

// Cancel closes an open interview. No time precondition applies.
func (s *Service) Cancel(ctx context.Context, companyID, interviewID string, in CancelInput) (*Interview, error) {
	now := time.Now().UTC()
	defer metrics.ObserveTransitionDuration("interview", now)

	iv, err := s.Get(ctx, companyID, interviewID)
	if err != nil {
		return nil, err
	}
	prior := iv.Status
	if !iv.CanCancel() {
		return nil, s.reject(actionCancel, prior, "interview already closed")
	}

	iv.Status = StatusCancelled
	if reason := rules.NormalizeText(in.Reason); reason != "" {
		iv.CancellationReason = &reason
	}
	iv.UpdatedAt = now

	res, err := s.db.ExecContext(ctx, cancelQuery, string(StatusCancelled), iv.CancellationReason, now, interviewID, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel interview: %w", err)
	}
	if changed, _ := res.RowsAffected(); changed == 0 {
		return nil, s.reject(actionCancel, prior, "interview changed concurrently")
	}

	s.finish(ctx, iv, actionCancel)
	return iv, nil
}

// MarkNoShow closes an open interview whose scheduled time passed
// without the candidate appearing.
func (s *Service) MarkNoShow(ctx context.Context, companyID, interviewID string, in NoShowInput) (*Interview, error) {
	now := time.Now().UTC()
	defer metrics.ObserveTransitionDuration("interview", now)

	iv, err := s.Get(ctx, companyID, interviewID)
	if err != nil {
		return nil, err
	}
	prior := iv.Status
	if !iv.CanMarkNoShow(now) {
		reason := "interview already closed"
		if prior.Open() {
			reason = "scheduled time has not passed yet"
		}
		return nil, s.reject(actionNoShow, prior, reason)
	}

	iv.Status = StatusNoShow
	iv.AppendNote(in.Notes)
	iv.UpdatedAt = now

	res, err := s.db.ExecContext(ctx, noShowQuery, string(StatusNoShow), iv.Notes, now, interviewID, companyID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to mark interview as no-show: %w", err)
	}
	if changed, _ := res.RowsAffected(); changed == 0 {
		return nil, s.reject(actionNoShow, prior, "interview changed concurrently")
	}

	s.finish(ctx, iv, actionNoShow)
	return iv, nil
}

// Reschedule returns an open interview to scheduled at a new time and
// clears any cancellation state. The new time may be in the past.
func (s *Service) Reschedule(ctx context.Context, companyID, interviewID string, in RescheduleInput) (*Interview, error) {
	now := time.Now().UTC()
	defer metrics.ObserveTransitionDuration("interview", now)

	if in.NewTime.IsZero() {
		verr := errors.NewValidationError(errors.Violation("scheduled_at", errors.CodeMissingRequired, "scheduled_at is required"))
		metrics.InterviewTransitionsRejected.WithLabelValues(actionReschedule, string(errors.ClassValidation)).Inc()
		return nil, verr
	}

	iv, err := s.Get(ctx, companyID, interviewID)
	if err != nil {
		return nil, err
	}
	prior := iv.Status
	if !iv.CanReschedule() {
		return nil, s.reject(actionReschedule, prior, "interview already closed")
	}

	if in.ChangedBy != "" {
		if err := s.guard.CheckParticipants(ctx, companyID, iv.ApplicationID, map[string]string{"scheduled_by": in.ChangedBy}); err != nil {
			metrics.InterviewTransitionsRejected.WithLabelValues(actionReschedule, string(errors.Classify(err))).Inc()
			return nil, err
		}
	}

	iv.Status = StatusScheduled
	iv.ScheduledAt = in.NewTime
	if in.ChangedBy != "" {
		changedBy := in.ChangedBy
		iv.ScheduledBy = &changedBy
	}
	iv.CancellationReason = nil
	iv.AppendNote(in.Reason)
	iv.UpdatedAt = now

	res, err := s.db.ExecContext(ctx, rescheduleQuery,
		string(StatusScheduled), iv.ScheduledAt, nullableString(in.ChangedBy), iv.Notes, now, interviewID, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to reschedule interview: %w", err)
	}
	if changed, _ := res.RowsAffected(); changed == 0 {
		return nil, s.reject(actionReschedule, prior, "interview changed concurrently")
	}

	s.finish(ctx, iv, actionReschedule)
	return iv, nil
}

// Get loads one interview scoped to its company.
func (s *Service) Get(ctx context.Context, companyID, interviewID string) (*Interview, error) {
	iv, err := scanInterview(s.db.QueryRowContext(ctx, getInterviewQuery, interviewID, companyID))
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("interview %s: %w", interviewID, errors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load interview: %w", err)
	}
	return iv, nil
}

// ListByApplication loads an application's interviews ordered by
// scheduled time.
func (s *Service) ListByApplication(ctx context.Context, companyID, applicationID string) ([]*Interview, error) {
	rows, err := s.db.QueryContext(ctx, listInterviewsQuery, applicationID, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list interviews: %w", err)
	}
	defer rows.Close()

	var interviews []*Interview
	for rows.Next() {
		iv, err := scanInterview(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan interview: %w", err)
		}
		interviews = append(interviews, iv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read interviews: %w", err)
	}
	return interviews, nil
}

// ==========================================
// HELPERS
// ==========================================

func (s *Service) reject(action string, status Status, reason string) error {
	err := errors.NewPreconditionError(action, string(status), reason)
	metrics.InterviewTransitionsRejected.WithLabelValues(action, string(errors.ClassPrecondition)).Inc()
	s.logger.Warn("interview transition rejected", map[string]interface{}{
		"action": action,
		"status": string(status),
		"reason": reason,
	})
	return err
}

func (s *Service) finish(ctx context.Context, iv *Interview, action string) {
	metrics.InterviewTransitions.WithLabelValues(action).Inc()
	s.logger.Info("interview transition applied", map[string]interface{}{
		"interview_id":   iv.ID,
		"application_id": iv.ApplicationID,
		"company_id":     iv.CompanyID,
		"action":         action,
		"status":         string(iv.Status),
	})
	s.hook.AfterTransition(ctx, iv, action)
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanInterview(row rowScanner) (*Interview, error) {
	var (
		iv                 Interview
		scheduledBy        sql.NullString
		interviewType      string
		status             string
		location           sql.NullString
		videoLink          sql.NullString
		completedAt        sql.NullTime
		decision           sql.NullString
		rating             sql.NullInt64
		cancellationReason sql.NullString
	)
	if err := row.Scan(&iv.ID, &iv.ApplicationID, &iv.CompanyID, &iv.InterviewerID, &scheduledBy,
		&interviewType, &status, &iv.ScheduledAt, &iv.DurationMinutes, &location, &videoLink,
		&completedAt, &decision, &rating, &iv.Feedback, &iv.Notes, &cancellationReason,
		&iv.CreatedAt, &iv.UpdatedAt); err != nil {
		return nil, err
	}
	iv.Type = InterviewType(interviewType)
	iv.Status = Status(status)
	iv.Location = location.String
	iv.VideoLink = videoLink.String
	iv.Decision = Decision(decision.String)
	if scheduledBy.Valid {
		v := scheduledBy.String
		iv.ScheduledBy = &v
	}
	if completedAt.Valid {
		t := completedAt.Time
		iv.CompletedAt = &t
	}
	if rating.Valid {
		v := int(rating.Int64)
		iv.Rating = &v
	}
	if cancellationReason.Valid {
		v := cancellationReason.String
		iv.CancellationReason = &v
	}
	return &iv, nil
}
