package pipeline

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
)

const applicationColumns = `id, company_id, candidate_id, job_id, status, applied_at, stage_changed_at, stage_changed_by, rejected_at, rejection_reason, salary_offered, rating, notes, created_at, updated_at`

const (
	getApplicationQuery  = `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1 AND company_id = $2`
	lockApplicationQuery = getApplicationQuery + ` FOR UPDATE`

	listApplicationsQuery = `SELECT ` + applicationColumns + ` FROM applications WHERE company_id = $1 ORDER BY applied_at, id`

	applicationExistsQuery = `SELECT EXISTS(SELECT 1 FROM applications WHERE candidate_id = $1 AND job_id = $2)`

	insertApplicationQuery = `INSERT INTO applications (id, company_id, candidate_id, job_id, status, applied_at, notes, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	updateApplicationQuery = `UPDATE applications SET status = $1, stage_changed_at = $2, stage_changed_by = $3, rejected_at = $4, rejection_reason = $5, salary_offered = $6, rating = $7, notes = $8, updated_at = $9 WHERE id = $10 AND company_id = $11`

	insertTransitionQuery = `INSERT INTO stage_transitions (id, application_id, company_id, from_status, to_status, changed_by, note, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
)

// Service persists pipeline transitions. Every operation runs inside a
// single transaction that re-reads current state under a row lock,
// validates the proposed record, and writes the new state together with
// its stage_transitions history row.
type Service struct {
	db     *sql.DB
	logger logger.Logger
}

// NewService creates a pipeline service.
func NewService(db *sql.DB, log logger.Logger) *Service {
	return &Service{db: db, logger: log}
}

// CreateInput describes a new application. AppliedAt defaults to the
// current time when zero.
type CreateInput struct {
	CandidateID string
	JobID       string
	AppliedAt   time.Time
	Notes       string
	ActorID     string
}

// TransitionInput carries the actor and optional note shared by every
// stage-changing operation.
type TransitionInput struct {
	ActorID string
	Note    string
}

// OfferInput extends a transition with the offered salary in USD cents.
type OfferInput struct {
	ActorID string
	Salary  *int64
	Note    string
}

// CloseInput carries the reason recorded when an application is
// rejected or withdrawn.
type CloseInput struct {
	ActorID string
	Reason  string
	Note    string
}

// ==========================================
// OPERATIONS
// ==========================================

// Create registers a candidate's application in the applied stage.
func (s *Service) Create(ctx context.Context, companyID string, in CreateInput) (*Application, error) {
	defer metrics.ObserveTransitionDuration("application", time.Now())
	now := time.Now().UTC()
	appliedAt := in.AppliedAt
	if appliedAt.IsZero() {
		appliedAt = now
	}

	app := &Application{
		ID:          uuid.New().String(),
		CompanyID:   companyID,
		CandidateID: in.CandidateID,
		JobID:       in.JobID,
		Status:      StageApplied,
		AppliedAt:   appliedAt,
		Notes:       in.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	app.Normalize()
	if err := app.Validate(now); err != nil {
		metrics.PipelineTransitionsRejected.WithLabelValues(string(StageApplied), string(errors.Classify(err))).Inc()
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRowContext(ctx, applicationExistsQuery, in.CandidateID, in.JobID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check for existing application: %w", err)
	}
	if exists {
		verr := errors.NewValidationError(errors.Violation("candidate_id", errors.CodeDuplicateApplication, "candidate has already applied to this job"))
		metrics.PipelineTransitionsRejected.WithLabelValues(string(StageApplied), string(errors.ClassValidation)).Inc()
		return nil, verr
	}

	if _, err := tx.ExecContext(ctx, insertApplicationQuery,
		app.ID, app.CompanyID, app.CandidateID, app.JobID, string(app.Status),
		app.AppliedAt, app.Notes, app.CreatedAt, app.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to insert application: %w", err)
	}
	if err := insertStageTransition(ctx, tx, app, "", StageApplied, in.ActorID, "", now); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	metrics.PipelineTransitions.WithLabelValues(string(StageApplied)).Inc()
	s.logger.Info("application created", map[string]interface{}{
		"application_id": app.ID,
		"company_id":     app.CompanyID,
		"candidate_id":   app.CandidateID,
		"job_id":         app.JobID,
	})
	return app, nil
}

// AdvanceTo moves an application to one of the intermediate pipeline
// stages. Backward moves are allowed; terminal stages are not valid
// targets.
func (s *Service) AdvanceTo(ctx context.Context, companyID, applicationID string, target Stage, in TransitionInput) (*Application, error) {
	if !isAdvanceTarget(target) {
		verr := errors.NewValidationError(errors.Violation("status", errors.CodeInvalidStage,
			fmt.Sprintf("%s is not an advanceable stage", target)))
		metrics.PipelineTransitionsRejected.WithLabelValues(string(target), string(errors.ClassValidation)).Inc()
		return nil, verr
	}
	return s.transition(ctx, companyID, applicationID, target, in.ActorID, in.Note, nil)
}

// ExtendOffer moves the application to the offer stage and records the
// offered salary when given.
func (s *Service) ExtendOffer(ctx context.Context, companyID, applicationID string, in OfferInput) (*Application, error) {
	return s.transition(ctx, companyID, applicationID, StageOffer, in.ActorID, in.Note, func(app *Application, _ time.Time) {
		if in.Salary != nil {
			app.SalaryOffered = in.Salary
		}
	})
}

// AcceptOffer closes the application as hired.
func (s *Service) AcceptOffer(ctx context.Context, companyID, applicationID string, in TransitionInput) (*Application, error) {
	return s.transition(ctx, companyID, applicationID, StageAccepted, in.ActorID, in.Note, nil)
}

// Reject closes the application and stamps the rejection.
func (s *Service) Reject(ctx context.Context, companyID, applicationID string, in CloseInput) (*Application, error) {
	return s.transition(ctx, companyID, applicationID, StageRejected, in.ActorID, in.Note, func(app *Application, now time.Time) {
		app.RejectedAt = &now
		if in.Reason != "" {
			reason := in.Reason
			app.RejectionReason = &reason
		}
	})
}

// Withdraw closes the application at the candidate's request. The
// rejection_reason column doubles as the withdrawal reason.
func (s *Service) Withdraw(ctx context.Context, companyID, applicationID string, in CloseInput) (*Application, error) {
	return s.transition(ctx, companyID, applicationID, StageWithdrawn, in.ActorID, in.Note, func(app *Application, _ time.Time) {
		if in.Reason != "" {
			reason := in.Reason
			app.RejectionReason = &reason
		}
	})
}

// Get loads one application scoped to its company.
func (s *Service) Get(ctx context.Context, companyID, applicationID string) (*Application, error) {
	app, err := scanApplication(s.db.QueryRowContext(ctx, getApplicationQuery, applicationID, companyID))
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("application %s: %w", applicationID, errors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load application: %w", err)
	}
	return app, nil
}

// ListByCompany loads a company's applications ordered by applied time.
func (s *Service) ListByCompany(ctx context.Context, companyID string) ([]*Application, error) {
	rows, err := s.db.QueryContext(ctx, listApplicationsQuery, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	var applications []*Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		applications = append(applications, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read applications: %w", err)
	}
	return applications, nil
}

// ==========================================
// TRANSITION RUNNER
// ==========================================

func (s *Service) transition(ctx context.Context, companyID, applicationID string, target Stage, actorID, note string, mutate func(*Application, time.Time)) (*Application, error) {
	defer metrics.ObserveTransitionDuration("application", time.Now())
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	app, err := scanApplication(tx.QueryRowContext(ctx, lockApplicationQuery, applicationID, companyID))
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("application %s: %w", applicationID, errors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load application: %w", err)
	}

	from := app.Status
	if from.Terminal() {
		verr := errors.NewValidationError(errors.Violation("status", errors.CodeTerminalStage,
			fmt.Sprintf("application is closed in stage %s", from)))
		metrics.PipelineTransitionsRejected.WithLabelValues(string(target), string(errors.ClassValidation)).Inc()
		return nil, verr
	}
	if !CanTransition(from, target) {
		verr := errors.NewValidationError(errors.Violation("status", errors.CodeInvalidStage,
			fmt.Sprintf("no transition from %s to %s", from, target)))
		metrics.PipelineTransitionsRejected.WithLabelValues(string(target), string(errors.ClassValidation)).Inc()
		return nil, verr
	}

	app.Status = target
	app.StageChangedAt = &now
	if actorID != "" {
		app.StageChangedBy = &actorID
	}
	if mutate != nil {
		mutate(app, now)
	}
	app.AppendNote(note)
	app.UpdatedAt = now
	app.Normalize()

	if err := app.Validate(now); err != nil {
		metrics.PipelineTransitionsRejected.WithLabelValues(string(target), string(errors.Classify(err))).Inc()
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, updateApplicationQuery,
		string(app.Status), app.StageChangedAt, app.StageChangedBy, app.RejectedAt, app.RejectionReason,
		app.SalaryOffered, app.Rating, app.Notes, app.UpdatedAt, app.ID, app.CompanyID); err != nil {
		return nil, fmt.Errorf("failed to update application: %w", err)
	}
	if err := insertStageTransition(ctx, tx, app, from, target, actorID, note, now); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	metrics.PipelineTransitions.WithLabelValues(string(target)).Inc()
	s.logger.Info("application stage changed", map[string]interface{}{
		"application_id": app.ID,
		"company_id":     app.CompanyID,
		"from":           string(from),
		"to":             string(target),
	})
	return app, nil
}

func insertStageTransition(ctx context.Context, tx *sql.Tx, app *Application, from, to Stage, actorID, note string, now time.Time) error {
	var changedBy interface{}
	if actorID != "" {
		changedBy = actorID
	}
	if _, err := tx.ExecContext(ctx, insertTransitionQuery,
		uuid.New().String(), app.ID, app.CompanyID, string(from), string(to), changedBy, note, now); err != nil {
		return fmt.Errorf("failed to record stage transition: %w", err)
	}
	return nil
}

func isAdvanceTarget(target Stage) bool {
	for _, t := range AdvanceTargets() {
		if t == target {
			return true
		}
	}
	return false
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanApplication(row rowScanner) (*Application, error) {
	var (
		app             Application
		status          string
		stageChangedAt  sql.NullTime
		stageChangedBy  sql.NullString
		rejectedAt      sql.NullTime
		rejectionReason sql.NullString
		salaryOffered   sql.NullInt64
		rating          sql.NullInt64
	)
	if err := row.Scan(&app.ID, &app.CompanyID, &app.CandidateID, &app.JobID, &status,
		&app.AppliedAt, &stageChangedAt, &stageChangedBy, &rejectedAt, &rejectionReason,
		&salaryOffered, &rating, &app.Notes, &app.CreatedAt, &app.UpdatedAt); err != nil {
		return nil, err
	}
	app.Status = Stage(status)
	if stageChangedAt.Valid {
		t := stageChangedAt.Time
		app.StageChangedAt = &t
	}
	if stageChangedBy.Valid {
		v := stageChangedBy.String
		app.StageChangedBy = &v
	}
	if rejectedAt.Valid {
		t := rejectedAt.Time
		app.RejectedAt = &t
	}
	if rejectionReason.Valid {
		v := rejectionReason.String
		app.RejectionReason = &v
	}
	if salaryOffered.Valid {
		v := salaryOffered.Int64
		app.SalaryOffered = &v
	}
	if rating.Valid {
		v := int(rating.Int64)
		app.Rating = &v
	}
	return &app, nil
}
