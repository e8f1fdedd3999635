package pipeline

import (
	"context"
	"database/sql"
	stderrors "errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jblue-ops/atslite-sub000/internal/common/errors"
	"github.com/jblue-ops/atslite-sub000/internal/common/logger"
)

var testAppliedAt = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

var applicationTestColumns = []string{
	"id", "company_id", "candidate_id", "job_id", "status", "applied_at",
	"stage_changed_at", "stage_changed_by", "rejected_at", "rejection_reason",
	"salary_offered", "rating", "notes", "created_at", "updated_at",
}

func applicationRows(status string) *sqlmock.Rows {
	return sqlmock.NewRows(applicationTestColumns).AddRow(
		"app-1", "co-1", "cand-1", "job-1", status, testAppliedAt,
		nil, nil, nil, nil, nil, nil, "", testAppliedAt, testAppliedAt,
	)
}

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewService(db, logger.NewNoOpLogger()), mock
}

func TestServiceCreate(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("cand-1", "job-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(`INSERT INTO applications`).
		WithArgs(sqlmock.AnyArg(), "co-1", "cand-1", "job-1", "applied", testAppliedAt, "", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO stage_transitions`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "co-1", "", "applied", nil, "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	app, err := svc.Create(context.Background(), "co-1", CreateInput{
		CandidateID: "cand-1",
		JobID:       "job-1",
		AppliedAt:   testAppliedAt,
	})
	require.NoError(t, err)
	assert.Equal(t, StageApplied, app.Status)
	assert.NotEmpty(t, app.ID)
	assert.Nil(t, app.StageChangedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceCreate_Duplicate(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("cand-1", "job-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), "co-1", CreateInput{
		CandidateID: "cand-1",
		JobID:       "job-1",
		AppliedAt:   testAppliedAt,
	})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	verr := errors.AsValidation(err)
	assert.True(t, verr.Has(errors.CodeDuplicateApplication))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceCreate_FutureAppliedAt(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create(context.Background(), "co-1", CreateInput{
		CandidateID: "cand-1",
		JobID:       "job-1",
		AppliedAt:   time.Now().UTC().Add(48 * time.Hour),
	})
	require.Error(t, err)
	assert.Contains(t, errors.ViolatedFields(err), "applied_at")
}

func TestServiceAdvanceTo(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM applications`).
		WithArgs("app-1", "co-1").
		WillReturnRows(applicationRows("screening"))
	mock.ExpectExec(`UPDATE applications SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO stage_transitions`).
		WithArgs(sqlmock.AnyArg(), "app-1", "co-1", "screening", "technical_interview", "user-9", "moved after phone screen", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	app, err := svc.AdvanceTo(context.Background(), "co-1", "app-1", StageTechnicalInterview, TransitionInput{
		ActorID: "user-9",
		Note:    "moved after phone screen",
	})
	require.NoError(t, err)
	assert.Equal(t, StageTechnicalInterview, app.Status)
	require.NotNil(t, app.StageChangedAt)
	require.NotNil(t, app.StageChangedBy)
	assert.Equal(t, "user-9", *app.StageChangedBy)
	assert.Equal(t, "moved after phone screen", app.Notes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceAdvanceTo_Backward(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM applications`).
		WithArgs("app-1", "co-1").
		WillReturnRows(applicationRows("final_interview"))
	mock.ExpectExec(`UPDATE applications SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO stage_transitions`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	app, err := svc.AdvanceTo(context.Background(), "co-1", "app-1", StageScreening, TransitionInput{ActorID: "user-9"})
	require.NoError(t, err)
	assert.Equal(t, StageScreening, app.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceAdvanceTo_TerminalStage(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM applications`).
		WithArgs("app-1", "co-1").
		WillReturnRows(applicationRows("accepted"))
	mock.ExpectRollback()

	_, err := svc.AdvanceTo(context.Background(), "co-1", "app-1", StageScreening, TransitionInput{ActorID: "user-9"})
	require.Error(t, err)
	verr := errors.AsValidation(err)
	require.NotNil(t, verr)
	assert.True(t, verr.Has(errors.CodeTerminalStage))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceAdvanceTo_InvalidTarget(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.AdvanceTo(context.Background(), "co-1", "app-1", StageAccepted, TransitionInput{ActorID: "user-9"})
	require.Error(t, err)
	verr := errors.AsValidation(err)
	require.NotNil(t, verr)
	assert.True(t, verr.Has(errors.CodeInvalidStage))
}

func TestServiceExtendOffer(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM applications`).
		WithArgs("app-1", "co-1").
		WillReturnRows(applicationRows("final_interview"))
	mock.ExpectExec(`UPDATE applications SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO stage_transitions`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	salary := int64(12000000)
	app, err := svc.ExtendOffer(context.Background(), "co-1", "app-1", OfferInput{ActorID: "user-9", Salary: &salary})
	require.NoError(t, err)
	assert.Equal(t, StageOffer, app.Status)
	require.NotNil(t, app.SalaryOffered)
	assert.Equal(t, salary, *app.SalaryOffered)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceExtendOffer_NegativeSalary(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM applications`).
		WithArgs("app-1", "co-1").
		WillReturnRows(applicationRows("final_interview"))
	mock.ExpectRollback()

	salary := int64(-1)
	_, err := svc.ExtendOffer(context.Background(), "co-1", "app-1", OfferInput{ActorID: "user-9", Salary: &salary})
	require.Error(t, err)
	assert.Contains(t, errors.ViolatedFields(err), "salary_offered")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceReject(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM applications`).
		WithArgs("app-1", "co-1").
		WillReturnRows(applicationRows("screening"))
	mock.ExpectExec(`UPDATE applications SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO stage_transitions`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	app, err := svc.Reject(context.Background(), "co-1", "app-1", CloseInput{ActorID: "user-9", Reason: "not a fit"})
	require.NoError(t, err)
	assert.Equal(t, StageRejected, app.Status)
	require.NotNil(t, app.RejectedAt)
	require.NotNil(t, app.RejectionReason)
	assert.Equal(t, "not a fit", *app.RejectionReason)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceWithdraw(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FROM applications`).
		WithArgs("app-1", "co-1").
		WillReturnRows(applicationRows("offer"))
	mock.ExpectExec(`UPDATE applications SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO stage_transitions`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	app, err := svc.Withdraw(context.Background(), "co-1", "app-1", CloseInput{ActorID: "user-9", Reason: "took another offer"})
	require.NoError(t, err)
	assert.Equal(t, StageWithdrawn, app.Status)
	assert.Nil(t, app.RejectedAt, "withdrawal does not stamp rejected_at")
	require.NotNil(t, app.RejectionReason)
	assert.Equal(t, "took another offer", *app.RejectionReason)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceListByCompany(t *testing.T) {
	svc, mock := newTestService(t)

	rows := sqlmock.NewRows(applicationTestColumns).
		AddRow("app-1", "co-1", "cand-1", "job-1", "screening", testAppliedAt,
			nil, nil, nil, nil, nil, nil, "", testAppliedAt, testAppliedAt).
		AddRow("app-2", "co-1", "cand-2", "job-1", "accepted", testAppliedAt.Add(time.Hour),
			nil, nil, nil, nil, nil, nil, "", testAppliedAt, testAppliedAt)
	mock.ExpectQuery(`SELECT (.+) FROM applications WHERE company_id`).
		WithArgs("co-1").
		WillReturnRows(rows)

	apps, err := svc.ListByCompany(context.Background(), "co-1")
	require.NoError(t, err)
	require.Len(t, apps, 2)
	assert.Equal(t, "app-1", apps[0].ID)
	assert.Equal(t, StageScreening, apps[0].Status)
	assert.Equal(t, StageAccepted, apps[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceGet_NotFound(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery(`SELECT (.+) FROM applications`).
		WithArgs("missing", "co-1").
		WillReturnError(sql.ErrNoRows)

	_, err := svc.Get(context.Background(), "co-1", "missing")
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}
