package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jblue-ops/atslite-sub000/internal/common/errors"
	"github.com/jblue-ops/atslite-sub000/internal/common/logger"
	"github.com/jblue-ops/atslite-sub000/internal/pipeline"
)

func newAggregatorTest(t *testing.T) (*Aggregator, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewAggregator(db, nil, 0, logger.NewNoOpLogger()), mock
}

func countsRow(total, completed, cancelled, noShow int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"total", "completed", "cancelled", "no_show"}).
		AddRow(total, completed, cancelled, noShow)
}

func TestCompletionRate(t *testing.T) {
	agg, mock := newAggregatorTest(t)

	// Five interviews: two completed, one scheduled, one cancelled, one
	// no-show.
	mock.ExpectQuery(`SELECT COUNT\(\*\), COUNT\(\*\) FILTER`).
		WithArgs("co-1").
		WillReturnRows(countsRow(5, 2, 1, 1))

	rate, err := agg.CompletionRate(context.Background(), "co-1")
	require.NoError(t, err)
	assert.Equal(t, 40.0, rate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompletionRate_NoInterviews(t *testing.T) {
	agg, mock := newAggregatorTest(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\), COUNT\(\*\) FILTER`).
		WithArgs("co-1").
		WillReturnRows(countsRow(0, 0, 0, 0))

	rate, err := agg.CompletionRate(context.Background(), "co-1")
	require.NoError(t, err)
	assert.Equal(t, 0.0, rate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNoShowRate(t *testing.T) {
	agg, mock := newAggregatorTest(t)

	// Cancelled interviews leave the denominator: 1 / (5 - 1).
	mock.ExpectQuery(`SELECT COUNT\(\*\), COUNT\(\*\) FILTER`).
		WithArgs("co-1").
		WillReturnRows(countsRow(5, 2, 1, 1))

	rate, err := agg.NoShowRate(context.Background(), "co-1")
	require.NoError(t, err)
	assert.Equal(t, 25.0, rate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNoShowRate_EverythingCancelled(t *testing.T) {
	agg, mock := newAggregatorTest(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\), COUNT\(\*\) FILTER`).
		WithArgs("co-1").
		WillReturnRows(countsRow(2, 0, 2, 0))

	rate, err := agg.NoShowRate(context.Background(), "co-1")
	require.NoError(t, err)
	assert.Equal(t, 0.0, rate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAverageRating(t *testing.T) {
	agg, mock := newAggregatorTest(t)

	mock.ExpectQuery(`SELECT COALESCE\(AVG\(rating\), 0\)`).
		WithArgs("co-1").
		WillReturnRows(sqlmock.NewRows([]string{"avg"}).AddRow(4.25))

	avg, err := agg.AverageRating(context.Background(), "co-1")
	require.NoError(t, err)
	assert.Equal(t, 4.3, avg, "rounded to one decimal")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecisionBreakdown(t *testing.T) {
	agg, mock := newAggregatorTest(t)

	mock.ExpectQuery(`SELECT decision, COUNT\(\*\) FROM interviews`).
		WithArgs("co-1").
		WillReturnRows(sqlmock.NewRows([]string{"decision", "count"}).
			AddRow("yes", 2).
			AddRow("strong_yes", 1).
			AddRow("no", 1))

	breakdown, err := agg.DecisionBreakdown(context.Background(), "co-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"yes": 2, "strong_yes": 1, "no": 1}, breakdown)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTypeBreakdown(t *testing.T) {
	agg, mock := newAggregatorTest(t)

	mock.ExpectQuery(`SELECT interview_type, COUNT\(\*\) FROM interviews`).
		WithArgs("co-1").
		WillReturnRows(sqlmock.NewRows([]string{"interview_type", "count"}).
			AddRow("phone", 3).
			AddRow("technical", 2))

	breakdown, err := agg.TypeBreakdown(context.Background(), "co-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"phone": 3, "technical": 2}, breakdown)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConversionRate(t *testing.T) {
	agg, mock := newAggregatorTest(t)

	// Two applications ever reached applied, one of them reached
	// accepted.
	mock.ExpectQuery(`SELECT COUNT\(DISTINCT application_id\)`).
		WithArgs("co-1", "applied", "accepted").
		WillReturnRows(sqlmock.NewRows([]string{"from_count", "to_count"}).AddRow(2, 1))

	rate, err := agg.ConversionRate(context.Background(), "co-1", pipeline.StageApplied, pipeline.StageAccepted)
	require.NoError(t, err)
	assert.Equal(t, 50.0, rate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConversionRate_NothingReachedFrom(t *testing.T) {
	agg, mock := newAggregatorTest(t)

	mock.ExpectQuery(`SELECT COUNT\(DISTINCT application_id\)`).
		WithArgs("co-1", "offer", "accepted").
		WillReturnRows(sqlmock.NewRows([]string{"from_count", "to_count"}).AddRow(0, 0))

	rate, err := agg.ConversionRate(context.Background(), "co-1", pipeline.StageOffer, pipeline.StageAccepted)
	require.NoError(t, err)
	assert.Equal(t, 0.0, rate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConversionRate_UnknownStage(t *testing.T) {
	agg, mock := newAggregatorTest(t)

	_, err := agg.ConversionRate(context.Background(), "co-1", pipeline.Stage("reviewing"), pipeline.StageAccepted)
	require.Error(t, err)

	verr := errors.AsValidation(err)
	require.NotNil(t, verr)
	assert.True(t, verr.Has(errors.CodeInvalidStage))
	assert.Equal(t, []string{"from_status"}, verr.Fields())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAverageTimeToHire(t *testing.T) {
	agg, mock := newAggregatorTest(t)

	mock.ExpectQuery(`SELECT applied_at, updated_at FROM applications`).
		WithArgs("co-1").
		WillReturnRows(sqlmock.NewRows([]string{"applied_at", "updated_at"}).
			AddRow(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), time.Date(2024, 1, 15, 16, 0, 0, 0, time.UTC)).
			AddRow(time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC), time.Date(2024, 2, 8, 17, 30, 0, 0, time.UTC)))

	days, err := agg.AverageTimeToHire(context.Background(), "co-1")
	require.NoError(t, err)
	assert.Equal(t, 10.5, days, "mean of 14 and 7 whole days")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAverageTimeToHire_NoAcceptedApplications(t *testing.T) {
	agg, mock := newAggregatorTest(t)

	mock.ExpectQuery(`SELECT applied_at, updated_at FROM applications`).
		WithArgs("co-1").
		WillReturnRows(sqlmock.NewRows([]string{"applied_at", "updated_at"}))

	days, err := agg.AverageTimeToHire(context.Background(), "co-1")
	require.NoError(t, err)
	assert.Equal(t, 0.0, days)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStageCounts(t *testing.T) {
	agg, mock := newAggregatorTest(t)

	mock.ExpectQuery(`SELECT status, COUNT\(\*\) FROM applications`).
		WithArgs("co-1").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("applied", 4).
			AddRow("offer", 1))

	counts, err := agg.StageCounts(context.Background(), "co-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"applied": 4, "offer": 1}, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}
