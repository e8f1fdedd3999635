// Package analytics computes read-only hiring metrics over the
// persisted corpus. Nothing here mutates state; every figure is
// recomputed from rows on demand, with an optional redis cache in
// front of the bundled summaries.
package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jblue-ops/atslite-sub000/internal/common/errors"
	"github.com/jblue-ops/atslite-sub000/internal/common/logger"
	"github.com/jblue-ops/atslite-sub000/internal/pipeline"
	"github.com/jblue-ops/atslite-sub000/internal/rules"
)

const (
	interviewCountsQuery = `SELECT COUNT(*), COUNT(*) FILTER (WHERE status = 'completed'), COUNT(*) FILTER (WHERE status = 'cancelled'), COUNT(*) FILTER (WHERE status = 'no_show') FROM interviews WHERE company_id = $1`

	averageRatingQuery = `SELECT COALESCE(AVG(rating), 0) FROM interviews WHERE company_id = $1 AND status = 'completed' AND rating IS NOT NULL`

	decisionBreakdownQuery = `SELECT decision, COUNT(*) FROM interviews WHERE company_id = $1 AND status = 'completed' AND decision IS NOT NULL GROUP BY decision`

	typeBreakdownQuery = `SELECT interview_type, COUNT(*) FROM interviews WHERE company_id = $1 GROUP BY interview_type`

	stageCountsQuery = `SELECT status, COUNT(*) FROM applications WHERE company_id = $1 GROUP BY status`

	// An application "reached" a status when any transition entered it;
	// the creation row covers applied.
	reachedCountsQuery = `SELECT COUNT(DISTINCT application_id) FILTER (WHERE to_status = $2), COUNT(DISTINCT application_id) FILTER (WHERE to_status = $3) FROM stage_transitions WHERE company_id = $1`

	acceptedSpansQuery = `SELECT applied_at, updated_at FROM applications WHERE company_id = $1 AND status = 'accepted'`
)

// Aggregator answers per-company analytics questions. A nil cache
// client disables summary caching; individual rate methods always go
// to the database.
type Aggregator struct {
	db     *sql.DB
	cache  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

// NewAggregator creates an aggregator. Pass a nil cache to disable the
// summary cache.
func NewAggregator(db *sql.DB, cache *redis.Client, ttl time.Duration, log logger.Logger) *Aggregator {
	return &Aggregator{db: db, cache: cache, ttl: ttl, logger: log}
}

// InterviewSummary bundles the interview-side rates for one company.
type InterviewSummary struct {
	Total             int            `json:"total"`
	CompletionRate    float64        `json:"completion_rate"`
	NoShowRate        float64        `json:"no_show_rate"`
	AverageRating     float64        `json:"average_rating"`
	DecisionBreakdown map[string]int `json:"decision_breakdown"`
	TypeBreakdown     map[string]int `json:"type_breakdown"`
}

// PipelineSummary bundles the application-side figures for one company.
type PipelineSummary struct {
	TotalApplications int            `json:"total_applications"`
	Active            int            `json:"active"`
	StageCounts       map[string]int `json:"stage_counts"`
	AverageTimeToHire float64        `json:"average_time_to_hire_days"`
}

// ==========================================
// INTERVIEW METRICS
// ==========================================

// CompletionRate returns completed interviews as a percentage of all
// interviews, 0 when the company has none.
func (a *Aggregator) CompletionRate(ctx context.Context, companyID string) (float64, error) {
	counts, err := a.interviewCounts(ctx, companyID)
	if err != nil {
		return 0, err
	}
	return counts.completionRate(), nil
}

// NoShowRate returns no-shows as a percentage of interviews that were
// not cancelled, 0 when that denominator is zero.
func (a *Aggregator) NoShowRate(ctx context.Context, companyID string) (float64, error) {
	counts, err := a.interviewCounts(ctx, companyID)
	if err != nil {
		return 0, err
	}
	return counts.noShowRate(), nil
}

// AverageRating returns the mean rating across completed interviews
// that carry one, 0 when none do.
func (a *Aggregator) AverageRating(ctx context.Context, companyID string) (float64, error) {
	var avg float64
	if err := a.db.QueryRowContext(ctx, averageRatingQuery, companyID).Scan(&avg); err != nil {
		return 0, fmt.Errorf("failed to average ratings: %w", err)
	}
	return round1(avg), nil
}

// DecisionBreakdown counts recorded decisions across completed
// interviews.
func (a *Aggregator) DecisionBreakdown(ctx context.Context, companyID string) (map[string]int, error) {
	return a.countsBy(ctx, decisionBreakdownQuery, companyID)
}

// TypeBreakdown counts interviews of every status by type.
func (a *Aggregator) TypeBreakdown(ctx context.Context, companyID string) (map[string]int, error) {
	return a.countsBy(ctx, typeBreakdownQuery, companyID)
}

// ==========================================
// PIPELINE METRICS
// ==========================================

// StageCounts counts applications by their current stage.
func (a *Aggregator) StageCounts(ctx context.Context, companyID string) (map[string]int, error) {
	return a.countsBy(ctx, stageCountsQuery, companyID)
}

// ConversionRate returns the share of applications that ever reached
// the to stage among those that ever reached the from stage, as a
// percentage. 0 when no application reached the from stage.
func (a *Aggregator) ConversionRate(ctx context.Context, companyID string, from, to pipeline.Stage) (float64, error) {
	var violations []errors.FieldViolation
	if !from.Valid() {
		violations = append(violations, errors.Violation("from_status", errors.CodeInvalidStage, fmt.Sprintf("unknown stage %q", string(from))))
	}
	if !to.Valid() {
		violations = append(violations, errors.Violation("to_status", errors.CodeInvalidStage, fmt.Sprintf("unknown stage %q", string(to))))
	}
	if len(violations) > 0 {
		return 0, errors.NewValidationError(violations...)
	}

	var fromCount, toCount int
	if err := a.db.QueryRowContext(ctx, reachedCountsQuery, companyID, string(from), string(to)).Scan(&fromCount, &toCount); err != nil {
		return 0, fmt.Errorf("failed to count reached stages: %w", err)
	}
	if fromCount == 0 {
		return 0, nil
	}
	return round1(float64(toCount) / float64(fromCount) * 100), nil
}

// AverageTimeToHire returns the mean time-to-hire in whole days across
// accepted applications, 0 when none are accepted. Day arithmetic
// matches Application.TimeToHire.
func (a *Aggregator) AverageTimeToHire(ctx context.Context, companyID string) (float64, error) {
	rows, err := a.db.QueryContext(ctx, acceptedSpansQuery, companyID)
	if err != nil {
		return 0, fmt.Errorf("failed to load accepted applications: %w", err)
	}
	defer rows.Close()

	var totalDays, count int
	for rows.Next() {
		var appliedAt, updatedAt time.Time
		if err := rows.Scan(&appliedAt, &updatedAt); err != nil {
			return 0, fmt.Errorf("failed to scan accepted application: %w", err)
		}
		totalDays += rules.DaysBetween(appliedAt, updatedAt)
		count++
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("failed to read accepted applications: %w", err)
	}
	if count == 0 {
		return 0, nil
	}
	return round1(float64(totalDays) / float64(count)), nil
}

// ==========================================
// SUMMARIES
// ==========================================

// InterviewSummary assembles the interview-side summary, serving it
// from the cache when a fresh copy exists.
func (a *Aggregator) InterviewSummary(ctx context.Context, companyID string) (*InterviewSummary, error) {
	var cached InterviewSummary
	if a.cacheGet(ctx, companyID, cacheKindInterviews, &cached) {
		return &cached, nil
	}

	counts, err := a.interviewCounts(ctx, companyID)
	if err != nil {
		return nil, err
	}
	rating, err := a.AverageRating(ctx, companyID)
	if err != nil {
		return nil, err
	}
	decisions, err := a.DecisionBreakdown(ctx, companyID)
	if err != nil {
		return nil, err
	}
	types, err := a.TypeBreakdown(ctx, companyID)
	if err != nil {
		return nil, err
	}

	summary := &InterviewSummary{
		Total:             counts.total,
		CompletionRate:    counts.completionRate(),
		NoShowRate:        counts.noShowRate(),
		AverageRating:     rating,
		DecisionBreakdown: decisions,
		TypeBreakdown:     types,
	}
	a.cacheSet(ctx, companyID, cacheKindInterviews, summary)
	return summary, nil
}

// PipelineSummary assembles the application-side summary, serving it
// from the cache when a fresh copy exists.
func (a *Aggregator) PipelineSummary(ctx context.Context, companyID string) (*PipelineSummary, error) {
	var cached PipelineSummary
	if a.cacheGet(ctx, companyID, cacheKindPipeline, &cached) {
		return &cached, nil
	}

	stageCounts, err := a.StageCounts(ctx, companyID)
	if err != nil {
		return nil, err
	}
	timeToHire, err := a.AverageTimeToHire(ctx, companyID)
	if err != nil {
		return nil, err
	}

	var total, active int
	for stage, n := range stageCounts {
		total += n
		if !pipeline.Stage(stage).Terminal() {
			active += n
		}
	}

	summary := &PipelineSummary{
		TotalApplications: total,
		Active:            active,
		StageCounts:       stageCounts,
		AverageTimeToHire: timeToHire,
	}
	a.cacheSet(ctx, companyID, cacheKindPipeline, summary)
	return summary, nil
}

// ==========================================
// HELPERS
// ==========================================

type interviewCounts struct {
	total     int
	completed int
	cancelled int
	noShow    int
}

func (c interviewCounts) completionRate() float64 {
	if c.total == 0 {
		return 0
	}
	return round1(float64(c.completed) / float64(c.total) * 100)
}

func (c interviewCounts) noShowRate() float64 {
	denom := c.total - c.cancelled
	if denom <= 0 {
		return 0
	}
	return round1(float64(c.noShow) / float64(denom) * 100)
}

func (a *Aggregator) interviewCounts(ctx context.Context, companyID string) (interviewCounts, error) {
	var c interviewCounts
	if err := a.db.QueryRowContext(ctx, interviewCountsQuery, companyID).Scan(&c.total, &c.completed, &c.cancelled, &c.noShow); err != nil {
		return c, fmt.Errorf("failed to count interviews: %w", err)
	}
	return c, nil
}

func (a *Aggregator) countsBy(ctx context.Context, query, companyID string) (map[string]int, error) {
	rows, err := a.db.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to group counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count row: %w", err)
		}
		counts[key] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read count rows: %w", err)
	}
	return counts, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
