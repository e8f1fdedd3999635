// Package report assembles the per-company analytics report and
// validates the payload against its JSON schema before release.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/jblue-ops/atslite-sub000/internal/analytics"
	"github.com/jblue-ops/atslite-sub000/internal/common/errors"
	"github.com/jblue-ops/atslite-sub000/internal/common/logger"
	"github.com/jblue-ops/atslite-sub000/internal/pipeline"
)

// Source supplies the aggregates a report is assembled from.
// *analytics.Aggregator satisfies it.
type Source interface {
	PipelineSummary(ctx context.Context, companyID string) (*analytics.PipelineSummary, error)
	InterviewSummary(ctx context.Context, companyID string) (*analytics.InterviewSummary, error)
	ConversionRate(ctx context.Context, companyID string, from, to pipeline.Stage) (float64, error)
}

// ConversionSummary is one funnel edge with its conversion percentage.
type ConversionSummary struct {
	From string  `json:"from"`
	To   string  `json:"to"`
	Rate float64 `json:"rate"`
}

// Report is the complete analytics payload for one company.
type Report struct {
	GeneratedAt time.Time                   `json:"generated_at"`
	CompanyID   string                      `json:"company_id"`
	Pipeline    *analytics.PipelineSummary  `json:"pipeline"`
	Interviews  *analytics.InterviewSummary `json:"interviews"`
	Conversion  ConversionSummary           `json:"conversion"`
}

// Builder assembles and validates reports.
type Builder struct {
	source Source
	logger logger.Logger
}

// NewBuilder creates a report builder over the given aggregate source.
func NewBuilder(source Source, log logger.Logger) *Builder {
	return &Builder{source: source, logger: log}
}

// Build assembles the company's report with the applied-to-accepted
// conversion as its headline funnel edge, then validates the payload
// against the report schema. A payload that fails the schema is never
// returned.
func (b *Builder) Build(ctx context.Context, companyID string) (*Report, error) {
	pipelineSummary, err := b.source.PipelineSummary(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to build pipeline summary: %w", err)
	}
	interviewSummary, err := b.source.InterviewSummary(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to build interview summary: %w", err)
	}
	rate, err := b.source.ConversionRate(ctx, companyID, pipeline.StageApplied, pipeline.StageAccepted)
	if err != nil {
		return nil, fmt.Errorf("failed to compute conversion rate: %w", err)
	}

	rep := &Report{
		GeneratedAt: time.Now().UTC(),
		CompanyID:   companyID,
		Pipeline:    pipelineSummary,
		Interviews:  interviewSummary,
		Conversion: ConversionSummary{
			From: string(pipeline.StageApplied),
			To:   string(pipeline.StageAccepted),
			Rate: rate,
		},
	}
	if err := validateReport(rep); err != nil {
		return nil, err
	}

	b.logger.Info("analytics report built", map[string]interface{}{
		"company_id":         companyID,
		"total_applications": rep.Pipeline.TotalApplications,
		"total_interviews":   rep.Interviews.Total,
	})
	return rep, nil
}

func validateReport(rep *Report) error {
	schemaLoader := gojsonschema.NewGoLoader(reportSchema)
	documentLoader := gojsonschema.NewGoLoader(rep)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("report validation error: %w", err)
	}
	if !result.Valid() {
		violations := make([]errors.FieldViolation, len(result.Errors()))
		for i, desc := range result.Errors() {
			violations[i] = errors.Violation(desc.Field(), errors.CodeReportInvalid, desc.Description())
		}
		return errors.NewValidationError(violations...)
	}
	return nil
}
