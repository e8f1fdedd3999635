// Package guard enforces the same-tenant rule between an application
// and the users attached to it.
package guard

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"sort"

	"github.com/jblue-ops/atslite-sub000/internal/common/errors"
	"github.com/jblue-ops/atslite-sub000/internal/common/logger"
)

const (
	applicationOwnedQuery = `SELECT EXISTS(SELECT 1 FROM applications WHERE id = $1 AND company_id = $2)`
	userCompanyQuery      = `SELECT company_id FROM users WHERE id = $1`
)

// Guard resolves the company of every participant attached to an
// application and refuses mismatches. A missing application and an
// application in another company are both reported as ErrNotFound.
type Guard struct {
	db     *sql.DB
	logger logger.Logger
}

// NewGuard creates a cross-entity guard backed by the given database.
func NewGuard(db *sql.DB, log logger.Logger) *Guard {
	return &Guard{db: db, logger: log}
}

// CheckParticipants verifies that the application belongs to companyID
// and that every participant does too. Map keys are participant field
// names and appear verbatim in the returned CrossTenantError; fields
// are checked in sorted name order.
func (g *Guard) CheckParticipants(ctx context.Context, companyID, applicationID string, participants map[string]string) error {
	var owned bool
	if err := g.db.QueryRowContext(ctx, applicationOwnedQuery, applicationID, companyID).Scan(&owned); err != nil {
		return fmt.Errorf("failed to resolve application: %w", err)
	}
	if !owned {
		return fmt.Errorf("application %s: %w", applicationID, errors.ErrNotFound)
	}

	fields := make([]string, 0, len(participants))
	for field := range participants {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		userID := participants[field]
		var userCompany string
		err := g.db.QueryRowContext(ctx, userCompanyQuery, userID).Scan(&userCompany)
		if err != nil {
			if stderrors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("user %s: %w", userID, errors.ErrNotFound)
			}
			return fmt.Errorf("failed to resolve user company: %w", err)
		}
		if userCompany != companyID {
			g.logger.Warn("cross-tenant participant rejected", map[string]interface{}{
				"field":        field,
				"user_id":      userID,
				"user_company": userCompany,
				"company_id":   companyID,
			})
			return errors.NewCrossTenantError(field, companyID, userCompany)
		}
	}
	return nil
}
