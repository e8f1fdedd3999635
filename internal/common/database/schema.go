// internal/common/database/schema.go
package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema is the relational contract for the hiring pipeline. Check
// constraints mirror the invariants enforced in application code:
// status enumerations, completion/rejection timestamp consistency,
// rating bounds 1-5, duration bounds 1-480.
const Schema = `
CREATE TABLE IF NOT EXISTS companies (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS users (
    id         TEXT PRIMARY KEY,
    company_id TEXT NOT NULL REFERENCES companies(id),
    email      TEXT NOT NULL,
    name       TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS candidates (
    id         TEXT PRIMARY KEY,
    company_id TEXT NOT NULL REFERENCES companies(id),
    email      TEXT NOT NULL,
    name       TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS jobs (
    id         TEXT PRIMARY KEY,
    company_id TEXT NOT NULL REFERENCES companies(id),
    title      TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS applications (
    id               TEXT PRIMARY KEY,
    company_id       TEXT NOT NULL REFERENCES companies(id),
    candidate_id     TEXT NOT NULL REFERENCES candidates(id),
    job_id           TEXT NOT NULL REFERENCES jobs(id),
    status           TEXT NOT NULL CHECK (status IN ('applied','screening','phone_interview','technical_interview','final_interview','offer','accepted','rejected','withdrawn')),
    applied_at       TIMESTAMPTZ NOT NULL,
    stage_changed_at TIMESTAMPTZ,
    stage_changed_by TEXT REFERENCES users(id),
    rejected_at      TIMESTAMPTZ,
    rejection_reason TEXT,
    salary_offered   BIGINT CHECK (salary_offered >= 0),
    rating           INT CHECK (rating BETWEEN 1 AND 5),
    notes            TEXT NOT NULL DEFAULT '',
    created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (candidate_id, job_id),
    CHECK ((status = 'rejected') = (rejected_at IS NOT NULL))
);

CREATE TABLE IF NOT EXISTS interviews (
    id                  TEXT PRIMARY KEY,
    application_id      TEXT NOT NULL REFERENCES applications(id) ON DELETE CASCADE,
    company_id          TEXT NOT NULL REFERENCES companies(id),
    interviewer_id      TEXT NOT NULL REFERENCES users(id),
    scheduled_by        TEXT REFERENCES users(id),
    interview_type      TEXT NOT NULL CHECK (interview_type IN ('phone','video','onsite','technical','behavioral','panel')),
    status              TEXT NOT NULL CHECK (status IN ('scheduled','confirmed','completed','cancelled','no_show')),
    scheduled_at        TIMESTAMPTZ NOT NULL,
    duration_minutes    INT NOT NULL CHECK (duration_minutes BETWEEN 1 AND 480),
    location            TEXT,
    video_link          TEXT,
    completed_at        TIMESTAMPTZ,
    decision            TEXT CHECK (decision IN ('strong_yes','yes','maybe','no','strong_no')),
    rating              INT CHECK (rating BETWEEN 1 AND 5),
    feedback            TEXT NOT NULL DEFAULT '',
    notes               TEXT NOT NULL DEFAULT '',
    cancellation_reason TEXT,
    created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
    CHECK ((status = 'completed') = (completed_at IS NOT NULL)),
    CHECK (decision IS NULL OR status = 'completed')
);

CREATE TABLE IF NOT EXISTS stage_transitions (
    id             TEXT PRIMARY KEY,
    application_id TEXT NOT NULL REFERENCES applications(id) ON DELETE CASCADE,
    company_id     TEXT NOT NULL,
    from_status    TEXT NOT NULL,
    to_status      TEXT NOT NULL,
    changed_by     TEXT,
    note           TEXT NOT NULL DEFAULT '',
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_applications_company ON applications(company_id);
CREATE INDEX IF NOT EXISTS idx_applications_status ON applications(company_id, status);
CREATE INDEX IF NOT EXISTS idx_interviews_company ON interviews(company_id);
CREATE INDEX IF NOT EXISTS idx_interviews_application ON interviews(application_id);
CREATE INDEX IF NOT EXISTS idx_stage_transitions_application ON stage_transitions(application_id);
CREATE INDEX IF NOT EXISTS idx_stage_transitions_reached ON stage_transitions(company_id, to_status);
`

// Migrate applies the schema. Statements are idempotent so the call is
// safe on an already-migrated database.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
