// Package errors defines the error contracts of the hiring-pipeline core.
//
// Two failure taxonomies coexist deliberately and must stay distinguishable
// at every call site:
//
//   - Validation failures (ValidationError): the proposed record violates a
//     field rule or consistency invariant. The error enumerates every violated
//     field and carries messages suitable for direct display. Raised by
//     pipeline operations, interview creation, and the rules package.
//
//   - Precondition failures (PreconditionError, ErrPreconditionNotMet): an
//     interview transition was requested from a state, or at a time, where it
//     is not allowed. Nothing about the input is malformed; the operation is
//     simply not available. Callers test with
//     errors.Is(err, ErrPreconditionNotMet).
//
// Cross-tenant violations get their own kind (CrossTenantError) because they
// signal an integrity problem between records, not bad input.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode identifies a violated rule in machine-readable form.
type ErrorCode string

// Application pipeline codes.
const (
	CodeInvalidStage         ErrorCode = "INVALID_STAGE"
	CodeTerminalStage        ErrorCode = "TERMINAL_STAGE"
	CodeAppliedInFuture      ErrorCode = "APPLIED_IN_FUTURE"
	CodeRejectionMismatch    ErrorCode = "REJECTION_TIMESTAMP_MISMATCH"
	CodeDuplicateApplication ErrorCode = "DUPLICATE_APPLICATION"
	CodeSalaryNegative       ErrorCode = "SALARY_NEGATIVE"
)

// Interview codes.
const (
	CodeInvalidStatus      ErrorCode = "INVALID_STATUS"
	CodeInvalidType        ErrorCode = "INVALID_TYPE"
	CodeInvalidDecision    ErrorCode = "INVALID_DECISION"
	CodeCompletionMismatch ErrorCode = "COMPLETION_TIMESTAMP_MISMATCH"
	CodeDecisionIncomplete ErrorCode = "DECISION_REQUIRES_COMPLETION"
	CodeLocationRequired   ErrorCode = "LOCATION_REQUIRED"
	CodeVideoLinkRequired  ErrorCode = "VIDEO_LINK_REQUIRED"
	CodeScheduledInPast    ErrorCode = "SCHEDULED_IN_PAST"
	CodeDurationOutOfRange ErrorCode = "DURATION_OUT_OF_RANGE"
)

// Shared codes.
const (
	CodeMissingRequired        ErrorCode = "MISSING_REQUIRED"
	CodeRatingOutOfRange       ErrorCode = "RATING_OUT_OF_RANGE"
	CodeCrossTenantParticipant ErrorCode = "CROSS_TENANT_PARTICIPANT"
	CodeReportInvalid          ErrorCode = "REPORT_VALIDATION_FAILED"
)

// Sentinels.
var (
	// ErrNotFound covers both a missing row and a row outside the caller's
	// tenant; the two are indistinguishable on purpose.
	ErrNotFound = errors.New("record not found")

	// ErrPreconditionNotMet is the root of every interview transition
	// refusal. Wrap it via NewPreconditionError.
	ErrPreconditionNotMet = errors.New("precondition not met")
)

// ==========================
// Validation failures
// ==========================

// FieldViolation describes one violated rule on one field.
type FieldViolation struct {
	Field   string    `json:"field"`
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (v FieldViolation) String() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

// ValidationError aggregates every violation found before a persist. It is
// raised as a whole; a transition that produces one never writes anything.
type ValidationError struct {
	Violations []FieldViolation `json:"violations"`
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Fields lists the violated field names, in order of detection.
func (e *ValidationError) Fields() []string {
	fields := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		fields[i] = v.Field
	}
	return fields
}

// Has reports whether the given code appears among the violations.
func (e *ValidationError) Has(code ErrorCode) bool {
	for _, v := range e.Violations {
		if v.Code == code {
			return true
		}
	}
	return false
}

// NewValidationError builds a ValidationError from one or more violations.
func NewValidationError(violations ...FieldViolation) *ValidationError {
	return &ValidationError{Violations: violations}
}

// Violation is a convenience constructor for a single FieldViolation.
func Violation(field string, code ErrorCode, message string) FieldViolation {
	return FieldViolation{Field: field, Code: code, Message: message}
}

// ==========================
// Precondition failures
// ==========================

// PreconditionError reports that a guarded interview transition was refused.
// It wraps ErrPreconditionNotMet so call sites can branch on the class
// without knowing the operation.
type PreconditionError struct {
	Op     string // transition attempted, e.g. "complete"
	Status string // entity status at refusal time
	Reason string // human-readable gate description
}

func (e *PreconditionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s not allowed from status %q: %s", e.Op, e.Status, e.Reason)
	}
	return fmt.Sprintf("%s not allowed from status %q", e.Op, e.Status)
}

func (e *PreconditionError) Unwrap() error { return ErrPreconditionNotMet }

// NewPreconditionError records a refused transition.
func NewPreconditionError(op, status, reason string) *PreconditionError {
	return &PreconditionError{Op: op, Status: status, Reason: reason}
}

// ==========================
// Cross-tenant failures
// ==========================

// CrossTenantError reports a participant whose company does not match the
// record they were attached to. This is an integrity error, not bad input,
// and is never folded into a ValidationError.
type CrossTenantError struct {
	Field         string // participant field, e.g. "interviewer_id"
	EntityCompany string
	ActorCompany  string
}

func (e *CrossTenantError) Error() string {
	return fmt.Sprintf("%s belongs to company %s, record belongs to company %s",
		e.Field, e.ActorCompany, e.EntityCompany)
}

// Code returns the machine-readable code for this error kind.
func (e *CrossTenantError) Code() ErrorCode { return CodeCrossTenantParticipant }

// NewCrossTenantError records a tenant mismatch on the named field.
func NewCrossTenantError(field, entityCompany, actorCompany string) *CrossTenantError {
	return &CrossTenantError{Field: field, EntityCompany: entityCompany, ActorCompany: actorCompany}
}
