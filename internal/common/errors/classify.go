package errors

import "errors"

// Classification of an error into the caller-visible classes of the core.
// The calling layer (HTTP/CLI, out of scope here) surfaces every class as
// "operation rejected"; only validation failures additionally expose
// field-level messages.
type Class string

const (
	ClassValidation   Class = "VALIDATION_FAILED"
	ClassPrecondition Class = "PRECONDITION_NOT_MET"
	ClassCrossTenant  Class = "CROSS_TENANT"
	ClassNotFound     Class = "NOT_FOUND"
	ClassInternal     Class = "INTERNAL"
)

// Classify maps any error returned by the core onto its class.
func Classify(err error) Class {
	switch {
	case err == nil:
		return ""
	case IsValidation(err):
		return ClassValidation
	case errors.Is(err, ErrPreconditionNotMet):
		return ClassPrecondition
	case IsCrossTenant(err):
		return ClassCrossTenant
	case errors.Is(err, ErrNotFound):
		return ClassNotFound
	default:
		return ClassInternal
	}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsCrossTenant reports whether err is (or wraps) a CrossTenantError.
func IsCrossTenant(err error) bool {
	var cte *CrossTenantError
	return errors.As(err, &cte)
}

// AsValidation extracts the ValidationError from err, or nil when err
// does not carry one.
func AsValidation(err error) *ValidationError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve
	}
	return nil
}

// ViolatedFields returns the violated field names when err carries a
// ValidationError, nil otherwise. Convenient for display layers.
func ViolatedFields(err error) []string {
	if ve := AsValidation(err); ve != nil {
		return ve.Fields()
	}
	return nil
}
