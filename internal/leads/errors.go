package leads

import "errors"

var (
	// ErrLeadNotFound is returned when a lead is not found
	ErrLeadNotFound = errors.New("lead not found")

	// ErrInvalidStatus is returned when a status outside the closed set is used
	ErrInvalidStatus = errors.New("invalid lead status")

	// ErrMissingName is returned when a create request reaches the store without a name
	ErrMissingName = errors.New("name is required")

	// ErrMissingEmail is returned when a create request reaches the store without an email
	ErrMissingEmail = errors.New("email is required")
)

// Client-facing validation messages. These strings are part of the public
// API contract of the form endpoints.
const (
	MsgNameEmailRequired = "Name and email are required"
	MsgInvalidEmail      = "Invalid email address"
	MsgIntakeRequired    = "firstName, lastName, and phone are required"
	MsgInvalidPhone      = "Invalid phone number"
)

// ValidationError is a client-fixable submission problem. Message is safe to
// return to the caller verbatim.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var (
	ErrNameEmailRequired = &ValidationError{Field: "name,email", Message: MsgNameEmailRequired}
	ErrInvalidEmail      = &ValidationError{Field: "email", Message: MsgInvalidEmail}
	ErrIntakeRequired    = &ValidationError{Field: "firstName,lastName,phone", Message: MsgIntakeRequired}
	ErrInvalidPhone      = &ValidationError{Field: "phone", Message: MsgInvalidPhone}
)

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
