package errors

import (
	"net/http"

	"rollcall/internal/errors"
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-friendly error message
	Details() string   // Detailed error information (optional)
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	httpCode  int
	errorCode string
	message   string
	details   string
}

// NewBaseError creates a new base error
func NewBaseError(httpCode int, errorCode, message, details string) *BaseError {
	return &BaseError{
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
		details:   details,
	}
}

// Error implements the error interface
func (e *BaseError) Error() string {
	return e.message
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// HTTPCode returns the HTTP status code
func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

// ErrorCode returns the business error code
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the user-friendly error message
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *BaseError) Details() string {
	return e.details
}

// WithDetails adds detailed error information
func (e *BaseError) WithDetails(details string) *BaseError {
	return &BaseError{
		httpCode:  e.httpCode,
		errorCode: e.errorCode,
		message:   e.message,
		details:   details,
	}
}

// Predefined error types.
//
// The reconciliation engine surfaces three recoverable error families that
// callers translate into user-facing messages: not-found (a referenced
// person/alias/account does not exist), invalid-operation (the request is
// well-formed but semantically wrong, e.g. a self-merge), and
// constraint-violation (the mutation would break a store invariant, e.g.
// double-linking an external account). None are fatal to the process.
var (
	// Not-found family
	ErrPersonNotFound = NewBaseError(
		http.StatusNotFound,
		"PERSON_NOT_FOUND",
		"no person exists with that id",
		"",
	)

	ErrEmailNotFound = NewBaseError(
		http.StatusNotFound,
		"EMAIL_NOT_FOUND",
		"no email alias exists with that id",
		"",
	)

	ErrAccountNotFound = NewBaseError(
		http.StatusNotFound,
		"ACCOUNT_NOT_FOUND",
		"no external account exists with that id",
		"",
	)

	// Invalid-operation family
	ErrSelfMerge = NewBaseError(
		http.StatusBadRequest,
		"SELF_MERGE",
		"a person cannot be merged into itself",
		"",
	)

	ErrUnownedEmail = NewBaseError(
		http.StatusBadRequest,
		"EMAIL_UNOWNED",
		"the email alias has no owning person",
		"",
	)

	ErrAliasNotOwned = NewBaseError(
		http.StatusBadRequest,
		"ALIAS_NOT_OWNED",
		"the preferred email must reference an alias owned by the same person",
		"",
	)

	ErrUnknownAccountKind = NewBaseError(
		http.StatusBadRequest,
		"UNKNOWN_ACCOUNT_KIND",
		"the external account kind is not recognized",
		"",
	)

	// Constraint-violation family
	ErrAccountAlreadyLinked = NewBaseError(
		http.StatusConflict,
		"ACCOUNT_ALREADY_LINKED",
		"the external account is already linked to a person",
		"",
	)

	ErrDuplicateAlias = NewBaseError(
		http.StatusConflict,
		"DUPLICATE_ALIAS",
		"the person already owns an alias with that address",
		"",
	)

	// Validation-related errors
	ErrValidationFailed = NewBaseError(
		http.StatusBadRequest,
		"VALIDATION_FAILED",
		"input validation failed",
		"",
	)

	// Transaction-related errors
	ErrTransactionFailed = NewBaseError(
		http.StatusInternalServerError,
		"TRANSACTION_FAILED",
		"database transaction failed",
		"",
	)

	// General errors
	ErrInternalError = NewBaseError(
		http.StatusInternalServerError,
		"INTERNAL_ERROR",
		"internal system error",
		"",
	)
)

// IsNotFound reports whether err belongs to the not-found error family.
func IsNotFound(err error) bool {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPCode() == http.StatusNotFound
	}

	return false
}

// IsInvalidOperation reports whether err belongs to the invalid-operation
// family (semantically wrong requests, rejected before any mutation).
func IsInvalidOperation(err error) bool {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPCode() == http.StatusBadRequest
	}

	return false
}

// IsConstraintViolation reports whether err belongs to the
// constraint-violation family. Webhook-style callers should treat this as a
// signal to skip rather than retry: the association is already applied.
func IsConstraintViolation(err error) bool {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPCode() == http.StatusConflict
	}

	return false
}

// DatabaseExecuteError represents a database execution error, implementing the AppError interface
type DatabaseExecuteError struct {
	err     error
	details string
}

// NewDatabaseExecuteError creates a database-related error
func NewDatabaseExecuteError(err error, details string) AppError {
	return &DatabaseExecuteError{
		err:     err,
		details: details,
	}
}

// Error implements the error interface
func (e *DatabaseExecuteError) Error() string {
	return errors.Wrap(e.err, "database execution failed").Error()
}

// HTTPCode returns the HTTP status code
func (e *DatabaseExecuteError) HTTPCode() int {
	return http.StatusInternalServerError
}

// ErrorCode returns the business error code
func (e *DatabaseExecuteError) ErrorCode() string {
	return "DATABASE_EXECUTE_FAILED"
}

// Message returns the user-friendly error message
func (e *DatabaseExecuteError) Message() string {
	return "database execution failed"
}

// Details returns detailed error information
func (e *DatabaseExecuteError) Details() string {
	return e.details
}
