package compiler

import (
	"errors"
	"fmt"
)

// ShapeErrorCode categorizes structural violations of the AST.
type ShapeErrorCode string

const (
	// ErrCodeAliasInMutation indicates a mutation field carries an alias.
	ErrCodeAliasInMutation ShapeErrorCode = "ALIAS_IN_MUTATION"

	// ErrCodeValueRequired indicates a mutation field has no assignment value.
	ErrCodeValueRequired ShapeErrorCode = "VALUE_REQUIRED"

	// ErrCodeFieldsNotAllowedInDelete indicates a delete table has field children.
	ErrCodeFieldsNotAllowedInDelete ShapeErrorCode = "FIELDS_NOT_ALLOWED_IN_DELETE"

	// ErrCodeJoinsNotAllowedInMutation indicates a non-delete mutation table has a join.
	ErrCodeJoinsNotAllowedInMutation ShapeErrorCode = "JOINS_NOT_ALLOWED_IN_MUTATION"

	// ErrCodeAssignmentsNotAllowedInQuery indicates a query field carries a value.
	ErrCodeAssignmentsNotAllowedInQuery ShapeErrorCode = "ASSIGNMENTS_NOT_ALLOWED_IN_QUERY"

	// ErrCodeDeleteRequiresSelector indicates a delete table has no selectors.
	ErrCodeDeleteRequiresSelector ShapeErrorCode = "DELETE_REQUIRES_SELECTOR"

	// ErrCodeMutationRequiresTable indicates a mutation operation has no tables.
	ErrCodeMutationRequiresTable ShapeErrorCode = "MUTATION_REQUIRES_TABLE"

	// ErrCodeAtLeastOneFieldRequired indicates every field of a mutation
	// table was skipped (all values unresolved), leaving nothing to emit.
	ErrCodeAtLeastOneFieldRequired ShapeErrorCode = "AT_LEAST_ONE_FIELD_REQUIRED"
)

// ShapeError reports an AST that violates a structural invariant. Shape
// errors are fatal for the containing operation.
type ShapeError struct {
	Code      ShapeErrorCode
	Message   string
	Operation string
	Table     string
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	if e.Operation != "" && e.Table != "" {
		return fmt.Sprintf("%s: %s (operation=%s, table=%s)", e.Code, e.Message, e.Operation, e.Table)
	}
	if e.Operation != "" {
		return fmt.Sprintf("%s: %s (operation=%s)", e.Code, e.Message, e.Operation)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func shapeError(code ShapeErrorCode, op, table, format string, args ...any) *ShapeError {
	return &ShapeError{
		Code:      code,
		Message:   fmt.Sprintf(format, args...),
		Operation: op,
		Table:     table,
	}
}

// ResolutionErrorCode categorizes name-resolution failures.
type ResolutionErrorCode string

const (
	// ErrCodeMissingRequiredVariable indicates a declared-required variable
	// is absent from the caller's environment.
	ErrCodeMissingRequiredVariable ResolutionErrorCode = "MISSING_REQUIRED_VARIABLE"

	// ErrCodeUnknownOperation indicates a query call to a name that does not
	// resolve to a query operation in the document.
	ErrCodeUnknownOperation ResolutionErrorCode = "UNKNOWN_OPERATION"

	// ErrCodeRecursiveQueryCall indicates a query call to an operation
	// already on the compilation stack.
	ErrCodeRecursiveQueryCall ResolutionErrorCode = "RECURSIVE_QUERY_CALL"
)

// ResolutionError reports a failed variable or operation reference.
type ResolutionError struct {
	Code    ResolutionErrorCode
	Name    string
	Message string
}

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ValueError reports a field value that failed to serialize. Value errors
// are recoverable at field granularity: the field is dropped from the
// statement.
type ValueError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValueError) Error() string {
	return fmt.Sprintf("VALUE_ERROR: field %s: %s", e.Field, e.Message)
}

// IsShapeError reports whether err is a ShapeError with the given code.
// Uses errors.As to handle wrapped errors.
func IsShapeError(err error, code ShapeErrorCode) bool {
	var se *ShapeError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

// IsResolutionError reports whether err is a ResolutionError with the given
// code.
func IsResolutionError(err error, code ResolutionErrorCode) bool {
	var re *ResolutionError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}
