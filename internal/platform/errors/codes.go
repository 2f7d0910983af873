// Package errors provides coded errors for the quiz storage layer.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Handle lifecycle errors
	CodeHandleNotOpen    Code = "HANDLE_NOT_OPEN"
	CodeStoreUnavailable Code = "STORE_UNAVAILABLE"

	// Row errors
	CodeMalformedRow   Code = "MALFORMED_ROW"
	CodeInsertRejected Code = "INSERT_REJECTED"

	// Caller input errors
	CodeQuizRequired      Code = "QUIZ_REQUIRED"
	CodeAlreadyPersistent Code = "QUIZ_ALREADY_PERSISTENT"
)

// ExitCode maps a code to a process exit status for command line tools.
func (c Code) ExitCode() int {
	switch c {
	// Caller contract violations
	case CodeHandleNotOpen,
		CodeQuizRequired,
		CodeAlreadyPersistent:
		return 2

	// Store refused or could not be reached
	case CodeStoreUnavailable,
		CodeInsertRejected:
		return 3

	default:
		return 1
	}
}
