package core

import "errors"

// Sentinel errors for programmatic checking by callers, mirroring the
// teacher's model.Err* convention.
var (
	ErrSchemaConflict  = errors.New("schema conflict")
	ErrUnknownField    = errors.New("unknown field path")
	ErrDocumentClosed  = errors.New("document is closed")
	ErrOffsetOutOfRange = errors.New("offset out of range")
)

// ErrCode is a machine-readable error identifier, carried alongside the
// human message so hosts can branch on it without string matching.
type ErrCode string

const (
	ErrCodeSchemaConflict  ErrCode = "ERR_SCHEMA_CONFLICT"
	ErrCodeUnknownField    ErrCode = "ERR_UNKNOWN_FIELD"
	ErrCodeUnsupportedOpt  ErrCode = "ERR_UNSUPPORTED_CAPABILITY_OPTION"
	ErrCodeBuild           ErrCode = "ERR_BUILD"
	ErrCodeHostContract    ErrCode = "ERR_HOST_CONTRACT"
)

// FrameworkError is the uniform error payload for hard, non-recoverable
// failures (schema compile errors, programmer-contract violations) as
// opposed to Diagnostic, which represents a recoverable per-subtree
// finding. Modeled on the teacher's CLIError (internal/core/errorfmt.go).
type FrameworkError struct {
	Code    ErrCode
	Message string
	Detail  string
}

func (e FrameworkError) Error() string {
	if e.Detail != "" {
		return e.Message + ": " + e.Detail
	}
	return e.Message
}

// Wrap builds a FrameworkError that carries an inner error as Detail.
func Wrap(code ErrCode, msg string, inner error) error {
	if inner == nil {
		return FrameworkError{Code: code, Message: msg}
	}
	return FrameworkError{Code: code, Message: msg, Detail: inner.Error()}
}
