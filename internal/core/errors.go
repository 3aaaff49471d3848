package core

import "errors"

// ErrNotFound is returned when an essay does not exist or is owned by another
// user. Callers map it to 404 without distinguishing the two cases.
var ErrNotFound = errors.New("essay not found")

// ValidationError signals malformed caller input. Its message is safe to
// return to the client verbatim.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Msg
}

func NewValidationError(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}

// UpstreamError signals that the external grading call could not be completed.
// Blocked marks content-safety rejections so the client can be told the essay
// was blocked rather than shown a generic failure.
type UpstreamError struct {
	Blocked bool
	err     error
}

func (e *UpstreamError) Error() string {
	if e.Blocked {
		return "essay content was blocked by the grading provider"
	}
	return "grading call failed: " + e.err.Error()
}

func (e *UpstreamError) Unwrap() error {
	return e.err
}

func NewUpstreamError(err error, blocked bool) error {
	return &UpstreamError{Blocked: blocked, err: err}
}

// GradeFormatError signals that the model response could not be turned into a
// valid grade after every sanitization fallback. Raw carries the original
// response for server-side logging only; Error returns a generic message.
type GradeFormatError struct {
	Raw string
	err error
}

func (e *GradeFormatError) Error() string {
	return "could not parse grading response"
}

func (e *GradeFormatError) Unwrap() error {
	return e.err
}

func NewGradeFormatError(err error, raw string) error {
	return &GradeFormatError{Raw: raw, err: err}
}
