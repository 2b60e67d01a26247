package model

import (
	"errors"
	"fmt"
	"time"

	goerrors "github.com/go-errors/errors"
)

// HTTPError wraps an HTTP status code so retry logic can inspect it.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // from Retry-After header, zero if absent
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// ErrorKind classifies pipeline failures.
type ErrorKind string

const (
	KindTransientFetch   ErrorKind = "TRANSIENT_FETCH"
	KindParseDegradation ErrorKind = "PARSE_DEGRADATION"
	KindRecordReject     ErrorKind = "RECORD_REJECT"
	KindLoadConflict     ErrorKind = "LOAD_CONFLICT"
	KindInsufficientData ErrorKind = "INSUFFICIENT_DATA"
	KindInternal         ErrorKind = "INTERNAL"
)

// ErrMissingTitle rejects a posting that has no usable title.
var ErrMissingTitle = errors.New("posting has no title")

// StageError is a classified failure raised inside one pipeline stage.
type StageError struct {
	Kind   ErrorKind
	Stage  string
	Source string
	Err    error
	Stack  []byte
}

// NewStageError wraps err with its classification and the caller's stack.
func NewStageError(kind ErrorKind, stage, source string, err error) *StageError {
	var stack []byte
	var ge *goerrors.Error
	switch {
	case errors.As(err, &ge):
		stack = ge.Stack()
	case err != nil:
		stack = goerrors.Wrap(err, 1).Stack()
	default:
		stack = goerrors.New(string(kind)).Stack()
	}
	return &StageError{Kind: kind, Stage: stage, Source: source, Err: err, Stack: stack}
}

func (e *StageError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s: %s[%s]: %v", e.Kind, e.Stage, e.Source, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// KindOf returns the classification of err, or KindInternal when err is not
// a StageError.
func KindOf(err error) ErrorKind {
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}
