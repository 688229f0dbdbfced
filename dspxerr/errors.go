// Package dspxerr defines the structured error kinds surfaced by the dspx
// pipeline, stages, buffers, and snapshot codec.
package dspxerr

import (
	"errors"
	"fmt"
)

// Kind identifies the category of a pipeline or stage failure.
type Kind string

// Recognized error kinds (spec §7).
const (
	KindInvalidArgument   Kind = "invalid_argument"
	KindUnknownStage      Kind = "unknown_stage"
	KindBusy              Kind = "busy"
	KindDisposed          Kind = "disposed"
	KindNonMonotonic      Kind = "non_monotonic"
	KindEmpty             Kind = "empty"
	KindFull              Kind = "full"
	KindConfigError       Kind = "config_error"
	KindStageError        Kind = "stage_error"
	KindCorruptSnapshot   Kind = "corrupt_snapshot"
	KindStageCountMismatch Kind = "stage_count_mismatch"
	KindStageTypeMismatch  Kind = "stage_type_mismatch"
	KindUnstable          Kind = "unstable"
	KindNumericFailure    Kind = "numeric_failure"
	KindOutputTooSmall    Kind = "output_too_small"
)

// IsOutputTooSmall reports whether err is a *dspxerr.Error carrying
// KindOutputTooSmall, the signal a resizing stage's ProcessResizing uses to
// ask its caller for a bigger output buffer rather than fail outright.
func IsOutputTooSmall(err error) bool {
	var derr *Error
	return errors.As(err, &derr) && derr.Kind == KindOutputTooSmall
}

// Error is the structured error type returned from pipeline and stage
// operations. Context fields are populated where available.
type Error struct {
	Kind      Kind
	Message   string
	StageIdx  int    // -1 when not applicable
	StageType string // "" when not applicable
	Param     string // "" when not applicable
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("dspx: %s: %s", e.Kind, e.Message)
	if e.StageType != "" {
		msg = fmt.Sprintf("%s (stage=%s idx=%d)", msg, e.StageType, e.StageIdx)
	}
	if e.Param != "" {
		msg = fmt.Sprintf("%s (param=%s)", msg, e.Param)
	}
	return msg
}

// New builds a bare *Error with no stage context.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, StageIdx: -1}
}

// Newf builds a bare *Error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return New(kind, fmt.Sprintf(format, args...))
}

// WithStage returns a copy of e annotated with stage context.
func (e *Error) WithStage(idx int, stageType string) *Error {
	c := *e
	c.StageIdx = idx
	c.StageType = stageType
	return &c
}

// WithParam returns a copy of e annotated with the offending parameter name.
func (e *Error) WithParam(name string) *Error {
	c := *e
	c.Param = name
	return &c
}

// Is reports whether err carries the given Kind, for use with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinel kind markers usable with errors.Is(err, dspxerr.Busy) etc.
var (
	Busy            = New(KindBusy, "pipeline is busy")
	Disposed        = New(KindDisposed, "pipeline is disposed")
	Empty           = New(KindEmpty, "buffer is empty")
	Full            = New(KindFull, "buffer is full")
	NonMonotonic    = New(KindNonMonotonic, "timestamps must be non-decreasing")
	ConfigError     = New(KindConfigError, "invalid buffer configuration")
)

// StageError wraps a stage-internal failure with its type and message.
func StageError(stageType, message string) *Error {
	return &Error{Kind: KindStageError, Message: message, StageType: stageType, StageIdx: -1}
}
