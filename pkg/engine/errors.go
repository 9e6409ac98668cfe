package engine

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a build error for recovery logic.
type ErrorKind string

const (
	// ErrorKindEnvironmentCreation indicates the evaluation environment
	// could not be constructed. Fatal, pre-evaluation.
	ErrorKindEnvironmentCreation ErrorKind = "environment_creation"

	// ErrorKindScriptEvaluation indicates the configuration script failed
	// to execute. The registry contents are not usable.
	ErrorKindScriptEvaluation ErrorKind = "script_evaluation"

	// ErrorKindDuplicateTarget indicates a target name was registered twice.
	ErrorKindDuplicateTarget ErrorKind = "duplicate_target"

	// ErrorKindTargetNotRegistered indicates a build was requested for a
	// name the script never registered.
	ErrorKindTargetNotRegistered ErrorKind = "target_not_registered"

	// ErrorKindTargetNotResolved indicates the script registered a name
	// but never bound a concrete artifact to it.
	ErrorKindTargetNotResolved ErrorKind = "target_not_resolved"

	// ErrorKindUnsupportedTargetType indicates the registered value has no
	// build handler.
	ErrorKindUnsupportedTargetType ErrorKind = "unsupported_target_type"

	// ErrorKindBuildIO indicates an I/O failure while preparing a build.
	// The target stays resolved, so the build can be retried.
	ErrorKindBuildIO ErrorKind = "build_io"

	// ErrorKindBuild indicates the artifact's build handler failed. Like
	// an I/O failure, the target stays resolved and the build can be
	// retried.
	ErrorKindBuild ErrorKind = "build_failed"

	// ErrorKindNotRunnable indicates a built artifact has no run entrypoint.
	ErrorKindNotRunnable ErrorKind = "not_runnable"

	// ErrorKindRun indicates the artifact's run entrypoint failed. The
	// underlying error is propagated verbatim.
	ErrorKindRun ErrorKind = "run"

	// ErrorKindNoDefaultTarget indicates no target was requested and the
	// script registered nothing to fall back to.
	ErrorKindNoDefaultTarget ErrorKind = "no_default_target"
)

// BuildError is a classified error produced by the target registry,
// resolver, and evaluation driver.
type BuildError struct {
	// Kind is the error classification.
	Kind ErrorKind

	// Target is the target name involved, if any.
	Target string

	// Op is the operation being performed when the error occurred.
	Op string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *BuildError) Error() string {
	msg := string(e.Kind)
	switch e.Kind {
	case ErrorKindDuplicateTarget:
		msg = fmt.Sprintf("target %q already registered", e.Target)
	case ErrorKindTargetNotRegistered:
		msg = fmt.Sprintf("target %q is not registered", e.Target)
	case ErrorKindTargetNotResolved:
		msg = fmt.Sprintf("target %q is not resolved", e.Target)
	case ErrorKindUnsupportedTargetType:
		msg = fmt.Sprintf("target %q has an unsupported artifact type", e.Target)
	case ErrorKindNotRunnable:
		msg = fmt.Sprintf("target %q is not runnable", e.Target)
	case ErrorKindNoDefaultTarget:
		msg = "unable to determine target to build"
	case ErrorKindBuildIO:
		msg = fmt.Sprintf("build I/O failure for target %q", e.Target)
	case ErrorKindBuild:
		msg = fmt.Sprintf("build of target %q failed", e.Target)
	case ErrorKindScriptEvaluation:
		msg = "script evaluation failed"
	case ErrorKindEnvironmentCreation:
		msg = "error creating evaluation environment"
	case ErrorKindRun:
		msg = fmt.Sprintf("running target %q failed", e.Target)
	}

	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection.
func (e *BuildError) Unwrap() error {
	return e.Err
}

// Is matches BuildErrors by kind so callers can compare against the
// exported sentinel values with errors.Is.
func (e *BuildError) Is(target error) bool {
	t, ok := target.(*BuildError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinel values for errors.Is comparisons.
var (
	ErrDuplicateTarget       = &BuildError{Kind: ErrorKindDuplicateTarget}
	ErrTargetNotRegistered   = &BuildError{Kind: ErrorKindTargetNotRegistered}
	ErrTargetNotResolved     = &BuildError{Kind: ErrorKindTargetNotResolved}
	ErrUnsupportedTargetType = &BuildError{Kind: ErrorKindUnsupportedTargetType}
	ErrBuildIO               = &BuildError{Kind: ErrorKindBuildIO}
	ErrBuildFailed           = &BuildError{Kind: ErrorKindBuild}
	ErrNotRunnable           = &BuildError{Kind: ErrorKindNotRunnable}
	ErrNoDefaultTarget       = &BuildError{Kind: ErrorKindNoDefaultTarget}
	ErrScriptEvaluation      = &BuildError{Kind: ErrorKindScriptEvaluation}
	ErrEnvironmentCreation   = &BuildError{Kind: ErrorKindEnvironmentCreation}
)

// NewBuildError creates a classified error for a target.
func NewBuildError(kind ErrorKind, target string, err error) *BuildError {
	return &BuildError{Kind: kind, Target: target, Err: err}
}

// WithOp adds operation context to an error.
func (e *BuildError) WithOp(op string) *BuildError {
	e.Op = op
	return e
}

// KindOf extracts the error kind from an error chain. Returns the empty
// string when the chain contains no BuildError.
func KindOf(err error) ErrorKind {
	var e *BuildError
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsRetryable returns true if the failed operation can be re-attempted
// without re-evaluating the configuration script. Only I/O and build
// handler failures leave the target in a retryable state; every other
// kind requires a script or environment correction.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case ErrorKindBuildIO, ErrorKindBuild:
		return true
	}
	return false
}
