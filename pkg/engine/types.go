package engine

import (
	"context"
	"os/exec"

	"github.com/rs/zerolog"
)

// Buildable is the capability contract satisfied by every artifact kind.
// The descriptor bound to a target must implement it before the target can
// be built; values that do not are reported as unsupported at build time.
type Buildable interface {
	// Kind returns the artifact kind name, used for logging, metrics, and
	// policy input. Dispatch itself happens through this interface, not
	// through the kind string.
	Kind() string

	// Build materializes the artifact into the per-target output directory
	// described by the BuildContext.
	Build(ctx context.Context, bc *BuildContext) (*ResolvedTarget, error)
}

// RunModeKind discriminates the closed set of run entrypoint variants.
type RunModeKind string

const (
	// RunModeNone means the artifact has no run entrypoint.
	RunModeNone RunModeKind = "none"

	// RunModePath means the artifact is launched by executing a path.
	RunModePath RunModeKind = "path"
)

// RunMode describes how a built artifact is launched, if at all.
type RunMode struct {
	Mode RunModeKind `json:"mode"`

	// Path is the executable to launch when Mode is RunModePath.
	Path string `json:"path,omitempty"`
}

// ResolvedTarget is the immutable output of a successful build: where the
// artifact landed plus an optional launch capability. Instances are shared
// freely once produced and never mutated.
type ResolvedTarget struct {
	// OutputPath is the directory the artifact was materialized into.
	OutputPath string `json:"output_path"`

	// Paths are the concrete artifact locations produced by the build.
	Paths []string `json:"paths,omitempty"`

	// Run describes the artifact's run entrypoint.
	Run RunMode `json:"run"`
}

// RunTarget launches the built artifact. Failures from the launched
// process propagate verbatim; exit-code interpretation is owned by the
// caller.
func (t *ResolvedTarget) RunTarget(ctx context.Context) error {
	switch t.Run.Mode {
	case RunModePath:
		cmd := exec.CommandContext(ctx, t.Run.Path)
		cmd.Dir = t.OutputPath
		return cmd.Run()
	default:
		return NewBuildError(ErrorKindNotRunnable, "", nil)
	}
}

// Runnable returns true when the target has a run entrypoint.
func (t *ResolvedTarget) Runnable() bool {
	return t.Run.Mode != RunModeNone
}

// TargetState tracks a BuildTarget through its lifecycle.
type TargetState string

const (
	// TargetStateUnresolved means the name is registered but no concrete
	// artifact descriptor has been bound to it.
	TargetStateUnresolved TargetState = "unresolved"

	// TargetStateResolved means a descriptor is bound but not yet built.
	TargetStateResolved TargetState = "resolved"

	// TargetStateBuilt means the build handler ran successfully and the
	// result is cached for the life of the environment context.
	TargetStateBuilt TargetState = "built"
)

// BuildTarget is a named, script-declared unit of work. Identity is the
// name, unique within one EnvironmentContext.
type BuildTarget struct {
	// Name is the registered target name.
	Name string

	// Order is the monotonic registration counter, starting at 0.
	Order int

	// Descriptor is the artifact value bound by the script. May be nil
	// when the script registered the name without a concrete value.
	Descriptor interface{}

	// Built caches the result of the first successful build. Never
	// cleared; building an already-built target is a no-op.
	Built *ResolvedTarget
}

// State reports the target's lifecycle state.
func (t *BuildTarget) State() TargetState {
	switch {
	case t.Built != nil:
		return TargetStateBuilt
	case t.Descriptor != nil:
		return TargetStateResolved
	default:
		return TargetStateUnresolved
	}
}

// BuildContext is the ephemeral per-build-invocation state handed to an
// artifact's build handler. It is derived from the environment context and
// discarded when the build call returns.
type BuildContext struct {
	// Logger is scoped to the target being built.
	Logger zerolog.Logger

	// HostTriple identifies the machine running the build.
	HostTriple string

	// TargetTriple identifies the machine the artifact targets.
	TargetTriple string

	// Release selects release (vs debug) build settings.
	Release bool

	// OptLevel is the optimization level passed to compilation steps.
	OptLevel string

	// OutputPath is the per-target output directory,
	// <build root>/<target triple>/<release|debug>/<target name>.
	// Created before the handler is invoked.
	OutputPath string
}
