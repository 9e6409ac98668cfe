package engine

import (
	"fmt"
	"runtime"

	"github.com/rs/zerolog"
)

// EnvironmentContext holds the build parameters and the target registry
// for one evaluation of a configuration script. It is owned exclusively by
// the evaluation driver; the script evaluator and the resolver mutate it
// only through this API.
//
// The registry preserves insertion order and never shrinks. Target names
// are unique.
type EnvironmentContext struct {
	// Logger is the root logger for this evaluation.
	Logger zerolog.Logger

	// Verbose enables extra build output.
	Verbose bool

	// ConfigPath is the configuration script being evaluated.
	ConfigPath string

	// BuildHostTriple identifies the machine running the build.
	BuildHostTriple string

	// BuildTargetTriple identifies the machine artifacts target.
	BuildTargetTriple string

	// BuildRelease selects release (vs debug) artifacts.
	BuildRelease bool

	// BuildOptLevel is the optimization level for compiled artifacts.
	BuildOptLevel string

	// BuildPath is the root of the build output tree.
	BuildPath string

	targets        map[string]*BuildTarget
	targetsOrder   []string
	defaultTarget  string
	resolveTargets []string
	scriptMode     bool

	// building guards the registry against re-entrant mutation during a
	// build. Aliased mutation is a defect, not a recoverable condition.
	building bool
}

// EnvironmentConfig carries the parameters for a new environment context.
type EnvironmentConfig struct {
	Logger         zerolog.Logger
	Verbose        bool
	ConfigPath     string
	TargetTriple   string
	Release        bool
	OptLevel       string
	BuildPath      string
	ResolveTargets []string

	// ScriptMode resolves every registered target instead of the explicit
	// request list or the default.
	ScriptMode bool
}

// NewEnvironmentContext creates an environment context for one evaluation.
func NewEnvironmentContext(cfg EnvironmentConfig) *EnvironmentContext {
	targetTriple := cfg.TargetTriple
	if targetTriple == "" {
		targetTriple = HostTriple()
	}
	optLevel := cfg.OptLevel
	if optLevel == "" {
		optLevel = "0"
	}

	return &EnvironmentContext{
		Logger:            cfg.Logger,
		Verbose:           cfg.Verbose,
		ConfigPath:        cfg.ConfigPath,
		BuildHostTriple:   HostTriple(),
		BuildTargetTriple: targetTriple,
		BuildRelease:      cfg.Release,
		BuildOptLevel:     optLevel,
		BuildPath:         cfg.BuildPath,
		targets:           make(map[string]*BuildTarget),
		resolveTargets:    cfg.ResolveTargets,
		scriptMode:        cfg.ScriptMode,
	}
}

// RegisterTarget inserts a new target into the registry. The descriptor
// may be nil, leaving the target unresolved until a concrete artifact is
// bound. Registering an existing name fails with a duplicate-target error.
//
// When markDefault is true, or when this is the first registration and no
// default has been chosen, the target becomes the default.
func (ec *EnvironmentContext) RegisterTarget(name string, descriptor interface{}, markDefault bool) error {
	ec.assertMutable("RegisterTarget")

	if _, exists := ec.targets[name]; exists {
		return NewBuildError(ErrorKindDuplicateTarget, name, nil)
	}

	ec.targets[name] = &BuildTarget{
		Name:       name,
		Order:      len(ec.targetsOrder),
		Descriptor: descriptor,
	}
	ec.targetsOrder = append(ec.targetsOrder, name)

	if markDefault || ec.defaultTarget == "" {
		ec.defaultTarget = name
	}

	ec.Logger.Debug().
		Str("target", name).
		Bool("default", ec.defaultTarget == name).
		Msg("registered target")

	return nil
}

// DefaultTarget returns the name the script marked as default. When no
// target was explicitly marked, the fallback is the first-registered
// target. Returns "" when the registry is empty.
func (ec *EnvironmentContext) DefaultTarget() string {
	return ec.defaultTarget
}

// TargetNames returns all registered names in insertion order.
func (ec *EnvironmentContext) TargetNames() []string {
	names := make([]string, len(ec.targetsOrder))
	copy(names, ec.targetsOrder)
	return names
}

// GetTarget returns the target registered under name, or nil.
func (ec *EnvironmentContext) GetTarget(name string) *BuildTarget {
	return ec.targets[name]
}

// TargetsToResolve returns the explicit list requested by the caller, or
// the singleton default target when nothing was requested. Fails when
// neither is available. In script mode every registered target is
// resolved, in insertion order.
func (ec *EnvironmentContext) TargetsToResolve() ([]string, error) {
	if ec.scriptMode {
		return ec.TargetNames(), nil
	}
	if len(ec.resolveTargets) > 0 {
		names := make([]string, len(ec.resolveTargets))
		copy(names, ec.resolveTargets)
		return names, nil
	}
	if ec.defaultTarget != "" {
		return []string{ec.defaultTarget}, nil
	}
	return nil, NewBuildError(ErrorKindNoDefaultTarget, "", nil)
}

// assertMutable panics when the registry is mutated while a build is in
// flight. This is a programming-error class, mirroring a checked exclusive
// borrow, and is deliberately not surfaced as a recoverable error.
func (ec *EnvironmentContext) assertMutable(op string) {
	if ec.building {
		panic(fmt.Sprintf("engine: %s called while a build is in progress", op))
	}
}

// HostTriple returns the target-triple string for the machine this
// process is running on.
func HostTriple() string {
	arch := runtime.GOARCH
	switch arch {
	case "amd64":
		arch = "x86_64"
	case "386":
		arch = "i686"
	case "arm64":
		arch = "aarch64"
	}

	switch runtime.GOOS {
	case "darwin":
		return arch + "-apple-darwin"
	case "windows":
		return arch + "-pc-windows-msvc"
	default:
		return arch + "-unknown-" + runtime.GOOS + "-gnu"
	}
}
