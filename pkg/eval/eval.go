package eval

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"github.com/oxbuild/oxbuild/pkg/engine"
)

// Options configures one evaluation of a configuration script.
type Options struct {
	// Logger is the root logger for the evaluation.
	Logger zerolog.Logger

	// ConfigPath is the Starlark configuration script to execute.
	ConfigPath string

	// TargetTriple selects the platform artifacts target. Defaults to the
	// host triple.
	TargetTriple string

	// Release selects release artifacts.
	Release bool

	// OptLevel is the optimization level for compiled artifacts.
	OptLevel string

	// Verbose enables extra build output.
	Verbose bool

	// ResolveTargets is the explicit list of targets to resolve. When
	// empty, the default target is resolved.
	ResolveTargets []string

	// ScriptMode resolves every registered target, the behavior expected
	// when the evaluation is driven by an outer build script. Takes
	// precedence over ResolveTargets.
	ScriptMode bool

	// BuildPath is the build output root. Defaults to a build/ directory
	// beside the configuration script.
	BuildPath string
}

// EvaluationContext is a completed evaluation: the environment context
// whose registry the script populated, ready to resolve targets.
type EvaluationContext struct {
	env *engine.EnvironmentContext
}

// Evaluate executes the configuration script at opts.ConfigPath.
//
// The script evaluator runs to completion before any target is built; its
// only observable side effects are target registrations. A failed
// evaluation returns a *Diagnostic (as error), which has already been
// logged.
func Evaluate(ctx context.Context, opts Options) (*EvaluationContext, error) {
	buildPath := opts.BuildPath
	if buildPath == "" {
		buildPath = filepath.Join(filepath.Dir(opts.ConfigPath), "build")
	}

	env := engine.NewEnvironmentContext(engine.EnvironmentConfig{
		Logger:         opts.Logger,
		Verbose:        opts.Verbose,
		ConfigPath:     opts.ConfigPath,
		TargetTriple:   opts.TargetTriple,
		Release:        opts.Release,
		OptLevel:       opts.OptLevel,
		BuildPath:      buildPath,
		ResolveTargets: opts.ResolveTargets,
		ScriptMode:     opts.ScriptMode,
	})

	source, err := os.ReadFile(opts.ConfigPath)
	if err != nil {
		return nil, engine.NewBuildError(engine.ErrorKindEnvironmentCreation, "", err).
			WithOp("reading configuration script")
	}

	ec := &EvaluationContext{env: env}
	if diag := ec.exec(ctx, opts.ConfigPath, source); diag != nil {
		opts.Logger.Error().
			Str("config_path", opts.ConfigPath).
			Interface("spans", diag.Spans).
			Msg(diag.Message)
		return nil, diag
	}

	opts.Logger.Debug().
		Strs("targets", env.TargetNames()).
		Str("default", env.DefaultTarget()).
		Msg("configuration script evaluated")

	return ec, nil
}

// exec runs the script against the host environment.
func (ec *EvaluationContext) exec(ctx context.Context, filename string, source []byte) *Diagnostic {
	thread := &starlark.Thread{
		Name: "oxbuild",
		Print: func(_ *starlark.Thread, msg string) {
			ec.env.Logger.Info().Msg(msg)
		},
	}
	thread.SetLocal(environmentKey, ec.env)

	if ctx != nil {
		done := make(chan struct{})
		defer close(done)
		go func() {
			select {
			case <-ctx.Done():
				thread.Cancel(ctx.Err().Error())
			case <-done:
			}
		}()
	}

	predeclared := starlark.StringDict{
		"struct":          starlarkstruct.Default,
		"register_target": starlark.NewBuiltin("register_target", builtinRegisterTarget),
		"file_manifest":   starlark.NewBuiltin("file_manifest", builtinFileManifest),
		"resource_bundle": starlark.NewBuiltin("resource_bundle", builtinResourceBundle),
		"executable":      starlark.NewBuiltin("executable", builtinExecutable),
	}

	if _, err := starlark.ExecFile(thread, filename, source, predeclared); err != nil {
		return diagnosticFromErr(err)
	}
	return nil
}

// Environment returns the underlying environment context.
func (ec *EvaluationContext) Environment() *engine.EnvironmentContext {
	return ec.env
}

// TargetNames returns all registered target names in insertion order.
func (ec *EvaluationContext) TargetNames() []string {
	return ec.env.TargetNames()
}

// DefaultTarget returns the default target name, or "".
func (ec *EvaluationContext) DefaultTarget() string {
	return ec.env.DefaultTarget()
}

// TargetsToResolve returns the targets the caller asked for, or the
// singleton default.
func (ec *EvaluationContext) TargetsToResolve() ([]string, error) {
	return ec.env.TargetsToResolve()
}

// BuildTarget builds one registered target by name.
func (ec *EvaluationContext) BuildTarget(ctx context.Context, name string) (*engine.ResolvedTarget, error) {
	return ec.env.Build(ctx, name)
}

// RunTarget builds a target and invokes its run entrypoint. An empty name
// selects the default target.
func (ec *EvaluationContext) RunTarget(ctx context.Context, name string) error {
	if name == "" {
		name = ec.env.DefaultTarget()
		if name == "" {
			return engine.NewBuildError(engine.ErrorKindNoDefaultTarget, "", nil)
		}
	}
	return ec.env.Run(ctx, name)
}
