package engine

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Build resolves a registered target into a concrete artifact.
//
// Builds are memoized: the first successful build is cached on the target
// and returned unchanged by every later call, so the artifact's build
// handler is invoked at most once per environment context. An I/O failure
// while preparing the output directory leaves the target resolved, making
// the build retryable without re-evaluating the script.
func (ec *EnvironmentContext) Build(ctx context.Context, name string) (*ResolvedTarget, error) {
	target := ec.targets[name]
	if target == nil {
		return nil, NewBuildError(ErrorKindTargetNotRegistered, name, nil)
	}

	if target.Built != nil {
		return target.Built, nil
	}

	if target.Descriptor == nil {
		return nil, NewBuildError(ErrorKindTargetNotResolved, name, nil)
	}

	buildable, ok := target.Descriptor.(Buildable)
	if !ok {
		return nil, NewBuildError(ErrorKindUnsupportedTargetType, name, nil)
	}

	bc, err := ec.buildContext(name)
	if err != nil {
		return nil, NewBuildError(ErrorKindBuildIO, name, err).WithOp("creating output path")
	}

	buildID := uuid.NewString()
	logger := bc.Logger.With().Str("build_id", buildID).Logger()
	logger.Info().
		Str("kind", buildable.Kind()).
		Str("output_path", bc.OutputPath).
		Msg("building target")

	// Builds run sequentially; the registry must not be mutated while a
	// handler is executing.
	ec.building = true
	started := time.Now()
	resolved, err := buildable.Build(ctx, bc)
	ec.building = false

	if err != nil {
		return nil, NewBuildError(ErrorKindBuild, name, err)
	}

	logger.Info().
		Dur("duration", time.Since(started)).
		Msg("target built")

	target.Built = resolved
	return resolved, nil
}

// Run builds a target and invokes its run entrypoint. Build failures are
// returned unchanged and the entrypoint is never invoked after one. Run
// failures from the artifact propagate verbatim; exit-code semantics are
// owned by the caller.
func (ec *EnvironmentContext) Run(ctx context.Context, name string) error {
	resolved, err := ec.Build(ctx, name)
	if err != nil {
		return err
	}

	if !resolved.Runnable() {
		return NewBuildError(ErrorKindNotRunnable, name, nil)
	}

	ec.Logger.Info().Str("target", name).Msg("running target")
	if err := resolved.RunTarget(ctx); err != nil {
		return NewBuildError(ErrorKindRun, name, err)
	}
	return nil
}

// buildContext derives the ephemeral per-invocation state for building
// name, creating the target's output directory. Directory creation is
// recursive and idempotent.
func (ec *EnvironmentContext) buildContext(name string) (*BuildContext, error) {
	mode := "debug"
	if ec.BuildRelease {
		mode = "release"
	}
	outputPath := filepath.Join(ec.BuildPath, ec.BuildTargetTriple, mode, name)

	if err := os.MkdirAll(outputPath, 0o755); err != nil {
		return nil, err
	}

	return &BuildContext{
		Logger:       ec.Logger.With().Str("target", name).Logger(),
		HostTriple:   ec.BuildHostTriple,
		TargetTriple: ec.BuildTargetTriple,
		Release:      ec.BuildRelease,
		OptLevel:     ec.BuildOptLevel,
		OutputPath:   outputPath,
	}, nil
}
