package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/oxbuild/oxbuild/pkg/engine"
	"github.com/oxbuild/oxbuild/pkg/eval"
	"github.com/oxbuild/oxbuild/pkg/policy"
	"github.com/oxbuild/oxbuild/pkg/stores"
	"github.com/oxbuild/oxbuild/pkg/telemetry"
)

func newBuildCommand() *cobra.Command {
	var (
		targets      []string
		targetTriple string
		release      bool
		optLevel     string
		buildPath    string
		noPolicy     bool
		scriptMode   bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build targets from the configuration script",
		Long: `Evaluate the configuration script and materialize build targets.

Without --target, the script's default target is built. Each target is
built at most once per invocation; output lands under
<build-path>/<target-triple>/<debug|release>/<target-name>.`,
		Example: `  # Build the default target
  oxbuild build

  # Build specific targets in release mode
  oxbuild build --target exe --target install --release

  # Cross-flavored output layout
  oxbuild build --target-triple x86_64-unknown-linux-gnu --opt-level 2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			settings, err := loadSettings()
			if err != nil {
				return err
			}

			tel, err := newTelemetry(settings)
			if err != nil {
				return err
			}
			defer func() {
				_ = tel.Shutdown(context.Background())
			}()

			evalStart := time.Now()
			evalCtx, evalSpan := tel.Tracer.StartEvaluationSpan(ctx, scriptPath)
			ec, err := evaluateScript(evalCtx, settings, eval.Options{
				TargetTriple:   targetTriple,
				Release:        release || settings.Release,
				OptLevel:       optLevel,
				BuildPath:      buildPath,
				ResolveTargets: targets,
				ScriptMode:     scriptMode,
			})
			telemetry.RecordError(evalSpan, err)
			if err == nil {
				telemetry.RecordSuccess(evalSpan)
			}
			evalSpan.End()
			if err != nil {
				tel.Metrics.RecordEvaluation("failed", time.Since(evalStart))
				return err
			}
			tel.Metrics.RecordEvaluation("success", time.Since(evalStart))
			tel.Metrics.SetRegisteredTargets(len(ec.TargetNames()))

			names, err := ec.TargetsToResolve()
			if err != nil {
				return err
			}

			var gate *policy.Engine
			if !noPolicy {
				gate, err = newPolicyEngine(ctx, settings)
				if err != nil {
					return err
				}
			}

			history, err := openHistory(ctx, settings)
			if err != nil {
				return err
			}
			if history != nil {
				defer history.Close()
			}

			for _, name := range names {
				if err := buildOne(ctx, ec, tel, gate, history, name); err != nil {
					return err
				}
			}

			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&targets, "target", "t", nil, "target to build (repeatable; default: script's default target)")
	cmd.Flags().StringVar(&targetTriple, "target-triple", "", "platform triple artifacts target")
	cmd.Flags().BoolVar(&release, "release", false, "build release artifacts")
	cmd.Flags().StringVar(&optLevel, "opt-level", "", "optimization level (0, 1, 2, 3, s, z)")
	cmd.Flags().StringVar(&buildPath, "build-path", "", "build output root")
	cmd.Flags().BoolVar(&noPolicy, "no-policy", false, "skip the policy gate")
	cmd.Flags().BoolVar(&scriptMode, "script-mode", false, "build every registered target")

	return cmd
}

// buildOne gates, builds, and records a single target.
func buildOne(ctx context.Context, ec *eval.EvaluationContext, tel *telemetry.Telemetry, gate *policy.Engine, history *stores.SQLiteStore, name string) error {
	env := ec.Environment()
	target := env.GetTarget(name)
	if target == nil {
		return engine.NewBuildError(engine.ErrorKindTargetNotRegistered, name, nil)
	}

	kind := ""
	if buildable, ok := target.Descriptor.(engine.Buildable); ok {
		kind = buildable.Kind()
	}

	cached := target.State() == engine.TargetStateBuilt

	if gate != nil {
		result, err := gate.EvaluateBuild(ctx, buildRequestFor(env, target))
		if err != nil {
			return err
		}
		logPolicyViolations(result)
		if !result.Allowed {
			return fmt.Errorf("build of %q blocked by policy", name)
		}
	}

	buildCtx, span := tel.Tracer.StartBuildSpan(ctx, name, kind)

	start := time.Now()
	resolved, buildErr := ec.BuildTarget(buildCtx, name)
	duration := time.Since(start)

	telemetry.RecordError(span, buildErr)
	if buildErr == nil {
		telemetry.RecordSuccess(span)
	}
	span.End()

	switch {
	case buildErr != nil:
		tel.Metrics.RecordBuild(kind, "failed", duration)
		tel.Metrics.RecordError(string(engine.KindOf(buildErr)))
	case cached:
		tel.Metrics.RecordBuild(kind, "cached", duration)
	default:
		tel.Metrics.RecordBuild(kind, "succeeded", duration)
	}

	if history != nil {
		rec := &stores.BuildRecord{
			Target:       name,
			Kind:         kind,
			ConfigPath:   env.ConfigPath,
			TargetTriple: env.BuildTargetTriple,
			Release:      env.BuildRelease,
			Duration:     duration,
		}
		switch {
		case buildErr != nil:
			rec.Status = stores.BuildStatusFailed
			rec.Error = buildErr.Error()
		case cached:
			rec.Status = stores.BuildStatusCached
			rec.OutputPath = resolved.OutputPath
		default:
			rec.Status = stores.BuildStatusSucceeded
			rec.OutputPath = resolved.OutputPath
		}
		if err := history.RecordBuild(ctx, rec); err != nil {
			log.Warn().Err(err).Msg("Failed to record build history")
		}
	}

	if buildErr != nil {
		return buildErr
	}

	log.Info().
		Str("target", name).
		Str("output", resolved.OutputPath).
		Dur("duration", duration).
		Msg("Target built")

	return nil
}
