package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/oxbuild/oxbuild/pkg/eval"
	"github.com/oxbuild/oxbuild/pkg/telemetry"
)

func newRunCommand() *cobra.Command {
	var (
		targetTriple string
		release      bool
		optLevel     string
		buildPath    string
	)

	cmd := &cobra.Command{
		Use:   "run [target]",
		Short: "Build a target and run it",
		Long: `Evaluate the configuration script, build the named target (or the
default target), and invoke its run entrypoint. Only targets that
produce a runnable artifact can be run.`,
		Example: `  # Build and run the default target
  oxbuild run

  # Build and run a specific target
  oxbuild run exe`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			name := ""
			if len(args) == 1 {
				name = args[0]
			}

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

			var resolve []string
			if name != "" {
				resolve = []string{name}
			}

			evalCtx, evalSpan := tel.Tracer.StartEvaluationSpan(ctx, scriptPath)
			ec, err := evaluateScript(evalCtx, settings, eval.Options{
				TargetTriple:   targetTriple,
				Release:        release || settings.Release,
				OptLevel:       optLevel,
				BuildPath:      buildPath,
				ResolveTargets: resolve,
			})
			telemetry.RecordError(evalSpan, err)
			if err == nil {
				telemetry.RecordSuccess(evalSpan)
			}
			evalSpan.End()
			if err != nil {
				return err
			}

			return ec.RunTarget(ctx, name)
		},
	}

	cmd.Flags().StringVar(&targetTriple, "target-triple", "", "platform triple artifacts target")
	cmd.Flags().BoolVar(&release, "release", false, "build release artifacts")
	cmd.Flags().StringVar(&optLevel, "opt-level", "", "optimization level (0, 1, 2, 3, s, z)")
	cmd.Flags().StringVar(&buildPath, "build-path", "", "build output root")

	return cmd
}
