package commands

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/oxbuild/oxbuild/pkg/eval"
)

func newDevCommand() *cobra.Command {
	var (
		targets      []string
		targetTriple string
		buildPath    string
	)

	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Watch the configuration script and rebuild on change",
		Long: `Evaluate and build, then watch the configuration script for changes
and rebuild automatically. Workspace policy files are watched too and
gate every rebuild. Evaluation failures are reported and watching
continues; stop with Ctrl+C.`,
		Example: `  # Rebuild the default target on every script change
  oxbuild dev

  # Rebuild specific targets
  oxbuild dev --target exe --target install`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			settings, err := loadSettings()
			if err != nil {
				return err
			}

			gate, err := newPolicyEngine(ctx, settings)
			if err != nil {
				return err
			}

			rebuild := func() {
				ec, err := evaluateScript(ctx, settings, eval.Options{
					TargetTriple:   targetTriple,
					Release:        settings.Release,
					BuildPath:      buildPath,
					ResolveTargets: targets,
				})
				if err != nil {
					log.Error().Err(err).Msg("Evaluation failed")
					return
				}

				names, err := ec.TargetsToResolve()
				if err != nil {
					log.Error().Err(err).Msg("No targets to build")
					return
				}

				for _, name := range names {
					if gate != nil {
						if target := ec.Environment().GetTarget(name); target != nil {
							result, err := gate.EvaluateBuild(ctx, buildRequestFor(ec.Environment(), target))
							if err != nil {
								log.Error().Err(err).Str("target", name).Msg("Policy evaluation failed")
								continue
							}
							logPolicyViolations(result)
							if !result.Allowed {
								log.Error().Str("target", name).Msg("Build blocked by policy")
								continue
							}
						}
					}

					resolved, err := ec.BuildTarget(ctx, name)
					if err != nil {
						log.Error().Err(err).Str("target", name).Msg("Build failed")
						continue
					}
					log.Info().
						Str("target", name).
						Str("output", resolved.OutputPath).
						Msg("Target built")
				}
			}

			rebuild()

			// Edited policies take effect on the next rebuild.
			if gate != nil && len(settings.Policy.Paths) > 0 {
				if err := gate.WatchPolicies(ctx, settings.Policy.Paths, rebuild); err != nil {
					return err
				}
			}

			return watchScript(ctx, scriptPath, rebuild)
		},
	}

	cmd.Flags().StringArrayVarP(&targets, "target", "t", nil, "target to build (repeatable)")
	cmd.Flags().StringVar(&targetTriple, "target-triple", "", "platform triple artifacts target")
	cmd.Flags().StringVar(&buildPath, "build-path", "", "build output root")

	return cmd
}

// watchScript watches the directory holding the script and invokes
// rebuild on writes to it. Editors replace files on save, so watching
// the directory instead of the file survives renames.
func watchScript(ctx context.Context, path string, rebuild func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	log.Info().Str("script", path).Msg("Watching for changes")

	// Debounce rebuilds
	var rebuildTimer *time.Timer
	rebuildDelay := 300 * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			changed, err := filepath.Abs(event.Name)
			if err != nil || changed != abs {
				continue
			}

			log.Debug().Str("op", event.Op.String()).Msg("Script changed")
			if rebuildTimer != nil {
				rebuildTimer.Stop()
			}
			rebuildTimer = time.AfterFunc(rebuildDelay, rebuild)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("Watcher error")
		}
	}
}
