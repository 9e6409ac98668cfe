package commands

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/oxbuild/oxbuild/pkg/artifacts"
	"github.com/oxbuild/oxbuild/pkg/config"
	"github.com/oxbuild/oxbuild/pkg/engine"
	"github.com/oxbuild/oxbuild/pkg/eval"
	"github.com/oxbuild/oxbuild/pkg/policy"
	"github.com/oxbuild/oxbuild/pkg/stores"
	"github.com/oxbuild/oxbuild/pkg/telemetry"
)

// loadSettings reads the workspace settings file if it exists, falling
// back to defaults. A missing file is not an error; a broken one is.
func loadSettings() (*config.WorkspaceSettings, error) {
	if _, err := os.Stat(settingsPath); os.IsNotExist(err) {
		return config.Defaults(), nil
	}

	loader, err := config.NewLoader()
	if err != nil {
		return nil, err
	}
	return loader.Load(settingsPath)
}

// evalLogger returns the logger handed to script evaluation, honoring
// the --verbose flag.
func evalLogger() zerolog.Logger {
	logger := log.Logger
	if verbose {
		logger = logger.Level(zerolog.DebugLevel)
	}
	return logger
}

// evaluateScript runs the configuration script with settings-derived
// defaults and any command-line overrides already folded into opts.
func evaluateScript(ctx context.Context, settings *config.WorkspaceSettings, opts eval.Options) (*eval.EvaluationContext, error) {
	if opts.ConfigPath == "" {
		opts.ConfigPath = scriptPath
	}
	if opts.TargetTriple == "" {
		opts.TargetTriple = settings.TargetTriple
	}
	if opts.OptLevel == "" {
		opts.OptLevel = settings.OptLevel
	}
	if opts.BuildPath == "" {
		opts.BuildPath = settings.BuildPath
	}
	opts.Logger = evalLogger()
	opts.Verbose = verbose

	return eval.Evaluate(ctx, opts)
}

// newPolicyEngine creates the build gate with workspace policies loaded.
// Returns nil when the gate is disabled.
func newPolicyEngine(ctx context.Context, settings *config.WorkspaceSettings) (*policy.Engine, error) {
	if settings.Policy == nil || !settings.Policy.Enabled {
		return nil, nil
	}

	gate, err := policy.NewEngine(log.Logger)
	if err != nil {
		return nil, err
	}
	if len(settings.Policy.Paths) > 0 {
		if err := gate.LoadPolicies(ctx, settings.Policy.Paths); err != nil {
			return nil, err
		}
	}
	return gate, nil
}

// logPolicyViolations logs each violation at a level matching its
// severity.
func logPolicyViolations(result *policy.Result) {
	for _, v := range result.Violations {
		if v.Severity == policy.SeverityError {
			log.Error().Str("policy", v.Policy).Str("target", v.Target).Msg(v.Message)
		} else {
			log.Warn().Str("policy", v.Policy).Str("target", v.Target).Msg(v.Message)
		}
	}
}

// newTelemetry builds the telemetry handle from workspace settings and
// starts the metrics endpoint when one is configured.
func newTelemetry(settings *config.WorkspaceSettings) (*telemetry.Telemetry, error) {
	cfg := telemetry.DefaultConfig()
	if verbose {
		cfg.Logging.Level = "debug"
	}

	if settings.Telemetry != nil {
		if settings.Telemetry.MetricsListen != "" {
			cfg.Metrics.Enabled = true
			cfg.Metrics.ListenAddress = settings.Telemetry.MetricsListen
		}
		if settings.Telemetry.TraceExporter != "" && settings.Telemetry.TraceExporter != "none" {
			cfg.Tracing.Enabled = true
			cfg.Tracing.Exporter = settings.Telemetry.TraceExporter
			cfg.Tracing.Endpoint = settings.Telemetry.TraceEndpoint
		}
	}

	tel, err := telemetry.NewTelemetry(cfg)
	if err != nil {
		return nil, err
	}
	if err := tel.Metrics.StartMetricsServer(); err != nil {
		return nil, err
	}
	return tel, nil
}

// openHistory opens the build-history store named by the workspace
// settings. Returns nil when history is disabled.
func openHistory(ctx context.Context, settings *config.WorkspaceSettings) (*stores.SQLiteStore, error) {
	if settings.HistoryPath == "" {
		return nil, nil
	}

	store, err := stores.NewSQLiteStore(stores.Config{Path: settings.HistoryPath})
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

// buildRequestFor describes a registered target to the policy gate.
func buildRequestFor(env *engine.EnvironmentContext, target *engine.BuildTarget) *policy.BuildRequest {
	req := &policy.BuildRequest{
		Target:       target.Name,
		TargetTriple: env.BuildTargetTriple,
		Release:      env.BuildRelease,
		OptLevel:     env.BuildOptLevel,
	}

	if buildable, ok := target.Descriptor.(engine.Buildable); ok {
		req.Kind = buildable.Kind()
	}

	if exe, ok := target.Descriptor.(*artifacts.Executable); ok {
		req.Profile = string(exe.Config.Interpreter.Profile)
		req.FilesystemImporter = exe.Config.FilesystemImporter
	}

	return req
}
