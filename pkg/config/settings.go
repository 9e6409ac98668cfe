package config

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/go-playground/validator/v10"
)

// WorkspaceSettings is the optional per-project configuration loaded from
// oxbuild.cue. It supplies defaults the CLI flags can override; the build
// behavior itself is defined by the Starlark configuration script.
type WorkspaceSettings struct {
	// Name is the workspace name.
	Name string `json:"name" validate:"required"`

	// BuildPath is the build output root, relative to the workspace.
	BuildPath string `json:"build_path,omitempty"`

	// TargetTriple is the default platform artifacts target.
	TargetTriple string `json:"target_triple,omitempty"`

	// Release selects release artifacts by default.
	Release bool `json:"release,omitempty"`

	// OptLevel is the default optimization level.
	OptLevel string `json:"opt_level,omitempty" validate:"omitempty,oneof=0 1 2 3 s z"`

	// HistoryPath is the SQLite build-history database path. Empty
	// disables build history.
	HistoryPath string `json:"history_path,omitempty"`

	// Policy configures the build policy gate.
	Policy *PolicySettings `json:"policy,omitempty"`

	// Telemetry configures metrics and tracing.
	Telemetry *TelemetrySettings `json:"telemetry,omitempty"`
}

// PolicySettings configures the OPA build gate.
type PolicySettings struct {
	// Enabled turns policy evaluation on before every build.
	Enabled bool `json:"enabled"`

	// Paths lists additional Rego policy files to load.
	Paths []string `json:"paths,omitempty"`
}

// TelemetrySettings configures metrics and tracing.
type TelemetrySettings struct {
	// MetricsListen is the Prometheus listen address, e.g. ":9090".
	// Empty disables the metrics endpoint.
	MetricsListen string `json:"metrics_listen,omitempty"`

	// TraceExporter selects the span exporter: "none", "stdout", or "otlp".
	TraceExporter string `json:"trace_exporter,omitempty" validate:"omitempty,oneof=none stdout otlp"`

	// TraceEndpoint is the OTLP collector endpoint.
	TraceEndpoint string `json:"trace_endpoint,omitempty"`
}

// Loader parses and validates workspace settings files.
type Loader struct {
	ctx      *cue.Context
	schema   cue.Value
	validate *validator.Validate
}

// NewLoader creates a settings loader with the built-in schema compiled.
func NewLoader() (*Loader, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(workspaceSchema)
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compiling workspace schema: %w", err)
	}
	return &Loader{
		ctx:      ctx,
		schema:   schema,
		validate: validator.New(),
	}, nil
}

// Load reads, schema-checks, and decodes a workspace settings file.
func (l *Loader) Load(path string) (*WorkspaceSettings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading settings file: %w", err)
	}
	return l.LoadBytes(path, data)
}

// LoadBytes parses settings from an in-memory CUE document.
func (l *Loader) LoadBytes(filename string, data []byte) (*WorkspaceSettings, error) {
	val := l.ctx.CompileBytes(data, cue.Filename(filename))
	if err := val.Err(); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filename, err)
	}

	unified := l.schema.Unify(val)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("validating %s: %w", filename, err)
	}

	var settings WorkspaceSettings
	if err := unified.Decode(&settings); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filename, err)
	}

	if err := l.validate.Struct(&settings); err != nil {
		return nil, fmt.Errorf("settings validation failed: %w", err)
	}

	return &settings, nil
}

// Defaults returns the settings used when no workspace file exists.
func Defaults() *WorkspaceSettings {
	return &WorkspaceSettings{
		Name:      "oxbuild",
		BuildPath: "build",
		OptLevel:  "0",
	}
}
