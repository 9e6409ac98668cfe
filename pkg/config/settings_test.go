package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoader_LoadBytes(t *testing.T) {
	loader, err := NewLoader()
	if err != nil {
		t.Fatalf("NewLoader() failed: %v", err)
	}

	tests := []struct {
		name    string
		source  string
		wantErr string
		check   func(*testing.T, *WorkspaceSettings)
	}{
		{
			name: "minimal settings",
			source: `
name: "myapp"
`,
			check: func(t *testing.T, s *WorkspaceSettings) {
				if s.Name != "myapp" {
					t.Errorf("Name = %q", s.Name)
				}
			},
		},
		{
			name: "full settings",
			source: `
name:          "myapp"
build_path:    "out"
target_triple: "x86_64-unknown-linux-gnu"
release:       true
opt_level:     "2"
history_path:  ".oxbuild/history.db"
policy: {
	enabled: true
	paths: ["policies/build.rego"]
}
telemetry: {
	metrics_listen: ":9090"
	trace_exporter: "stdout"
}
`,
			check: func(t *testing.T, s *WorkspaceSettings) {
				if s.BuildPath != "out" || !s.Release || s.OptLevel != "2" {
					t.Errorf("unexpected settings: %+v", s)
				}
				if s.Policy == nil || !s.Policy.Enabled || len(s.Policy.Paths) != 1 {
					t.Errorf("policy settings not decoded: %+v", s.Policy)
				}
				if s.Telemetry == nil || s.Telemetry.TraceExporter != "stdout" {
					t.Errorf("telemetry settings not decoded: %+v", s.Telemetry)
				}
			},
		},
		{
			name:    "missing name",
			source:  `build_path: "out"`,
			wantErr: "name",
		},
		{
			name: "unknown field rejected",
			source: `
name:    "myapp"
unknown: true
`,
			wantErr: "unknown",
		},
		{
			name: "bad opt level",
			source: `
name:      "myapp"
opt_level: "9"
`,
			wantErr: "opt_level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings, err := loader.LoadBytes("oxbuild.cue", []byte(tt.source))
			if tt.wantErr != "" {
				if err == nil {
					t.Fatal("expected load to fail")
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("error %q does not mention %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadBytes() failed: %v", err)
			}
			tt.check(t, settings)
		})
	}
}

func TestLoader_LoadFile(t *testing.T) {
	loader, err := NewLoader()
	if err != nil {
		t.Fatalf("NewLoader() failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "oxbuild.cue")
	if err := os.WriteFile(path, []byte(`name: "fromfile"`), 0o644); err != nil {
		t.Fatalf("writing settings: %v", err)
	}

	settings, err := loader.Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if settings.Name != "fromfile" {
		t.Errorf("Name = %q", settings.Name)
	}
}

func TestDefaults(t *testing.T) {
	d := Defaults()
	if d.BuildPath != "build" || d.OptLevel != "0" {
		t.Errorf("unexpected defaults: %+v", d)
	}
}
