package interp

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolve_OriginTemplating(t *testing.T) {
	tests := []struct {
		name  string
		paths []string
		want  []string
	}{
		{
			name:  "simple substitution",
			paths: []string{"$ORIGIN/lib"},
			want:  []string{"/opt/app/lib"},
		},
		{
			name:  "no path normalization",
			paths: []string{"$ORIGIN/../x"},
			want:  []string{"/opt/app/../x"},
		},
		{
			name:  "untemplated paths pass through",
			paths: []string{"/usr/lib/runtime"},
			want:  []string{"/usr/lib/runtime"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewOxidizedConfig()
			cfg.Exe = "/opt/app/myapp"
			cfg.Origin = "/opt/app"
			cfg.Interpreter.ModuleSearchPaths = tt.paths

			resolved, err := cfg.Resolve()
			if err != nil {
				t.Fatalf("Resolve() failed: %v", err)
			}

			got := resolved.Config().Interpreter.ModuleSearchPaths
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d paths, got %d", len(tt.want), len(got))
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("paths[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestResolve_TclLibraryTemplating(t *testing.T) {
	cfg := NewOxidizedConfig()
	cfg.Origin = "/opt/app"
	cfg.Exe = "/opt/app/myapp"
	cfg.TclLibrary = "$ORIGIN/tcl8.6"

	resolved, err := cfg.Resolve()
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	if got := resolved.Config().TclLibrary; got != "/opt/app/tcl8.6" {
		t.Errorf("TclLibrary = %q, want %q", got, "/opt/app/tcl8.6")
	}
}

func TestResolve_BootstrapDefaulting(t *testing.T) {
	cfg := NewOxidizedConfig()

	resolved, err := cfg.Resolve()
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}

	exe, err := os.Executable()
	if err != nil {
		t.Skipf("current executable unavailable: %v", err)
	}

	if resolved.Exe() != exe {
		t.Errorf("Exe() = %q, want %q", resolved.Exe(), exe)
	}
	if resolved.Origin() != filepath.Dir(exe) {
		t.Errorf("Origin() = %q, want %q", resolved.Origin(), filepath.Dir(exe))
	}
}

func TestResolve_ExplicitFieldsPassThrough(t *testing.T) {
	cfg := NewOxidizedConfig()
	cfg.Exe = "/opt/app/myapp"
	cfg.Origin = "/elsewhere"
	cfg.Interpreter.Profile = ProfileIsolated
	cfg.OxidizedImporter = true
	cfg.FilesystemImporter = false
	cfg.SysFrozen = true
	cfg.WriteModulesDirectoryEnv = "OXBUILD_MODULES_DIR"

	resolved, err := cfg.Resolve()
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}

	got := resolved.Config()
	if resolved.Origin() != "/elsewhere" {
		t.Errorf("explicit origin not preserved: %q", resolved.Origin())
	}
	if got.Interpreter.Profile != ProfileIsolated {
		t.Errorf("Profile = %q, want isolated", got.Interpreter.Profile)
	}
	if !got.OxidizedImporter || got.FilesystemImporter {
		t.Error("importer flags did not pass through")
	}
	if !got.SysFrozen {
		t.Error("SysFrozen did not pass through")
	}
	if got.WriteModulesDirectoryEnv != "OXBUILD_MODULES_DIR" {
		t.Errorf("WriteModulesDirectoryEnv = %q", got.WriteModulesDirectoryEnv)
	}
}

func TestResolveSysArgv_Asymmetry(t *testing.T) {
	tests := []struct {
		name         string
		lowLevelArgv []string
		override     []string
		wantArgv     []string
		wantSet      bool
		wantArgvb    []string
	}{
		{
			name:         "low-level argv wins byte form, text form untouched",
			lowLevelArgv: []string{"a"},
			override:     []string{"b"},
			wantArgv:     nil,
			wantSet:      false,
			wantArgvb:    []string{"a"},
		},
		{
			name:      "builder override used by both",
			override:  []string{"b"},
			wantArgv:  []string{"b"},
			wantSet:   true,
			wantArgvb: []string{"b"},
		},
		{
			name:      "both unset fall back to live process args",
			wantArgv:  os.Args,
			wantSet:   true,
			wantArgvb: os.Args,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewOxidizedConfig()
			cfg.Interpreter.Argv = tt.lowLevelArgv
			cfg.Argv = tt.override

			argv, set := cfg.ResolveSysArgv()
			if set != tt.wantSet {
				t.Fatalf("ResolveSysArgv() set = %v, want %v", set, tt.wantSet)
			}
			if !equalStrings(argv, tt.wantArgv) {
				t.Errorf("ResolveSysArgv() = %v, want %v", argv, tt.wantArgv)
			}

			argvb := cfg.ResolveSysArgvb()
			if !equalStrings(argvb, tt.wantArgvb) {
				t.Errorf("ResolveSysArgvb() = %v, want %v", argvb, tt.wantArgvb)
			}
		})
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
