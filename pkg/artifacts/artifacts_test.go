package artifacts

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/oxbuild/oxbuild/pkg/engine"
	"github.com/oxbuild/oxbuild/pkg/interp"
)

func testBuildContext(t *testing.T) *engine.BuildContext {
	t.Helper()
	return &engine.BuildContext{
		Logger:       zerolog.Nop(),
		HostTriple:   engine.HostTriple(),
		TargetTriple: engine.HostTriple(),
		OptLevel:     "0",
		OutputPath:   t.TempDir(),
	}
}

func TestFileManifest_Build(t *testing.T) {
	m := NewFileManifest()
	m.AddFile("bin/run.sh", []byte("#!/bin/sh\necho hi\n"), true)
	m.AddFile("share/readme.txt", []byte("hello"), false)

	bc := testBuildContext(t)
	resolved, err := m.Build(context.Background(), bc)
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(bc.OutputPath, "share/readme.txt"))
	if err != nil {
		t.Fatalf("installed file missing: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("unexpected file content: %q", data)
	}

	info, err := os.Stat(filepath.Join(bc.OutputPath, "bin/run.sh"))
	if err != nil {
		t.Fatalf("executable entry missing: %v", err)
	}
	if info.Mode().Perm()&0o111 == 0 {
		t.Error("executable entry installed without exec bit")
	}

	indexData, err := os.ReadFile(filepath.Join(bc.OutputPath, "manifest.yaml"))
	if err != nil {
		t.Fatalf("manifest index missing: %v", err)
	}
	var index struct {
		Files []FileEntry `yaml:"files"`
	}
	if err := yaml.Unmarshal(indexData, &index); err != nil {
		t.Fatalf("decoding manifest index: %v", err)
	}
	if len(index.Files) != 2 {
		t.Errorf("expected 2 index entries, got %d", len(index.Files))
	}

	// Exactly one executable entry makes the manifest runnable.
	if resolved.Run.Mode != engine.RunModePath {
		t.Errorf("expected runnable target, got %s", resolved.Run.Mode)
	}
	if !strings.HasSuffix(resolved.Run.Path, "bin/run.sh") {
		t.Errorf("unexpected run path %q", resolved.Run.Path)
	}
}

func TestFileManifest_AddFileReplaces(t *testing.T) {
	m := NewFileManifest()
	m.AddFile("a.txt", []byte("one"), false)
	m.AddFile("a.txt", []byte("two"), false)

	if len(m.Entries()) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(m.Entries()))
	}
	if string(m.Entries()[0].Data) != "two" {
		t.Errorf("entry not replaced: %q", m.Entries()[0].Data)
	}
}

func TestResourceBundle_Build(t *testing.T) {
	b := NewResourceBundle()
	b.AddResource([]byte{0x01, 0x02})
	b.AddResource([]byte{0x03})

	bc := testBuildContext(t)
	resolved, err := b.Build(context.Background(), bc)
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	if len(resolved.Paths) != 2 {
		t.Fatalf("expected 2 blob files, got %d", len(resolved.Paths))
	}
	if resolved.Run.Mode != engine.RunModeNone {
		t.Error("resource bundles must not be runnable")
	}

	data, err := os.ReadFile(resolved.Paths[1])
	if err != nil {
		t.Fatalf("blob file missing: %v", err)
	}
	if len(data) != 1 || data[0] != 0x03 {
		t.Errorf("unexpected blob content: %v", data)
	}
}

func TestExecutable_BuildEmbedsResolvedConfig(t *testing.T) {
	exe := NewExecutable("myapp")
	exe.Config.Origin = "/opt/app"
	exe.Config.Exe = "/opt/app/myapp"
	exe.Config.Interpreter.Profile = interp.ProfileIsolated
	exe.Config.Interpreter.ModuleSearchPaths = []string{"$ORIGIN/lib"}

	bc := testBuildContext(t)
	resolved, err := exe.Build(context.Background(), bc)
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	if resolved.Run.Mode != engine.RunModePath {
		t.Fatal("executable target must be runnable")
	}

	configData, err := os.ReadFile(filepath.Join(bc.OutputPath, "myapp.interpreter.json"))
	if err != nil {
		t.Fatalf("embedded configuration missing: %v", err)
	}
	var cfg interp.OxidizedConfig
	if err := json.Unmarshal(configData, &cfg); err != nil {
		t.Fatalf("decoding embedded configuration: %v", err)
	}

	if cfg.Interpreter.Profile != interp.ProfileIsolated {
		t.Errorf("Profile = %q, want isolated", cfg.Interpreter.Profile)
	}
	if len(cfg.Interpreter.ModuleSearchPaths) != 1 ||
		cfg.Interpreter.ModuleSearchPaths[0] != "/opt/app/lib" {
		t.Errorf("module search paths not templated: %v", cfg.Interpreter.ModuleSearchPaths)
	}
	if cfg.Exe != "/opt/app/myapp" || cfg.Origin != "/opt/app" {
		t.Errorf("exe/origin not embedded: %q %q", cfg.Exe, cfg.Origin)
	}
}

func TestExecutable_BuildRequiresName(t *testing.T) {
	exe := &Executable{Config: interp.NewOxidizedConfig()}

	if _, err := exe.Build(context.Background(), testBuildContext(t)); err == nil {
		t.Error("expected build of unnamed executable to fail")
	}
}
