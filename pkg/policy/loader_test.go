package policy

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestLoader_LoadRegoFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "no-debug-release.rego")
	src := `# Deny debug artifacts in release mode
package oxbuild.policies.custom

import rego.v1

deny contains violation if {
	input.build.release
	input.build.opt_level == "0"
	violation := "debug optimization in release build"
}
`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("writing policy: %v", err)
	}

	loader := NewLoader(zerolog.Nop())
	policies, err := loader.LoadFromPaths(context.Background(), []string{path})
	if err != nil {
		t.Fatalf("LoadFromPaths() failed: %v", err)
	}
	if len(policies) != 1 {
		t.Fatalf("expected 1 policy, got %d", len(policies))
	}
	if policies[0].Name != "no-debug-release" {
		t.Errorf("Name = %q", policies[0].Name)
	}
	if policies[0].Description == "" {
		t.Error("expected description extracted from leading comment")
	}
	if policies[0].Severity != SeverityWarning {
		t.Errorf("Severity = %q", policies[0].Severity)
	}
}

func TestLoader_LoadDirectory(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"a.rego":   "package oxbuild.policies.a\n",
		"b.json":   `{"name": "b", "rego": "package oxbuild.policies.b\n", "severity": "error", "enabled": true}`,
		"skip.txt": "not a policy",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}

	loader := NewLoader(zerolog.Nop())
	policies, err := loader.LoadFromPaths(context.Background(), []string{dir})
	if err != nil {
		t.Fatalf("LoadFromPaths() failed: %v", err)
	}
	if len(policies) != 2 {
		t.Fatalf("expected 2 policies, got %d", len(policies))
	}
}

func TestLoader_MissingPath(t *testing.T) {
	loader := NewLoader(zerolog.Nop())
	if _, err := loader.LoadFromPaths(context.Background(), []string{"/does/not/exist"}); err == nil {
		t.Error("expected error for missing path")
	}
}

func TestLoader_WatchReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.rego")
	if err := os.WriteFile(path, []byte("package oxbuild.policies.custom\n"), 0o644); err != nil {
		t.Fatalf("writing policy: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loader := NewLoader(zerolog.Nop())
	reloaded := make(chan []Policy, 1)
	err := loader.Watch(ctx, []string{dir}, func(policies []Policy) error {
		select {
		case reloaded <- policies:
		default:
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Watch() failed: %v", err)
	}
	defer func() {
		_ = loader.StopWatching()
	}()

	updated := "# updated rule\npackage oxbuild.policies.custom\n"
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		t.Fatalf("updating policy: %v", err)
	}

	select {
	case policies := <-reloaded:
		if len(policies) != 1 {
			t.Fatalf("expected 1 reloaded policy, got %d", len(policies))
		}
		if !strings.Contains(policies[0].Rego, "updated rule") {
			t.Errorf("reload served stale policy content: %q", policies[0].Rego)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("policy change did not trigger a reload")
	}
}

func TestEngine_WatchPoliciesRecompiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gate.rego")
	if err := os.WriteFile(path, []byte("package oxbuild.policies.gate\n"), 0o644); err != nil {
		t.Fatalf("writing policy: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	engine := newTestEngine(t)
	if err := engine.LoadPolicies(ctx, []string{path}); err != nil {
		t.Fatalf("LoadPolicies() failed: %v", err)
	}

	reloaded := make(chan struct{}, 1)
	err := engine.WatchPolicies(ctx, []string{dir}, func() {
		select {
		case reloaded <- struct{}{}:
		default:
		}
	})
	if err != nil {
		t.Fatalf("WatchPolicies() failed: %v", err)
	}

	updated := "# deny everything\npackage oxbuild.policies.gate\n\nimport rego.v1\n\ndeny contains violation if {\n\tinput.build.target != \"\"\n\tviolation := \"blocked\"\n}\n"
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		t.Fatalf("updating policy: %v", err)
	}

	select {
	case <-reloaded:
	case <-time.After(5 * time.Second):
		t.Fatal("policy change did not trigger a reload")
	}

	policy, err := engine.GetPolicy("gate")
	if err != nil {
		t.Fatalf("GetPolicy() failed: %v", err)
	}
	if !strings.Contains(policy.Rego, "deny contains violation") {
		t.Errorf("engine still serves the stale policy: %q", policy.Rego)
	}
}

func TestEngine_LoadCustomPolicy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "no-bundles.rego")
	src := `package oxbuild.policies.nobundles

import rego.v1

deny contains violation if {
	input.build.kind == "resource_bundle"
	violation := {
		"message": "resource bundles are not allowed here",
		"severity": "error",
		"target": input.build.target,
	}
}
`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("writing policy: %v", err)
	}

	engine := newTestEngine(t)
	if err := engine.LoadPolicies(context.Background(), []string{path}); err != nil {
		t.Fatalf("LoadPolicies() failed: %v", err)
	}

	result, err := engine.EvaluateBuild(context.Background(), &BuildRequest{
		Target:   "resources",
		Kind:     "resource_bundle",
		OptLevel: "0",
	})
	if err != nil {
		t.Fatalf("EvaluateBuild() failed: %v", err)
	}
	if result.Allowed {
		t.Errorf("custom policy should deny resource bundles: %+v", result.Violations)
	}
}
