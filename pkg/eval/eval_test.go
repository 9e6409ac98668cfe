package eval

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/oxbuild/oxbuild/pkg/engine"
)

func writeScript(t *testing.T, source string) Options {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "oxbuild.star")
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		t.Fatalf("writing script: %v", err)
	}
	return Options{
		Logger:     zerolog.Nop(),
		ConfigPath: path,
		BuildPath:  filepath.Join(dir, "build"),
	}
}

func TestEvaluate_RegistersTargets(t *testing.T) {
	opts := writeScript(t, `
m = file_manifest()
m.add_file(path = "hello.txt", content = "hi")
register_target("a", m)

exe = executable(name = "app")
exe.profile = "isolated"
register_target("b", exe)
`)

	ec, err := Evaluate(context.Background(), opts)
	if err != nil {
		t.Fatalf("Evaluate() failed: %v", err)
	}

	names := ec.TargetNames()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("TargetNames() = %v, want [a b]", names)
	}

	// No explicit default: the first-registered target is the fallback.
	if got := ec.DefaultTarget(); got != "a" {
		t.Errorf("DefaultTarget() = %q, want %q", got, "a")
	}

	// Building "b" embeds the resolved configuration and is independent of
	// whether "a" was ever built.
	resolved, err := ec.BuildTarget(context.Background(), "b")
	if err != nil {
		t.Fatalf("BuildTarget(b) failed: %v", err)
	}
	if resolved.Run.Mode != engine.RunModePath {
		t.Errorf("executable target should be runnable, got %s", resolved.Run.Mode)
	}
	if _, err := os.Stat(filepath.Join(resolved.OutputPath, "app.interpreter.json")); err != nil {
		t.Errorf("embedded configuration missing: %v", err)
	}
	if got := ec.Environment().GetTarget("a").State(); got != engine.TargetStateResolved {
		t.Errorf("building b must not build a, state = %s", got)
	}
}

func TestEvaluate_ExplicitDefault(t *testing.T) {
	opts := writeScript(t, `
register_target("first", file_manifest())
register_target("main", executable(name = "app"), default = True)
`)

	ec, err := Evaluate(context.Background(), opts)
	if err != nil {
		t.Fatalf("Evaluate() failed: %v", err)
	}
	if got := ec.DefaultTarget(); got != "main" {
		t.Errorf("DefaultTarget() = %q, want %q", got, "main")
	}

	names, err := ec.TargetsToResolve()
	if err != nil {
		t.Fatalf("TargetsToResolve() failed: %v", err)
	}
	if len(names) != 1 || names[0] != "main" {
		t.Errorf("TargetsToResolve() = %v, want [main]", names)
	}
}

func TestEvaluate_ScriptMode(t *testing.T) {
	opts := writeScript(t, `
register_target("first", file_manifest())
register_target("second", resource_bundle())
register_target("third", executable(name = "app"))
`)
	opts.ResolveTargets = []string{"second"}
	opts.ScriptMode = true

	ec, err := Evaluate(context.Background(), opts)
	if err != nil {
		t.Fatalf("Evaluate() failed: %v", err)
	}

	names, err := ec.TargetsToResolve()
	if err != nil {
		t.Fatalf("TargetsToResolve() failed: %v", err)
	}
	want := []string{"first", "second", "third"}
	if len(names) != len(want) {
		t.Fatalf("TargetsToResolve() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestEvaluate_UnresolvedRegistration(t *testing.T) {
	opts := writeScript(t, `register_target("todo", None)`)

	ec, err := Evaluate(context.Background(), opts)
	if err != nil {
		t.Fatalf("Evaluate() failed: %v", err)
	}

	_, err = ec.BuildTarget(context.Background(), "todo")
	if !errors.Is(err, engine.ErrTargetNotResolved) {
		t.Errorf("expected target-not-resolved error, got %v", err)
	}
}

func TestEvaluate_DuplicateRegistrationFailsScript(t *testing.T) {
	opts := writeScript(t, `
register_target("a", file_manifest())
register_target("a", file_manifest())
`)

	_, err := Evaluate(context.Background(), opts)
	if err == nil {
		t.Fatal("expected evaluation to fail")
	}

	var diag *Diagnostic
	if !errors.As(err, &diag) {
		t.Fatalf("expected a Diagnostic, got %T: %v", err, err)
	}
	if diag.Level != LevelError {
		t.Errorf("diagnostic level = %q, want error", diag.Level)
	}
	if len(diag.Spans) == 0 {
		t.Error("diagnostic is missing source spans")
	}
}

func TestEvaluate_SyntaxErrorDiagnostic(t *testing.T) {
	opts := writeScript(t, `register_target("a",`)

	_, err := Evaluate(context.Background(), opts)
	if err == nil {
		t.Fatal("expected evaluation to fail")
	}
	var diag *Diagnostic
	if !errors.As(err, &diag) {
		t.Fatalf("expected a Diagnostic, got %T: %v", err, err)
	}
	if diag.Message == "" {
		t.Error("diagnostic has no message")
	}
}

func TestEvaluate_RegistrationsBeforeFailureSurvive(t *testing.T) {
	opts := writeScript(t, `
register_target("ok", file_manifest())
fail("boom")
`)

	_, err := Evaluate(context.Background(), opts)
	if err == nil {
		t.Fatal("expected evaluation to fail")
	}
	// The failed evaluation returns a diagnostic; no usable context is
	// handed back even though earlier registrations happened.
	var diag *Diagnostic
	if !errors.As(err, &diag) {
		t.Fatalf("expected a Diagnostic, got %T", err)
	}
}

func TestEvaluate_MissingScript(t *testing.T) {
	_, err := Evaluate(context.Background(), Options{
		Logger:     zerolog.Nop(),
		ConfigPath: filepath.Join(t.TempDir(), "missing.star"),
	})
	if !errors.Is(err, engine.ErrEnvironmentCreation) {
		t.Errorf("expected environment-creation error, got %v", err)
	}
}

func TestEvaluate_ExecutableFieldValidation(t *testing.T) {
	tests := []struct {
		name   string
		script string
	}{
		{"unknown profile", `
exe = executable(name = "app")
exe.profile = "floating"
`},
		{"unknown field", `
exe = executable(name = "app")
exe.bogus = True
`},
		{"wrong type", `
exe = executable(name = "app")
exe.sys_frozen = "yes"
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := writeScript(t, tt.script)
			if _, err := Evaluate(context.Background(), opts); err == nil {
				t.Error("expected evaluation to fail")
			}
		})
	}
}

func TestEvaluate_TerminfoAndSearchPaths(t *testing.T) {
	opts := writeScript(t, `
exe = executable(name = "app")
exe.terminfo_resolution = "static:/usr/share/terminfo"
exe.module_search_paths = ["$ORIGIN/lib", "$ORIGIN/../shared"]
exe.tcl_library = "$ORIGIN/tcl8.6"
register_target("exe", exe)
`)

	ec, err := Evaluate(context.Background(), opts)
	if err != nil {
		t.Fatalf("Evaluate() failed: %v", err)
	}
	if _, err := ec.BuildTarget(context.Background(), "exe"); err != nil {
		t.Fatalf("BuildTarget() failed: %v", err)
	}
}
