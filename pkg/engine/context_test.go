package engine

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func newTestContext(t *testing.T, resolveTargets []string) *EnvironmentContext {
	t.Helper()
	return NewEnvironmentContext(EnvironmentConfig{
		Logger:         zerolog.Nop(),
		ConfigPath:     "oxbuild.star",
		BuildPath:      t.TempDir(),
		ResolveTargets: resolveTargets,
	})
}

func TestRegisterTarget_Duplicate(t *testing.T) {
	ec := newTestContext(t, nil)

	if err := ec.RegisterTarget("app", &fakeArtifact{kind: "file_manifest"}, false); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}

	err := ec.RegisterTarget("app", &fakeArtifact{kind: "file_manifest"}, false)
	if !errors.Is(err, ErrDuplicateTarget) {
		t.Errorf("expected duplicate target error, got %v", err)
	}

	// The registry never shrinks and keeps the original entry.
	if got := len(ec.TargetNames()); got != 1 {
		t.Errorf("expected 1 registered target, got %d", got)
	}
}

func TestTargetNames_InsertionOrder(t *testing.T) {
	ec := newTestContext(t, nil)

	for _, name := range []string{"c", "a", "b"} {
		if err := ec.RegisterTarget(name, nil, false); err != nil {
			t.Fatalf("registering %q: %v", name, err)
		}
	}

	names := ec.TargetNames()
	want := []string{"c", "a", "b"}
	if len(names) != len(want) {
		t.Fatalf("expected %d names, got %d", len(want), len(names))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestDefaultTarget(t *testing.T) {
	tests := []struct {
		name     string
		register []struct {
			target  string
			def     bool
		}
		want string
	}{
		{
			name: "empty registry",
			want: "",
		},
		{
			name: "fallback is first registered",
			register: []struct {
				target string
				def    bool
			}{{"first", false}, {"second", false}},
			want: "first",
		},
		{
			name: "explicit default wins",
			register: []struct {
				target string
				def    bool
			}{{"first", false}, {"second", true}},
			want: "second",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ec := newTestContext(t, nil)
			for _, r := range tt.register {
				if err := ec.RegisterTarget(r.target, nil, r.def); err != nil {
					t.Fatalf("registering %q: %v", r.target, err)
				}
			}
			if got := ec.DefaultTarget(); got != tt.want {
				t.Errorf("DefaultTarget() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTargetsToResolve(t *testing.T) {
	t.Run("explicit list wins", func(t *testing.T) {
		ec := newTestContext(t, []string{"b", "a"})
		_ = ec.RegisterTarget("a", nil, false)
		_ = ec.RegisterTarget("b", nil, false)

		names, err := ec.TargetsToResolve()
		if err != nil {
			t.Fatalf("TargetsToResolve() failed: %v", err)
		}
		if len(names) != 2 || names[0] != "b" || names[1] != "a" {
			t.Errorf("unexpected resolve list: %v", names)
		}
	})

	t.Run("falls back to default", func(t *testing.T) {
		ec := newTestContext(t, nil)
		_ = ec.RegisterTarget("only", nil, false)

		names, err := ec.TargetsToResolve()
		if err != nil {
			t.Fatalf("TargetsToResolve() failed: %v", err)
		}
		if len(names) != 1 || names[0] != "only" {
			t.Errorf("unexpected resolve list: %v", names)
		}
	})

	t.Run("no default", func(t *testing.T) {
		ec := newTestContext(t, nil)

		_, err := ec.TargetsToResolve()
		if !errors.Is(err, ErrNoDefaultTarget) {
			t.Errorf("expected no-default-target error, got %v", err)
		}
	})

	t.Run("script mode resolves every target", func(t *testing.T) {
		ec := NewEnvironmentContext(EnvironmentConfig{
			Logger:         zerolog.Nop(),
			ConfigPath:     "oxbuild.star",
			BuildPath:      t.TempDir(),
			ResolveTargets: []string{"a"},
			ScriptMode:     true,
		})
		_ = ec.RegisterTarget("a", nil, false)
		_ = ec.RegisterTarget("b", nil, false)

		names, err := ec.TargetsToResolve()
		if err != nil {
			t.Fatalf("TargetsToResolve() failed: %v", err)
		}
		// Script mode wins over the explicit request list.
		if len(names) != 2 || names[0] != "a" || names[1] != "b" {
			t.Errorf("unexpected resolve list: %v", names)
		}
	})
}

func TestGetTarget_State(t *testing.T) {
	ec := newTestContext(t, nil)
	_ = ec.RegisterTarget("unresolved", nil, false)
	_ = ec.RegisterTarget("resolved", &fakeArtifact{kind: "file_manifest"}, false)

	if got := ec.GetTarget("unresolved").State(); got != TargetStateUnresolved {
		t.Errorf("expected unresolved state, got %s", got)
	}
	if got := ec.GetTarget("resolved").State(); got != TargetStateResolved {
		t.Errorf("expected resolved state, got %s", got)
	}
	if ec.GetTarget("missing") != nil {
		t.Error("expected nil for unregistered name")
	}
}

func TestHostTriple(t *testing.T) {
	triple := HostTriple()
	if triple == "" {
		t.Fatal("HostTriple() returned empty string")
	}
}
