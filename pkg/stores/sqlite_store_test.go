package stores

import (
	"context"
	"testing"
	"time"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(Config{Path: ":memory:"})
	if err != nil {
		t.Fatalf("NewSQLiteStore() failed: %v", err)
	}

	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("Init() failed: %v", err)
	}
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return store
}

func TestNewSQLiteStore_RequiresPath(t *testing.T) {
	if _, err := NewSQLiteStore(Config{}); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestRecordBuild_RoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	rec := &BuildRecord{
		Target:       "install",
		Kind:         "file_manifest",
		ConfigPath:   "oxbuild.star",
		TargetTriple: "x86_64-unknown-linux-gnu",
		Release:      true,
		Status:       BuildStatusSucceeded,
		OutputPath:   "build/x86_64-unknown-linux-gnu/release/install",
		Duration:     1500 * time.Millisecond,
	}

	if err := store.RecordBuild(ctx, rec); err != nil {
		t.Fatalf("RecordBuild() failed: %v", err)
	}
	if rec.ID == "" {
		t.Fatal("expected ID to be assigned")
	}

	got, err := store.GetBuild(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetBuild() failed: %v", err)
	}
	if got.Target != rec.Target || got.Status != rec.Status {
		t.Errorf("unexpected record: %+v", got)
	}
	if got.Duration != rec.Duration {
		t.Errorf("Duration = %v, want %v", got.Duration, rec.Duration)
	}
	if !got.Release {
		t.Error("Release flag lost")
	}
}

func TestGetBuild_NotFound(t *testing.T) {
	store := setupTestStore(t)

	if _, err := store.GetBuild(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for unknown ID")
	}
}

func TestListBuilds_FiltersByTarget(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	records := []*BuildRecord{
		{Target: "a", Kind: "executable", Status: BuildStatusSucceeded, CreatedAt: base},
		{Target: "b", Kind: "executable", Status: BuildStatusFailed, Error: "boom", CreatedAt: base.Add(time.Minute)},
		{Target: "a", Kind: "executable", Status: BuildStatusCached, CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, rec := range records {
		if err := store.RecordBuild(ctx, rec); err != nil {
			t.Fatalf("RecordBuild() failed: %v", err)
		}
	}

	all, err := store.ListBuilds(ctx, "", 0)
	if err != nil {
		t.Fatalf("ListBuilds() failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 builds, got %d", len(all))
	}
	if all[0].Status != BuildStatusCached {
		t.Errorf("expected newest first, got %+v", all[0])
	}

	onlyA, err := store.ListBuilds(ctx, "a", 0)
	if err != nil {
		t.Fatalf("ListBuilds(a) failed: %v", err)
	}
	if len(onlyA) != 2 {
		t.Fatalf("expected 2 builds for target a, got %d", len(onlyA))
	}
	for _, rec := range onlyA {
		if rec.Target != "a" {
			t.Errorf("unexpected target %q in filtered list", rec.Target)
		}
	}

	limited, err := store.ListBuilds(ctx, "", 1)
	if err != nil {
		t.Fatalf("ListBuilds(limit=1) failed: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("expected 1 build, got %d", len(limited))
	}
}
