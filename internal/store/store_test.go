package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/verte-zerg/spookhunt/internal/progress"
)

func openTestStore(t *testing.T, dbPath, namespace string) *Store {
	t.Helper()
	st, err := Open(dbPath, namespace, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func TestSaveLoadClear(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t, filepath.Join(t.TempDir(), "progress.db"), progress.DefaultNamespace)

	if _, ok := st.Load(ctx); ok {
		t.Fatalf("expected no record in a fresh database")
	}

	rec := progress.NewRecord()
	rec.Index = 1
	rec.Answers[1] = "pumpkin"
	rec.Solved[1] = true
	if err := st.Save(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}
	rec.Answers[2] = "draft"
	if err := st.Save(ctx, rec); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, ok := st.Load(ctx)
	if !ok {
		t.Fatalf("expected record after save")
	}
	if got.Index != 1 || got.Answers[2] != "draft" || !got.Solved[1] {
		t.Fatalf("unexpected record: %+v", got)
	}
	if _, ok, err := st.UpdatedAt(ctx); err != nil || !ok {
		t.Fatalf("expected updated_at, got ok=%v err=%v", ok, err)
	}

	if err := st.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok := st.Load(ctx); ok {
		t.Fatalf("expected no record after clear")
	}
}

func TestLoadCorruptPayload(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t, filepath.Join(t.TempDir(), "progress.db"), "ns")
	if err := st.writeRaw(ctx, "{not json"); err != nil {
		t.Fatalf("write raw: %v", err)
	}
	if _, ok := st.Load(ctx); ok {
		t.Fatalf("expected corrupt payload to load as no record")
	}
}

func TestNamespacesAreIsolated(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "progress.db")
	a := openTestStore(t, dbPath, "a")
	b := openTestStore(t, dbPath, "b")

	rec := progress.NewRecord()
	rec.Answers[1] = "only-a"
	if err := a.Save(ctx, rec); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, ok := b.Load(ctx); ok {
		t.Fatalf("expected namespace b to be empty")
	}
	if err := b.Save(ctx, progress.NewRecord()); err != nil {
		t.Fatalf("save b: %v", err)
	}
	names, err := a.Namespaces(ctx)
	if err != nil {
		t.Fatalf("namespaces: %v", err)
	}
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("unexpected namespaces: %v", names)
	}
	if err := b.Clear(ctx); err != nil {
		t.Fatalf("clear b: %v", err)
	}
	if _, ok := a.Load(ctx); !ok {
		t.Fatalf("expected clearing b to leave a intact")
	}
}

func TestOpenRequiresNamespace(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "x.db"), "", nil); err == nil {
		t.Fatalf("expected error for empty namespace")
	}
}
