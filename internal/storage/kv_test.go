package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func newTestKV(t *testing.T) *SQLiteKV {
	t.Helper()
	kv, err := NewSQLiteKV(filepath.Join(t.TempDir(), "data", "fintrack.db"))
	if err != nil {
		t.Fatalf("NewSQLiteKV: %v", err)
	}
	t.Cleanup(func() { kv.Close() })
	return kv
}

func TestSQLiteKVLoadMissing(t *testing.T) {
	kv := newTestKV(t)
	v, ok, err := kv.Load(context.Background(), "transactions")
	if err != nil || ok || v != nil {
		t.Fatalf("expected missing key, got %q ok=%v err=%v", v, ok, err)
	}
}

func TestSQLiteKVSaveOverwrites(t *testing.T) {
	ctx := context.Background()
	kv := newTestKV(t)

	if err := kv.Save(ctx, "categories", []byte(`[{"id":"1"}]`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := kv.Save(ctx, "categories", []byte(`[]`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	v, ok, err := kv.Load(ctx, "categories")
	if err != nil || !ok || string(v) != "[]" {
		t.Fatalf("unexpected value %q ok=%v err=%v", v, ok, err)
	}
	if err := kv.HealthCheck(ctx); err != nil {
		t.Fatalf("health check: %v", err)
	}
}

func TestSQLiteKVReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "fintrack.db")

	kv, err := NewSQLiteKV(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := kv.Save(ctx, "transactions", []byte(`[1]`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	kv.Close()

	kv, err = NewSQLiteKV(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer kv.Close()
	v, ok, _ := kv.Load(ctx, "transactions")
	if !ok || string(v) != "[1]" {
		t.Fatalf("value not persisted: %q ok=%v", v, ok)
	}
}

func TestSQLiteKVSchemaVersion(t *testing.T) {
	kv := newTestKV(t)
	if kv.SchemaVersion() != 1 {
		t.Fatalf("SchemaVersion() = %d, want 1", kv.SchemaVersion())
	}
}

func TestSQLiteKVRefusesDirtySchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fintrack.db")
	kv, err := NewSQLiteKV(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := kv.db.Exec(`UPDATE schema_migrations SET dirty = 1`); err != nil {
		t.Fatalf("mark dirty: %v", err)
	}
	kv.Close()

	if _, err := NewSQLiteKV(path); !errors.Is(err, ErrDirtySchema) {
		t.Fatalf("expected ErrDirtySchema, got %v", err)
	}
}
