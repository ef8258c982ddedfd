package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// exerciseBackend runs the contract every Backend implementation must meet.
func exerciseBackend(t *testing.T, b Backend) {
	t.Helper()
	ctx := context.Background()

	if _, err := b.Get(ctx, "user"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on empty backend, got %v", err)
	}
	if err := b.Set(ctx, "user", []byte("one")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := b.Set(ctx, "user", []byte("two")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := b.Get(ctx, "user")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "two" {
		t.Fatalf("expected last write to win, got %q", got)
	}
	if err := b.Delete(ctx, "user"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := b.Delete(ctx, "user"); err != nil {
		t.Fatalf("delete missing key should succeed, got %v", err)
	}
	if _, err := b.Get(ctx, "user"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemoryBackendContract(t *testing.T) {
	exerciseBackend(t, NewMemoryBackend())
}

func TestMemoryBackendCopiesValues(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryBackend()
	value := []byte("abc")
	if err := m.Set(ctx, "k", value); err != nil {
		t.Fatalf("set: %v", err)
	}
	value[0] = 'z'

	got, _ := m.Get(ctx, "k")
	if string(got) != "abc" {
		t.Fatalf("stored value aliased caller slice: %q", got)
	}
	got[1] = 'z'
	again, _ := m.Get(ctx, "k")
	if string(again) != "abc" {
		t.Fatalf("returned value aliased stored slice: %q", again)
	}
	if m.Len() != 1 {
		t.Fatalf("expected one key, got %d", m.Len())
	}
}

func TestMemoryBackendHonorsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewMemoryBackend().Set(ctx, "k", nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestFileBackendContract(t *testing.T) {
	b, err := NewFileBackend(t.TempDir())
	if err != nil {
		t.Fatalf("new file backend: %v", err)
	}
	exerciseBackend(t, b)
}

func TestFileBackendSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "state")

	first, err := NewFileBackend(dir)
	if err != nil {
		t.Fatalf("new file backend: %v", err)
	}
	if err := first.Set(ctx, DefaultKey, []byte(`{"v":1}`)); err != nil {
		t.Fatalf("set: %v", err)
	}

	second, err := NewFileBackend(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := second.Get(ctx, DefaultKey)
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if string(got) != `{"v":1}` {
		t.Fatalf("unexpected value after reopen: %q", got)
	}

	info, err := os.Stat(filepath.Join(dir, DefaultKey+fileBackendExt))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("expected 0600 file, got %o", perm)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected no leftover temp files, got %d entries", len(entries))
	}
}

func TestFileBackendRejectsUnsafeKeys(t *testing.T) {
	b, err := NewFileBackend(t.TempDir())
	if err != nil {
		t.Fatalf("new file backend: %v", err)
	}
	for _, key := range []string{"", ".hidden", "../escape", `a\b`, "nul\x00byte"} {
		if err := b.Set(context.Background(), key, []byte("x")); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("key %q: expected ErrInvalidKey, got %v", key, err)
		}
	}
}

func TestNewFileBackendRequiresDir(t *testing.T) {
	if _, err := NewFileBackend("  "); err == nil {
		t.Fatal("expected error for blank directory")
	}
}
