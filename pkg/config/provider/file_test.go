package provider

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileProviderLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agently.yaml")
	if err := os.WriteFile(path, []byte("version: \"1\"\n"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	p, err := NewFileProvider(path)
	if err != nil {
		t.Fatalf("NewFileProvider failed: %v", err)
	}
	defer p.Close()

	data, err := p.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(data) != "version: \"1\"\n" {
		t.Errorf("unexpected file contents: %q", data)
	}
}

func TestFileProviderLoadMissing(t *testing.T) {
	p, err := NewFileProvider(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("NewFileProvider failed: %v", err)
	}
	defer p.Close()

	if _, err := p.Load(context.Background()); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestFileProviderWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agently.yaml")
	if err := os.WriteFile(path, []byte("version: \"1\"\n"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	p, err := NewFileProvider(path)
	if err != nil {
		t.Fatalf("NewFileProvider failed: %v", err)
	}
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := p.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	if err := os.WriteFile(path, []byte("version: \"1\"\nname: A\n"), 0o644); err != nil {
		t.Fatalf("failed to rewrite file: %v", err)
	}

	select {
	case <-changes:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change notification")
	}
}

func TestFileProviderWatchDebounces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agently.yaml")
	if err := os.WriteFile(path, []byte("a: 1\n"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	p, err := NewFileProvider(path)
	if err != nil {
		t.Fatalf("NewFileProvider failed: %v", err)
	}
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := p.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	// A burst of writes coalesces into a bounded number of notifications;
	// the channel buffer holds at most one pending signal.
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte("a: 2\n"), 0o644); err != nil {
			t.Fatalf("failed to rewrite file: %v", err)
		}
	}

	select {
	case <-changes:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change notification")
	}
}

func TestFileProviderWatchAfterClose(t *testing.T) {
	p, err := NewFileProvider(filepath.Join(t.TempDir(), "agently.yaml"))
	if err != nil {
		t.Fatalf("NewFileProvider failed: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := p.Watch(context.Background()); err == nil {
		t.Fatal("expected error watching a closed provider")
	}
}

func TestParseType(t *testing.T) {
	if typ, err := ParseType("file"); err != nil || typ != TypeFile {
		t.Errorf("ParseType(file) = %v, %v", typ, err)
	}
	if _, err := ParseType("consul"); err == nil {
		t.Error("expected error for unknown provider type")
	}
}
