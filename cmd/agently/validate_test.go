package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/onwardplatforms/agently/pkg/config"
	"github.com/onwardplatforms/agently/pkg/config/provider"
)

func TestIssuesFromError(t *testing.T) {
	verrs := config.ValidationErrors{
		{Path: "/model/provider", Message: "provider is required"},
		{Path: "/name", Message: "name is required"},
	}
	issues := issuesFromError(verrs)
	if len(issues) != 2 {
		t.Fatalf("expected one issue per violation, got %d", len(issues))
	}
	if issues[0].Type != "schema" || issues[0].Path != "/model/provider" {
		t.Errorf("unexpected first issue: %+v", issues[0])
	}

	dup := &config.DuplicateIDError{ID: "same", Paths: []string{"/agents/0", "/agents/2"}}
	issues = issuesFromError(dup)
	if len(issues) != 1 || issues[0].Type != "duplicate_id" || issues[0].Path != "/agents/2" {
		t.Errorf("unexpected duplicate-id issue: %+v", issues)
	}

	pe := &config.ParseError{Line: 3, Msg: "did not find expected key"}
	issues = issuesFromError(pe)
	if len(issues) != 1 || issues[0].Type != "parse" {
		t.Errorf("unexpected parse issue: %+v", issues)
	}

	issues = issuesFromError(fmt.Errorf("no such file"))
	if len(issues) != 1 || issues[0].Type != "load" {
		t.Errorf("unexpected load issue: %+v", issues)
	}
}

func TestWatchConfigRevalidatesOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agently.yaml")
	valid := "version: \"1\"\nname: A\nmodel: {provider: openai, model: gpt-4o}\n"
	if err := os.WriteFile(path, []byte(valid), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	prov, err := provider.NewFileProvider(path)
	if err != nil {
		t.Fatalf("NewFileProvider failed: %v", err)
	}
	loader := config.NewLoader(prov)
	defer loader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type reload struct {
		cfg *config.Config
		err error
	}
	reloads := make(chan reload, 4)
	done := make(chan error, 1)
	go func() {
		done <- watchConfig(ctx, loader, func(cfg *config.Config, err error) {
			reloads <- reload{cfg, err}
		})
	}()

	// Give the watcher a moment to attach before the rewrite.
	time.Sleep(200 * time.Millisecond)
	broken := "version: \"1\"\nname: A\nmodel: {model: gpt-4o}\n"
	if err := os.WriteFile(path, []byte(broken), 0o644); err != nil {
		t.Fatalf("failed to rewrite config: %v", err)
	}

	select {
	case r := <-reloads:
		if r.err == nil {
			t.Error("expected a validation error after breaking the file")
		}
		if r.cfg != nil {
			t.Error("expected no config alongside the error")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for revalidation")
	}

	cancel()
	if err := <-done; err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
