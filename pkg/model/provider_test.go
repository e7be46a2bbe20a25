package model

import (
	"context"
	"strings"
	"testing"

	"github.com/onwardplatforms/agently/pkg/config"
)

type fakeProvider struct {
	name string
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Chat(ctx context.Context, messages []Message, cfg config.ModelConfig) (string, error) {
	return "ok", nil
}

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()

	if err := r.Register(&fakeProvider{name: "openai"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := r.Register(&fakeProvider{name: "openai"}); err == nil {
		t.Fatal("expected error registering a duplicate name")
	}

	p, err := r.Get("openai")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if p.Name() != "openai" {
		t.Errorf("unexpected provider: %s", p.Name())
	}
}

func TestRegistryGetUnknown(t *testing.T) {
	r := NewRegistry()

	_, err := r.Get("openai")
	if err == nil || !strings.Contains(err.Error(), "no providers registered") {
		t.Errorf("empty registry must say so, got %v", err)
	}

	if err := r.Register(&fakeProvider{name: "ollama"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	_, err = r.Get("openai")
	if err == nil || !strings.Contains(err.Error(), "ollama") {
		t.Errorf("error must list registered providers, got %v", err)
	}
}

func TestRegistryNames(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"ollama", "anthropic", "openai"} {
		if err := r.Register(&fakeProvider{name: name}); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
	}

	names := r.Names()
	want := []string{"anthropic", "ollama", "openai"}
	if len(names) != len(want) {
		t.Fatalf("expected %d names, got %v", len(want), names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("expected sorted names %v, got %v", want, names)
			break
		}
	}
}

func TestDetectFromEnv(t *testing.T) {
	for _, key := range []string{
		"OPENAI_API_KEY", "AZURE_OPENAI_API_KEY", "ANTHROPIC_API_KEY",
		"GEMINI_API_KEY", "OLLAMA_HOST",
	} {
		t.Setenv(key, "")
	}

	if got := DetectFromEnv(); got != "" {
		t.Errorf("expected no detection with empty env, got %q", got)
	}

	t.Setenv("OLLAMA_HOST", "http://localhost:11434")
	if got := DetectFromEnv(); got != "ollama" {
		t.Errorf("expected ollama, got %q", got)
	}

	// Credentialed providers take priority over a local ollama host.
	t.Setenv("ANTHROPIC_API_KEY", "k")
	if got := DetectFromEnv(); got != "anthropic" {
		t.Errorf("expected anthropic, got %q", got)
	}

	t.Setenv("OPENAI_API_KEY", "k")
	if got := DetectFromEnv(); got != "openai" {
		t.Errorf("expected openai to win detection order, got %q", got)
	}
}

func TestAPIKeyFromEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "secret")
	if got := APIKeyFromEnv("openai"); got != "secret" {
		t.Errorf("expected secret, got %q", got)
	}
	if got := APIKeyFromEnv("unknown"); got != "" {
		t.Errorf("expected empty key for unknown provider, got %q", got)
	}
}
