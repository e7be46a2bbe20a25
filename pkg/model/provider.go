// Copyright 2025 Onward Platforms
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package model defines the model-provider contract consumed by the run
// layer. Providers receive the resolved ModelConfig and return completions;
// this package owns the registry and environment-based provider detection,
// not inference itself.
package model

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/onwardplatforms/agently/pkg/config"
)

// Role identifies who authored a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one chat turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Provider sends prompts to a model backend per the resolved ModelConfig.
type Provider interface {
	// Name is the provider identifier agents select with model.provider.
	Name() string

	// Chat sends the conversation and returns the assistant completion.
	Chat(ctx context.Context, messages []Message, cfg config.ModelConfig) (string, error)
}

// Registry holds the available providers keyed by name.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider. Registering the same name twice is an error.
func (r *Registry) Register(p Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Name()
	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("provider %q already registered", name)
	}
	r.providers[name] = p
	return nil
}

// Get looks up a provider by name.
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	if !ok {
		available := r.names()
		if len(available) == 0 {
			return nil, fmt.Errorf("provider %q not available (no providers registered)", name)
		}
		return nil, fmt.Errorf("provider %q not available (registered: %s)", name, strings.Join(available, ", "))
	}
	return p, nil
}

// Names returns the registered provider names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.names()
}

func (r *Registry) names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// envKeys maps provider names to the environment variable carrying their
// credentials.
var envKeys = map[string]string{
	"openai":    "OPENAI_API_KEY",
	"azure":     "AZURE_OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"gemini":    "GEMINI_API_KEY",
}

// DetectFromEnv picks a provider from which credentials are present in the
// environment. Returns "" when none are.
func DetectFromEnv() string {
	for _, name := range []string{"openai", "azure", "anthropic", "gemini"} {
		if os.Getenv(envKeys[name]) != "" {
			return name
		}
	}
	if os.Getenv("OLLAMA_HOST") != "" {
		return "ollama"
	}
	return ""
}

// APIKeyFromEnv returns the credential for a provider from the environment.
func APIKeyFromEnv(provider string) string {
	if key, ok := envKeys[provider]; ok {
		return os.Getenv(key)
	}
	return ""
}
