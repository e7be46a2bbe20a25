package config

import (
	"errors"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func resolveYAML(t *testing.T, doc string) (*Config, error) {
	t.Helper()
	var raw map[string]any
	if err := yaml.Unmarshal([]byte(doc), &raw); err != nil {
		t.Fatalf("test document does not parse: %v", err)
	}
	return Resolve(raw)
}

func TestResolveSingleAgent(t *testing.T) {
	cfg, err := resolveYAML(t, `
version: "1"
name: A
system_prompt: hi
model:
  provider: openai
  model: gpt-4o
`)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if cfg.Multi {
		t.Error("expected single-agent document")
	}
	if len(cfg.Agents) != 1 {
		t.Fatalf("expected 1 agent, got %d", len(cfg.Agents))
	}

	agent := cfg.SingleAgent()
	if agent.Name != "A" {
		t.Errorf("expected name A, got %q", agent.Name)
	}
	if agent.SystemPrompt != "hi" {
		t.Errorf("expected system prompt hi, got %q", agent.SystemPrompt)
	}
	if agent.Model.Provider != "openai" || agent.Model.Model != "gpt-4o" {
		t.Errorf("unexpected model config: %+v", agent.Model)
	}
	if agent.Model.Temperature == nil || *agent.Model.Temperature != DefaultTemperature {
		t.Errorf("expected defaulted temperature %v, got %v", DefaultTemperature, agent.Model.Temperature)
	}
	if len(agent.Plugins) != 0 {
		t.Errorf("expected no plugins, got %d", len(agent.Plugins))
	}
	if len(agent.Env) != 0 {
		t.Errorf("expected empty env, got %v", agent.Env)
	}
	if !strings.HasPrefix(agent.ID, "agent-") || len(agent.ID) != len("agent-")+8 {
		t.Errorf("expected generated agent id, got %q", agent.ID)
	}
}

func TestResolveMultiAgentPreservesOrder(t *testing.T) {
	cfg, err := resolveYAML(t, `
version: "1"
agents:
  - id: first
    name: First
    model: {provider: openai, model: gpt-4o}
  - id: second
    name: Second
    model: {provider: ollama, model: llama3}
  - id: third
    name: Third
    model: {provider: openai, model: gpt-4o-mini}
`)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if !cfg.Multi {
		t.Error("expected multi-agent document")
	}
	got := cfg.ListAgents()
	want := []string{"first", "second", "third"}
	if len(got) != len(want) {
		t.Fatalf("expected %d agents, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("agent %d: expected id %q, got %q", i, want[i], got[i])
		}
	}
}

func TestResolveMissingProvider(t *testing.T) {
	cfg, err := resolveYAML(t, `
version: "1"
name: A
model:
  model: gpt-4o
`)
	if cfg != nil {
		t.Error("expected no partial config on validation failure")
	}

	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %T: %v", err, err)
	}
	if !hasErrorAt(verrs, "/model/provider") {
		t.Errorf("expected error at /model/provider, got %v", verrs)
	}
}

func TestResolveBatchesAllErrors(t *testing.T) {
	_, err := resolveYAML(t, `
version: "9"
agents:
  - id: a
    model:
      temperature: 3
  - id: b
    name: B
    model: {provider: openai, model: gpt-4o}
    bogus_key: true
`)
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %T: %v", err, err)
	}

	for _, path := range []string{
		"/version",
		"/agents/0/name",
		"/agents/0/model/provider",
		"/agents/0/model/model",
		"/agents/0/model/temperature",
		"/agents/1/bogus_key",
	} {
		if !hasErrorAt(verrs, path) {
			t.Errorf("expected error at %s, got:\n%v", path, verrs)
		}
	}
}

func TestResolveDuplicateAgentID(t *testing.T) {
	_, err := resolveYAML(t, `
version: "1"
agents:
  - id: same
    name: A
    model: {provider: openai, model: gpt-4o}
  - id: same
    name: B
    model: {provider: openai, model: gpt-4o}
`)
	var dup *DuplicateIDError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateIDError, got %T: %v", err, err)
	}
	if dup.ID != "same" {
		t.Errorf("expected id same, got %q", dup.ID)
	}
	if len(dup.Paths) != 2 || dup.Paths[0] != "/agents/0" || dup.Paths[1] != "/agents/1" {
		t.Errorf("unexpected duplicate paths: %v", dup.Paths)
	}
}

func TestResolveVersionGate(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{
			name:    "missing version",
			doc:     "name: A\nmodel: {provider: openai, model: gpt-4o}\n",
			wantErr: "/version",
		},
		{
			name:    "unsupported version",
			doc:     "version: \"2\"\nname: A\nmodel: {provider: openai, model: gpt-4o}\n",
			wantErr: "/version",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := resolveYAML(t, tt.doc)
			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %T: %v", err, err)
			}
			if !hasErrorAt(verrs, tt.wantErr) {
				t.Errorf("expected error at %s, got %v", tt.wantErr, verrs)
			}
		})
	}
}

func TestResolveUnquotedVersion(t *testing.T) {
	// YAML parses an unquoted 1 as an int; the version gate still accepts it.
	cfg, err := resolveYAML(t, `
version: 1
name: A
model: {provider: openai, model: gpt-4o}
`)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if cfg.Version != "1" {
		t.Errorf("expected version 1, got %q", cfg.Version)
	}
}

func TestResolveLegacyGenerationRequiresSystemPrompt(t *testing.T) {
	// The nested plugin shape marks the older schema generation, where
	// system_prompt is still mandatory.
	_, err := resolveYAML(t, `
version: "1"
name: A
model: {provider: openai, model: gpt-4o}
plugins:
  local:
    - source: ./plugins/calc
`)
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %T: %v", err, err)
	}
	if !hasErrorAt(verrs, "/system_prompt") {
		t.Errorf("expected error at /system_prompt, got %v", verrs)
	}

	// The flat shape does not require it.
	_, err = resolveYAML(t, `
version: "1"
name: A
model: {provider: openai, model: gpt-4o}
plugins:
  - source: local
    type: sk
    path: ./plugins/calc
`)
	if err != nil {
		t.Fatalf("flat shape should not require system_prompt: %v", err)
	}
}

func TestResolveModelBlockIsOpen(t *testing.T) {
	cfg, err := resolveYAML(t, `
version: "1"
name: A
model:
  provider: openai
  model: gpt-4o
  api_base: https://example.test/v1
`)
	if err != nil {
		t.Fatalf("extra model keys must be permitted: %v", err)
	}
	if cfg.SingleAgent().Model.Provider != "openai" {
		t.Errorf("unexpected model: %+v", cfg.SingleAgent().Model)
	}
}

func TestResolveExplicitIDPreserved(t *testing.T) {
	cfg, err := resolveYAML(t, `
version: "1"
id: my-agent
name: A
model: {provider: openai, model: gpt-4o}
`)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if cfg.SingleAgent().ID != "my-agent" {
		t.Errorf("expected id my-agent, got %q", cfg.SingleAgent().ID)
	}
}

func TestResolveMcpServers(t *testing.T) {
	cfg, err := resolveYAML(t, `
version: "1"
name: A
model: {provider: openai, model: gpt-4o}
mcp_servers:
  - name: files
    command: npx
    args: ["-y", "@modelcontextprotocol/server-filesystem", "."]
    variables:
      ROOT: /tmp
`)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	servers := cfg.SingleAgent().MCPServers
	if len(servers) != 1 {
		t.Fatalf("expected 1 mcp server, got %d", len(servers))
	}
	srv := servers[0]
	if srv.Name != "files" || srv.Command != "npx" || len(srv.Args) != 3 {
		t.Errorf("unexpected server decl: %+v", srv)
	}
	if srv.Variables["ROOT"] != "/tmp" {
		t.Errorf("expected variables to survive, got %v", srv.Variables)
	}
}

func TestResolveMcpServerErrors(t *testing.T) {
	_, err := resolveYAML(t, `
version: "1"
name: A
model: {provider: openai, model: gpt-4o}
mcp_servers:
  - name: files
    args: ["x"]
  - name: files
    command: npx
    args: ["y"]
    url: user/agently-mcp-files
`)
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %T: %v", err, err)
	}
	for _, path := range []string{
		"/mcp_servers/0/command",
		"/mcp_servers/1/name",
		"/mcp_servers/1/version",
	} {
		if !hasErrorAt(verrs, path) {
			t.Errorf("expected error at %s, got %v", path, verrs)
		}
	}
}

func TestResolvedConfigSerializes(t *testing.T) {
	cfg, err := resolveYAML(t, `
version: "1"
name: A
system_prompt: hi
model: {provider: openai, model: gpt-4o}
plugins:
  local:
    - url: user/agently-plugin-web
`)
	if err == nil {
		t.Fatal("legacy local entry with url must fail")
	}

	cfg, err = resolveYAML(t, `
version: "1"
name: A
system_prompt: hi
model: {provider: openai, model: gpt-4o}
plugins:
  github:
    - url: user/agently-plugin-web
      version: v1.2.0
      variables:
        api_key: k
`)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	doc := string(out)
	// Declarations re-serialize in the flat shape with the inferred kind.
	for _, want := range []string{"type: agently", "source: github", "url: user/agently-plugin-web"} {
		if !strings.Contains(doc, want) {
			t.Errorf("expected %q in serialized config:\n%s", want, doc)
		}
	}
}

func hasErrorAt(errs ValidationErrors, path string) bool {
	for _, e := range errs {
		if e.Path == path {
			return true
		}
	}
	return false
}
