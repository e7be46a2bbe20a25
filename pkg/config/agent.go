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

package config

import (
	"strings"

	"github.com/google/uuid"
)

// AgentConfig is the canonical, validated configuration of one agent. It is
// constructed once per invocation and held immutably for the lifetime of the
// process.
type AgentConfig struct {
	// ID uniquely identifies the agent. Generated when absent.
	ID string `yaml:"id" json:"id"`

	// Name is the human-facing agent name.
	Name string `yaml:"name" json:"name" jsonschema:"required"`

	// Description summarizes what the agent does.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// SystemPrompt is the agent's system instruction. Optional in the
	// current schema generation, required in the legacy one.
	SystemPrompt string `yaml:"system_prompt,omitempty" json:"system_prompt,omitempty"`

	// Model holds provider selection and sampling parameters.
	Model ModelConfig `yaml:"model" json:"model" jsonschema:"required"`

	// Features toggles optional agent behavior. Freeform.
	Features map[string]any `yaml:"features,omitempty" json:"features,omitempty"`

	// Env is the agent's environment variable manifest. Keys name the
	// variables the agent expects and stay literal; values are their
	// defaults and interpolate like any other string.
	Env map[string]string `yaml:"env,omitempty" json:"env,omitempty"`

	// Plugins is the canonical plugin list, normalized from either the
	// legacy nested shape or the flat-array shape. Populated by the
	// resolver, not decoded directly.
	Plugins []PluginDecl `yaml:"plugins,omitempty" json:"plugins,omitempty"`

	// MCPServers declares the MCP servers the agent connects to.
	MCPServers []McpServerDecl `yaml:"mcp_servers,omitempty" json:"mcp_servers,omitempty"`
}

// SetDefaults applies defaults to unset fields.
func (a *AgentConfig) SetDefaults() {
	if a.ID == "" {
		a.ID = newAgentID()
	}
	a.Model.SetDefaults()
}

// validate appends field-level violations to errs. base is the JSON-pointer
// path of the agent entry ("" for a single-agent document).
// legacyGeneration marks the older schema shape, which still requires
// system_prompt. The model block is validated where it is decoded.
func (a *AgentConfig) validate(base string, legacyGeneration bool, errs *ValidationErrors) {
	if a.Name == "" {
		errs.add(base+"/name", "name is required")
	}
	if legacyGeneration && a.SystemPrompt == "" {
		errs.add(base+"/system_prompt", "system_prompt is required")
	}
}

// newAgentID generates a short random agent id, e.g. "agent-3f9a01bc".
func newAgentID() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "agent-" + hex[:8]
}
