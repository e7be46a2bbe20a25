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

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/invopop/jsonschema"

	"github.com/onwardplatforms/agently/pkg/config"
)

// SchemaCmd generates the JSON Schema for the configuration format.
// Output goes to stdout so it can be redirected.
type SchemaCmd struct {
	// Compact enables compact JSON output (no indentation).
	Compact bool `short:"c" help:"Compact JSON output (no indentation)."`
}

// configDocument is the document shape the schema describes: the current
// generation, with the flat plugin array. A document is single-agent
// (top-level agent fields) or multi-agent (agents list).
type configDocument struct {
	Version string          `json:"version" jsonschema:"required,description=Schema version literal. Supported: 1."`
	Agents  []agentDocument `json:"agents,omitempty" jsonschema:"description=Agent list for multi-agent documents."`

	// Single-agent documents carry the agent fields at the top level.
	agentDocument
}

// agentDocument is one agent entry.
type agentDocument struct {
	ID           string              `json:"id,omitempty" jsonschema:"description=Unique agent id. Generated when absent."`
	Name         string              `json:"name,omitempty" jsonschema:"description=Human-facing agent name."`
	Description  string              `json:"description,omitempty"`
	SystemPrompt string              `json:"system_prompt,omitempty" jsonschema:"description=System instruction for the agent."`
	Model        config.ModelConfig  `json:"model,omitempty"`
	Features     map[string]any      `json:"features,omitempty"`
	Env          map[string]string   `json:"env,omitempty" jsonschema:"description=Environment variable manifest."`
	Plugins      []pluginDocument    `json:"plugins,omitempty"`
	MCPServers   []mcpServerDocument `json:"mcp_servers,omitempty"`
}

// pluginDocument is a flat-array plugin entry. Field legality per
// (source, type) pair is enforced by the resolver; the schema stays the
// union of the legal fields.
type pluginDocument struct {
	Source    string            `json:"source" jsonschema:"required,enum=local,enum=github"`
	Type      string            `json:"type" jsonschema:"required,enum=sk,enum=mcp,enum=agently"`
	Path      string            `json:"path,omitempty" jsonschema:"description=Filesystem path of a local plugin."`
	URL       string            `json:"url,omitempty" jsonschema:"description=GitHub repository (user/repo)."`
	Version   string            `json:"version,omitempty" jsonschema:"description=Git ref of a github plugin."`
	Command   string            `json:"command,omitempty" jsonschema:"description=Executable for mcp plugins."`
	Args      []string          `json:"args,omitempty" jsonschema:"description=Arguments for mcp plugins."`
	Variables map[string]string `json:"variables,omitempty" jsonschema:"description=Configuration for agently plugins."`
}

type mcpServerDocument struct {
	Name      string            `json:"name" jsonschema:"required"`
	Command   string            `json:"command" jsonschema:"required"`
	Args      []string          `json:"args" jsonschema:"required"`
	Source    string            `json:"source,omitempty"`
	URL       string            `json:"url,omitempty"`
	Version   string            `json:"version,omitempty"`
	Variables map[string]string `json:"variables,omitempty"`
}

// Run executes the schema generation command.
func (c *SchemaCmd) Run(cli *CLI) error {
	reflector := &jsonschema.Reflector{
		// Closed subtrees reject unknown fields
		AllowAdditionalProperties: false,
		// Inline all definitions (no $ref)
		DoNotReference: true,
	}

	schema := reflector.Reflect(&configDocument{})

	schema.ID = "https://agently.dev/schemas/config.json"
	schema.Title = "Agently Configuration Schema"
	schema.Description = "Configuration schema for Agently agent definitions"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	schema.Examples = []interface{}{
		map[string]interface{}{
			"version":       "1",
			"name":          "assistant",
			"system_prompt": "You are a helpful assistant.",
			"model": map[string]interface{}{
				"provider":    "openai",
				"model":       "gpt-4o",
				"temperature": 0.7,
			},
			"plugins": []interface{}{
				map[string]interface{}{
					"source":  "github",
					"type":    "agently",
					"url":     "onwardplatforms/agently-plugin-web",
					"version": "v1.0.0",
					"variables": map[string]interface{}{
						"api_key": "${{ env.API_KEY }}",
					},
				},
			},
		},
	}

	encoder := json.NewEncoder(os.Stdout)
	if !c.Compact {
		encoder.SetIndent("", "  ")
	}

	if err := encoder.Encode(schema); err != nil {
		return fmt.Errorf("failed to encode schema: %w", err)
	}

	return nil
}
