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

// Package config resolves Agently YAML/JSON documents into validated,
// canonical configuration. Resolution is a pure transformation over the
// parsed document and the current environment snapshot: parse, interpolate
// ${{ env.NAME }} references, normalize plugin declarations, apply defaults,
// and validate with batched errors.
package config

// SupportedVersions is the closed set of accepted schema version literals.
// An unsupported version is a hard validation error; there is no implicit
// migration.
var SupportedVersions = map[string]bool{
	"1": true,
}

// Config is the resolved configuration of one document. A single-agent
// document resolves to a one-element agent list.
type Config struct {
	// Version is the validated schema version literal.
	Version string `yaml:"version" json:"version" jsonschema:"required"`

	// Agents holds the resolved agents in document order.
	Agents []*AgentConfig `yaml:"agents" json:"agents"`

	// Multi reports whether the source document used the multi-agent shape.
	Multi bool `yaml:"-" json:"-"`

	// Warnings are non-fatal findings from resolution, such as unresolved
	// environment variable references.
	Warnings []Warning `yaml:"-" json:"-"`
}

// SingleAgent returns the sole agent of a single-agent document.
func (c *Config) SingleAgent() *AgentConfig {
	if len(c.Agents) == 0 {
		return nil
	}
	return c.Agents[0]
}

// ListAgents returns the agent ids in document order.
func (c *Config) ListAgents() []string {
	ids := make([]string, len(c.Agents))
	for i, a := range c.Agents {
		ids[i] = a.ID
	}
	return ids
}

// GetAgent looks up an agent by id.
func (c *Config) GetAgent(id string) (*AgentConfig, bool) {
	for _, a := range c.Agents {
		if a.ID == id {
			return a, true
		}
	}
	return nil, false
}

// SetDefaults applies defaults to all agents.
func (c *Config) SetDefaults() {
	for _, a := range c.Agents {
		a.SetDefaults()
	}
}
