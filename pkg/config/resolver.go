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
	"fmt"
	"strconv"

	"github.com/mitchellh/mapstructure"
)

// Resolve transforms a parsed document into a validated Config.
//
// The document is either single-agent (top-level name/model/...) or
// multi-agent (top-level agents list); the presence of "agents" selects the
// shape, and a single-agent document is treated as an implicit one-element
// agent list. Validation errors are batched: every violation found in one
// pass is returned together as ValidationErrors. A duplicate agent id in a
// multi-agent document is returned as DuplicateIDError after field
// validation passes.
func Resolve(raw map[string]any) (*Config, error) {
	expanded, warnings := interpolateEnv(raw)

	cfg := &Config{Warnings: warnings}
	var errs ValidationErrors

	cfg.Version = versionString(expanded["version"])
	switch {
	case cfg.Version == "":
		errs.add("/version", "version is required")
	case !SupportedVersions[cfg.Version]:
		errs.add("/version", "unsupported version %q (supported: %s)", cfg.Version, supportedVersionList())
	}

	agentsVal, multi := expanded["agents"]
	cfg.Multi = multi

	if multi {
		for _, key := range sortedKeys(expanded) {
			if key != "version" && key != "agents" {
				errs.add("/"+key, "field %q is not allowed alongside agents", key)
			}
		}
		items, ok := agentsVal.([]any)
		switch {
		case !ok:
			errs.add("/agents", "agents must be a sequence")
		case len(items) == 0:
			errs.add("/agents", "agents must not be empty")
		default:
			for i, item := range items {
				base := fmt.Sprintf("/agents/%d", i)
				entry, ok := item.(map[string]any)
				if !ok {
					errs.add(base, "agent entry must be a mapping")
					continue
				}
				cfg.Agents = append(cfg.Agents, resolveAgent(entry, base, &errs))
			}
		}
	} else {
		entry := make(map[string]any, len(expanded))
		for k, v := range expanded {
			if k != "version" {
				entry[k] = v
			}
		}
		cfg.Agents = append(cfg.Agents, resolveAgent(entry, "", &errs))
	}

	if len(errs) > 0 {
		return nil, errs
	}

	if dup := findDuplicateID(cfg.Agents); dup != nil {
		return nil, dup
	}

	cfg.SetDefaults()
	return cfg, nil
}

// agentDoc mirrors the raw shape of one agent entry. Model stays a raw map
// because the model block is open; Plugins stays untyped because two
// distinct shapes are accepted.
type agentDoc struct {
	ID           string            `yaml:"id"`
	Name         string            `yaml:"name"`
	Description  string            `yaml:"description"`
	SystemPrompt string            `yaml:"system_prompt"`
	Model        map[string]any    `yaml:"model"`
	Features     map[string]any    `yaml:"features"`
	Env          map[string]string `yaml:"env"`
	Plugins      any               `yaml:"plugins"`
	McpServers   []map[string]any  `yaml:"mcp_servers"`
}

func resolveAgent(entry map[string]any, base string, errs *ValidationErrors) *AgentConfig {
	var doc agentDoc
	for _, key := range decodeEntry(entry, &doc, base, errs) {
		errs.add(base+"/"+key, "unknown field %q", key)
	}

	agent := &AgentConfig{
		ID:           doc.ID,
		Name:         doc.Name,
		Description:  doc.Description,
		SystemPrompt: doc.SystemPrompt,
		Features:     doc.Features,
		Env:          doc.Env,
	}

	if doc.Model == nil {
		errs.add(base+"/model", "model is required")
	} else {
		decodeModel(doc.Model, &agent.Model, base+"/model", errs)
	}

	// The two plugin shapes mark the schema generation: the legacy nested
	// mapping still requires system_prompt, the flat array does not.
	legacyGeneration := false
	switch plugins := doc.Plugins.(type) {
	case nil:
	case map[string]any:
		legacyGeneration = true
		agent.Plugins = parseLegacyPlugins(plugins, base+"/plugins", errs)
	case []any:
		agent.Plugins = parseFlatPlugins(plugins, base+"/plugins", errs)
	default:
		errs.add(base+"/plugins", "plugins must be a sequence or a local/github mapping")
	}

	agent.MCPServers = parseMcpServers(doc.McpServers, base+"/mcp_servers", errs)

	agent.validate(base, legacyGeneration, errs)
	return agent
}

// decodeEntry decodes an agent entry and returns the keys the entry carried
// that the schema does not recognize. Agent entries are a closed subtree;
// the model and features blocks inside them remain freeform.
func decodeEntry(entry map[string]any, doc *agentDoc, base string, errs *ValidationErrors) []string {
	var md mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           doc,
		TagName:          "yaml",
		WeaklyTypedInput: true,
		Metadata:         &md,
	})
	if err != nil {
		errs.add(base, "failed to create decoder: %v", err)
		return nil
	}
	if err := decoder.Decode(entry); err != nil {
		errs.add(base, "invalid agent entry: %v", err)
		return nil
	}
	return md.Unused
}

// decodeModel decodes the open model block into ModelConfig. Unknown keys
// are permitted and ignored.
func decodeModel(raw map[string]any, model *ModelConfig, base string, errs *ValidationErrors) {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           model,
		TagName:          "yaml",
		WeaklyTypedInput: true,
	})
	if err != nil {
		errs.add(base, "failed to create decoder: %v", err)
		return
	}
	if err := decoder.Decode(raw); err != nil {
		errs.add(base, "invalid model block: %v", err)
		return
	}
	model.validate(base, errs)
}

// findDuplicateID reports the first agent id collision, if any. Only ids
// present in the document collide; generated ids are unique by construction.
func findDuplicateID(agents []*AgentConfig) *DuplicateIDError {
	seen := make(map[string]int, len(agents))
	for i, a := range agents {
		if a.ID == "" {
			continue
		}
		if first, dup := seen[a.ID]; dup {
			return &DuplicateIDError{
				ID: a.ID,
				Paths: []string{
					fmt.Sprintf("/agents/%d", first),
					fmt.Sprintf("/agents/%d", i),
				},
			}
		}
		seen[a.ID] = i
	}
	return nil
}

func versionString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func supportedVersionList() string {
	keys := make(map[string]any, len(SupportedVersions))
	for v := range SupportedVersions {
		keys[v] = nil
	}
	list := sortedKeys(keys)
	out := ""
	for i, v := range list {
		if i > 0 {
			out += ", "
		}
		out += v
	}
	return out
}
