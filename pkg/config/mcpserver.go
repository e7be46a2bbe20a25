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

import "fmt"

// McpServerDecl declares an MCP server the agent connects to. The server is
// launched as a subprocess from Command and Args and spoken to over stdio;
// launching and supervision belong to the MCP client layer, this is only the
// declaration it consumes.
type McpServerDecl struct {
	// Name identifies the server within the agent.
	Name string `yaml:"name" json:"name" jsonschema:"required"`

	// Command is the executable to launch.
	Command string `yaml:"command" json:"command" jsonschema:"required"`

	// Args are passed to the command in order.
	Args []string `yaml:"args" json:"args" jsonschema:"required"`

	// Source optionally points at a local checkout providing the server.
	Source string `yaml:"source,omitempty" json:"source,omitempty"`

	// Repo and Version optionally pin a GitHub-hosted server.
	Repo    string `yaml:"url,omitempty" json:"url,omitempty"`
	Version string `yaml:"version,omitempty" json:"version,omitempty"`

	// Variables are exported into the server's environment.
	Variables map[string]string `yaml:"variables,omitempty" json:"variables,omitempty"`
}

var mcpServerKeys = map[string]bool{
	"name": true, "command": true, "args": true,
	"source": true, "url": true, "version": true, "variables": true,
}

// parseMcpServers parses the mcp_servers block into declarations.
func parseMcpServers(items []map[string]any, base string, errs *ValidationErrors) []McpServerDecl {
	decls := make([]McpServerDecl, 0, len(items))
	seen := make(map[string]string, len(items))

	for i, entry := range items {
		entryPath := fmt.Sprintf("%s/%d", base, i)
		for _, key := range sortedKeys(entry) {
			if !mcpServerKeys[key] {
				errs.add(entryPath+"/"+key, "field %q is not allowed for mcp servers", key)
			}
		}

		decl := McpServerDecl{
			Name:      stringField(entry, "name"),
			Command:   stringField(entry, "command"),
			Args:      stringSliceField(entry, "args", entryPath, errs),
			Source:    stringField(entry, "source"),
			Repo:      normalizeRepo(stringField(entry, "url")),
			Version:   stringField(entry, "version"),
			Variables: stringMapField(entry, "variables", entryPath, errs),
		}
		decl.validate(entryPath, errs)

		if decl.Name != "" {
			if prev, dup := seen[decl.Name]; dup {
				errs.add(entryPath+"/name", "duplicate mcp server name %q (first declared at %s)", decl.Name, prev)
			} else {
				seen[decl.Name] = entryPath
			}
		}
		decls = append(decls, decl)
	}
	return decls
}

func (d *McpServerDecl) validate(base string, errs *ValidationErrors) {
	if d.Name == "" {
		errs.add(base+"/name", "name is required")
	}
	if d.Command == "" {
		errs.add(base+"/command", "command is required")
	}
	if len(d.Args) == 0 {
		errs.add(base+"/args", "args is required")
	}
	if d.Source != "" && d.Repo != "" {
		errs.add(base+"/source", "source and url are mutually exclusive")
	}
	if d.Repo != "" && d.Version == "" {
		errs.add(base+"/version", "github-hosted mcp servers require a version")
	}
}
