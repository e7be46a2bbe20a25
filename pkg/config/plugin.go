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
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
)

// PluginKind identifies what a plugin declaration loads into the agent.
type PluginKind string

const (
	// KindSK is a plain semantic-kernel style plugin: code only, no
	// configuration variables and no subprocess.
	KindSK PluginKind = "sk"

	// KindMCP is an MCP server plugin launched as a subprocess.
	KindMCP PluginKind = "mcp"

	// KindAgently is a native plugin that accepts configuration variables.
	KindAgently PluginKind = "agently"
)

// SourceType identifies where a plugin's code comes from.
type SourceType string

const (
	SourceLocal  SourceType = "local"
	SourceGitHub SourceType = "github"
)

// Origin identifies the provenance of a plugin: exactly one of a local path
// or a GitHub repository reference.
type Origin struct {
	// Source is the provenance discriminator (local or github).
	Source SourceType `yaml:"source" json:"source"`

	// Path is the filesystem path of a local plugin.
	Path string `yaml:"path,omitempty" json:"path,omitempty"`

	// Repo is the repository of a GitHub plugin, normalized to "user/repo".
	Repo string `yaml:"url,omitempty" json:"url,omitempty"`

	// Version is the git ref of a GitHub plugin (tag, branch, or commit).
	Version string `yaml:"version,omitempty" json:"version,omitempty"`
}

// Name derives the plugin's short name from its provenance: the last path
// element for local plugins, the repository name for GitHub plugins.
func (o Origin) Name() string {
	switch o.Source {
	case SourceGitHub:
		if idx := strings.LastIndex(o.Repo, "/"); idx != -1 {
			return o.Repo[idx+1:]
		}
		return o.Repo
	default:
		return path.Base(strings.TrimRight(o.Path, "/"))
	}
}

// validate checks the per-provenance field requirements: local requires a
// path, github requires a repository and a version.
func (o Origin) validate(base string, errs *ValidationErrors) {
	switch o.Source {
	case SourceLocal:
		if o.Path == "" {
			errs.add(base+"/path", "local plugins require a path")
		}
		if o.Repo != "" {
			errs.add(base+"/url", "url is not allowed for local plugins")
		}
		if o.Version != "" {
			errs.add(base+"/version", "version is not allowed for local plugins")
		}
	case SourceGitHub:
		if o.Repo == "" {
			errs.add(base+"/url", "github plugins require a url")
		}
		if o.Version == "" {
			errs.add(base+"/version", "github plugins require a version")
		}
		if o.Path != "" {
			errs.add(base+"/path", "path is not allowed for github plugins")
		}
	case "":
		errs.add(base+"/source", "source is required (local or github)")
	default:
		errs.add(base+"/source", "unknown source %q (expected local or github)", o.Source)
	}
}

// normalize canonicalizes the provenance fields in place.
func (o *Origin) normalize() {
	o.Path = strings.TrimSpace(o.Path)
	o.Repo = normalizeRepo(o.Repo)
	o.Version = strings.TrimSpace(o.Version)
}

// normalizeRepo reduces a GitHub reference to "user/repo" form, accepting
// https://github.com/user/repo, github.com/user/repo, and user/repo inputs.
func normalizeRepo(repo string) string {
	repo = strings.TrimSpace(repo)
	repo = strings.TrimPrefix(repo, "https://")
	repo = strings.TrimPrefix(repo, "http://")
	repo = strings.TrimPrefix(repo, "github.com/")
	repo = strings.TrimSuffix(repo, ".git")
	return strings.Trim(repo, "/")
}

// PluginDecl is the canonical form of a plugin declaration. The set of
// implementations is closed: SKPlugin, AgentlyPlugin, and MCPPlugin. Field
// legality differs per kind, so each variant carries only the fields it
// permits; illegal combinations are unrepresentable once parsed.
type PluginDecl interface {
	// Kind reports the plugin kind discriminator.
	Kind() PluginKind

	// Provenance reports where the plugin's code comes from.
	Provenance() Origin

	// validate appends field-level violations for this declaration.
	validate(base string, errs *ValidationErrors)

	// normalize canonicalizes the declaration in place.
	normalize()
}

// SKPlugin is a code-only plugin. It carries no variables and launches no
// subprocess.
type SKPlugin struct {
	Origin
}

func (p *SKPlugin) Kind() PluginKind   { return KindSK }
func (p *SKPlugin) Provenance() Origin { return p.Origin }

func (p *SKPlugin) validate(base string, errs *ValidationErrors) {
	p.Origin.validate(base, errs)
}

// AgentlyPlugin is a native plugin that accepts configuration variables.
type AgentlyPlugin struct {
	Origin

	// Variables configure the plugin at load time.
	Variables map[string]string `yaml:"variables,omitempty" json:"variables,omitempty"`
}

func (p *AgentlyPlugin) Kind() PluginKind   { return KindAgently }
func (p *AgentlyPlugin) Provenance() Origin { return p.Origin }

func (p *AgentlyPlugin) validate(base string, errs *ValidationErrors) {
	p.Origin.validate(base, errs)
}

// MCPPlugin launches an MCP server subprocess from the declared command.
type MCPPlugin struct {
	Origin

	// Command is the executable to launch.
	Command string `yaml:"command" json:"command"`

	// Args are passed to the command in order.
	Args []string `yaml:"args" json:"args"`
}

func (p *MCPPlugin) Kind() PluginKind   { return KindMCP }
func (p *MCPPlugin) Provenance() Origin { return p.Origin }

func (p *MCPPlugin) validate(base string, errs *ValidationErrors) {
	p.Origin.validate(base, errs)
	if p.Command == "" {
		errs.add(base+"/command", "mcp plugins require a command")
	}
	if len(p.Args) == 0 {
		errs.add(base+"/args", "mcp plugins require args")
	}
}

// pluginDoc is the serialized form of a plugin declaration: the flat shape
// with the kind spelled out, whichever shape the declaration was parsed from.
type pluginDoc struct {
	Source    SourceType        `yaml:"source" json:"source"`
	Type      PluginKind        `yaml:"type" json:"type"`
	Path      string            `yaml:"path,omitempty" json:"path,omitempty"`
	Repo      string            `yaml:"url,omitempty" json:"url,omitempty"`
	Version   string            `yaml:"version,omitempty" json:"version,omitempty"`
	Command   string            `yaml:"command,omitempty" json:"command,omitempty"`
	Args      []string          `yaml:"args,omitempty" json:"args,omitempty"`
	Variables map[string]string `yaml:"variables,omitempty" json:"variables,omitempty"`
}

func encodePlugin(decl PluginDecl) pluginDoc {
	o := decl.Provenance()
	doc := pluginDoc{
		Source:  o.Source,
		Type:    decl.Kind(),
		Path:    o.Path,
		Repo:    o.Repo,
		Version: o.Version,
	}
	switch p := decl.(type) {
	case *AgentlyPlugin:
		doc.Variables = p.Variables
	case *MCPPlugin:
		doc.Command = p.Command
		doc.Args = p.Args
	}
	return doc
}

func (p *SKPlugin) MarshalYAML() (any, error)      { return encodePlugin(p), nil }
func (p *SKPlugin) MarshalJSON() ([]byte, error)   { return json.Marshal(encodePlugin(p)) }
func (p *AgentlyPlugin) MarshalYAML() (any, error) { return encodePlugin(p), nil }
func (p *AgentlyPlugin) MarshalJSON() ([]byte, error) {
	return json.Marshal(encodePlugin(p))
}
func (p *MCPPlugin) MarshalYAML() (any, error)    { return encodePlugin(p), nil }
func (p *MCPPlugin) MarshalJSON() ([]byte, error) { return json.Marshal(encodePlugin(p)) }

// flatPluginKeys lists the keys legal for a flat-array plugin entry, per
// (source, type) pair. Keys outside the entry's set are rejected.
var flatPluginKeys = map[PluginKind]map[string]bool{
	KindSK:      {"source": true, "type": true, "path": true, "url": true, "version": true},
	KindAgently: {"source": true, "type": true, "path": true, "url": true, "version": true, "variables": true},
	KindMCP:     {"source": true, "type": true, "path": true, "url": true, "version": true, "command": true, "args": true},
}

// parseFlatPlugins parses the flat-array plugin shape:
//
//	plugins:
//	  - source: github
//	    type: agently
//	    url: user/agently-plugin-web
//	    version: v1.2.0
//
// Each entry declares its kind explicitly via "type"; the field set is
// checked against what the declared (source, type) pair permits.
func parseFlatPlugins(items []any, base string, errs *ValidationErrors) []PluginDecl {
	decls := make([]PluginDecl, 0, len(items))
	for i, item := range items {
		entryPath := fmt.Sprintf("%s/%d", base, i)
		entry, ok := item.(map[string]any)
		if !ok {
			errs.add(entryPath, "plugin entry must be a mapping")
			continue
		}
		if decl := parseFlatPlugin(entry, entryPath, errs); decl != nil {
			decls = append(decls, decl)
		}
	}
	return decls
}

func parseFlatPlugin(entry map[string]any, base string, errs *ValidationErrors) PluginDecl {
	kind := PluginKind(stringField(entry, "type"))
	if kind == "" {
		errs.add(base+"/type", "type is required (sk, mcp, or agently)")
		return nil
	}

	allowed, ok := flatPluginKeys[kind]
	if !ok {
		errs.add(base+"/type", "unknown plugin type %q (expected sk, mcp, or agently)", kind)
		return nil
	}
	for _, key := range sortedKeys(entry) {
		if !allowed[key] {
			errs.add(base+"/"+key, "field %q is not allowed for %s plugins", key, kind)
		}
	}

	origin := Origin{
		Source:  SourceType(stringField(entry, "source")),
		Path:    stringField(entry, "path"),
		Repo:    stringField(entry, "url"),
		Version: stringField(entry, "version"),
	}

	var decl PluginDecl
	switch kind {
	case KindSK:
		decl = &SKPlugin{Origin: origin}
	case KindAgently:
		decl = &AgentlyPlugin{
			Origin:    origin,
			Variables: stringMapField(entry, "variables", base, errs),
		}
	case KindMCP:
		decl = &MCPPlugin{
			Origin:  origin,
			Command: stringField(entry, "command"),
			Args:    stringSliceField(entry, "args", base, errs),
		}
	}

	decl.validate(base, errs)
	decl.normalize()
	return decl
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprintf("%v", v)
	}
	return ""
}

func stringMapField(m map[string]any, key, base string, errs *ValidationErrors) map[string]string {
	v, ok := m[key]
	if !ok || v == nil {
		return nil
	}
	raw, ok := v.(map[string]any)
	if !ok {
		errs.add(base+"/"+key, "%s must be a mapping of string to string", key)
		return nil
	}
	result := make(map[string]string, len(raw))
	for k, item := range raw {
		if s, ok := item.(string); ok {
			result[k] = s
		} else {
			result[k] = fmt.Sprintf("%v", item)
		}
	}
	return result
}

func stringSliceField(m map[string]any, key, base string, errs *ValidationErrors) []string {
	v, ok := m[key]
	if !ok || v == nil {
		return nil
	}
	raw, ok := v.([]any)
	if !ok {
		errs.add(base+"/"+key, "%s must be a sequence of strings", key)
		return nil
	}
	result := make([]string, 0, len(raw))
	for i, item := range raw {
		if s, ok := item.(string); ok {
			result = append(result, s)
		} else {
			errs.add(fmt.Sprintf("%s/%s/%d", base, key, i), "expected a string, got %T", item)
		}
	}
	return result
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
