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

// Legacy nested plugin shape:
//
//	plugins:
//	  local:
//	    - source: ./plugins/calculator
//	  github:
//	    - url: user/agently-plugin-web
//	      version: v1.2.0
//	      variables:
//	        api_key: ${{ env.API_KEY }}
//
// The nesting key carries the provenance, the entry never declares a kind:
// an entry with variables is an agently plugin, one without is an sk plugin.
// This parser is independent of the flat-array parser; both feed the same
// canonical PluginDecl list.

var legacyPluginKeys = map[SourceType]map[string]bool{
	SourceLocal:  {"source": true, "variables": true},
	SourceGitHub: {"url": true, "version": true, "branch": true, "variables": true},
}

// parseLegacyPlugins parses the nested map shape into canonical declarations.
// Local entries come before github entries, each group in document order.
func parseLegacyPlugins(nested map[string]any, base string, errs *ValidationErrors) []PluginDecl {
	for _, key := range sortedKeys(nested) {
		if key != "local" && key != "github" {
			errs.add(base+"/"+key, "unknown plugin group %q (expected local or github)", key)
		}
	}

	var decls []PluginDecl
	decls = append(decls, parseLegacyGroup(nested, SourceLocal, base+"/local", errs)...)
	decls = append(decls, parseLegacyGroup(nested, SourceGitHub, base+"/github", errs)...)
	return decls
}

func parseLegacyGroup(nested map[string]any, source SourceType, base string, errs *ValidationErrors) []PluginDecl {
	v, ok := nested[string(source)]
	if !ok || v == nil {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		errs.add(base, "plugin group must be a sequence")
		return nil
	}

	decls := make([]PluginDecl, 0, len(items))
	for i, item := range items {
		entryPath := fmt.Sprintf("%s/%d", base, i)
		entry, ok := item.(map[string]any)
		if !ok {
			errs.add(entryPath, "plugin entry must be a mapping")
			continue
		}
		if decl := parseLegacyPlugin(entry, source, entryPath, errs); decl != nil {
			decls = append(decls, decl)
		}
	}
	return decls
}

func parseLegacyPlugin(entry map[string]any, source SourceType, base string, errs *ValidationErrors) PluginDecl {
	allowed := legacyPluginKeys[source]
	for _, key := range sortedKeys(entry) {
		if !allowed[key] {
			errs.add(base+"/"+key, "field %q is not allowed for legacy %s plugins", key, source)
		}
	}

	origin := Origin{Source: source}
	switch source {
	case SourceLocal:
		// The legacy local shape names its path field "source".
		origin.Path = stringField(entry, "source")
	case SourceGitHub:
		origin.Repo = stringField(entry, "url")
		origin.Version = stringField(entry, "version")
		if branch := stringField(entry, "branch"); branch != "" {
			if origin.Version != "" {
				errs.add(base+"/branch", "branch and version are mutually exclusive")
			} else {
				origin.Version = branch
			}
		}
	}

	// Kind inference: variables marks an agently plugin, otherwise sk.
	var decl PluginDecl
	if _, hasVars := entry["variables"]; hasVars {
		decl = &AgentlyPlugin{
			Origin:    origin,
			Variables: stringMapField(entry, "variables", base, errs),
		}
	} else {
		decl = &SKPlugin{Origin: origin}
	}

	decl.validate(base, errs)
	decl.normalize()
	return decl
}
