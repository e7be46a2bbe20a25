package config

import (
	"testing"
)

func parseFlat(t *testing.T, entry map[string]any) (PluginDecl, ValidationErrors) {
	t.Helper()
	var errs ValidationErrors
	decl := parseFlatPlugin(entry, "/plugins/0", &errs)
	return decl, errs
}

func TestParseFlatPluginVariants(t *testing.T) {
	tests := []struct {
		name     string
		entry    map[string]any
		wantKind PluginKind
		wantErrs []string
	}{
		{
			name: "local sk",
			entry: map[string]any{
				"source": "local",
				"type":   "sk",
				"path":   "./plugins/calc",
			},
			wantKind: KindSK,
		},
		{
			name: "github agently",
			entry: map[string]any{
				"source":    "github",
				"type":      "agently",
				"url":       "user/agently-plugin-web",
				"version":   "v1.2.0",
				"variables": map[string]any{"api_key": "k"},
			},
			wantKind: KindAgently,
		},
		{
			name: "local mcp",
			entry: map[string]any{
				"source":  "local",
				"type":    "mcp",
				"path":    "./plugins/files",
				"command": "npx",
				"args":    []any{"-y", "server"},
			},
			wantKind: KindMCP,
		},
		{
			name: "sk rejects variables",
			entry: map[string]any{
				"source":    "local",
				"type":      "sk",
				"path":      "./plugins/calc",
				"variables": map[string]any{"k": "v"},
			},
			wantErrs: []string{"/plugins/0/variables"},
		},
		{
			name: "agently rejects command",
			entry: map[string]any{
				"source":  "local",
				"type":    "agently",
				"path":    "./plugins/calc",
				"command": "npx",
			},
			wantErrs: []string{"/plugins/0/command"},
		},
		{
			name: "mcp requires command and args",
			entry: map[string]any{
				"source": "local",
				"type":   "mcp",
				"path":   "./plugins/files",
			},
			wantErrs: []string{"/plugins/0/command", "/plugins/0/args"},
		},
		{
			name: "github requires version",
			entry: map[string]any{
				"source": "github",
				"type":   "sk",
				"url":    "user/agently-plugin-web",
			},
			wantErrs: []string{"/plugins/0/version"},
		},
		{
			name: "local rejects url",
			entry: map[string]any{
				"source": "local",
				"type":   "sk",
				"path":   "./plugins/calc",
				"url":    "user/repo",
			},
			wantErrs: []string{"/plugins/0/url"},
		},
		{
			name: "github rejects path",
			entry: map[string]any{
				"source":  "github",
				"type":    "sk",
				"url":     "user/repo",
				"version": "v1.0.0",
				"path":    "./x",
			},
			wantErrs: []string{"/plugins/0/path"},
		},
		{
			name: "missing type",
			entry: map[string]any{
				"source": "local",
				"path":   "./plugins/calc",
			},
			wantErrs: []string{"/plugins/0/type"},
		},
		{
			name: "unknown type",
			entry: map[string]any{
				"source": "local",
				"type":   "wasm",
				"path":   "./plugins/calc",
			},
			wantErrs: []string{"/plugins/0/type"},
		},
		{
			name: "unknown source",
			entry: map[string]any{
				"source": "gitlab",
				"type":   "sk",
				"path":   "./plugins/calc",
			},
			wantErrs: []string{"/plugins/0/source"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decl, errs := parseFlat(t, tt.entry)
			if len(tt.wantErrs) == 0 {
				if len(errs) != 0 {
					t.Fatalf("expected no errors, got %v", errs)
				}
				if decl.Kind() != tt.wantKind {
					t.Errorf("expected kind %s, got %s", tt.wantKind, decl.Kind())
				}
				return
			}
			for _, path := range tt.wantErrs {
				if !hasErrorAt(errs, path) {
					t.Errorf("expected error at %s, got %v", path, errs)
				}
			}
		})
	}
}

func TestParseFlatPluginNormalizesRepo(t *testing.T) {
	decl, errs := parseFlat(t, map[string]any{
		"source":  "github",
		"type":    "sk",
		"url":     "https://github.com/user/agently-plugin-web.git",
		"version": "v1.2.0",
	})
	if len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
	if got := decl.Provenance().Repo; got != "user/agently-plugin-web" {
		t.Errorf("expected normalized repo, got %q", got)
	}
}

func TestParseLegacyPluginsKindInference(t *testing.T) {
	var errs ValidationErrors
	decls := parseLegacyPlugins(map[string]any{
		"local": []any{
			map[string]any{"source": "./plugins/calc"},
		},
		"github": []any{
			map[string]any{
				"url":     "user/agently-plugin-web",
				"version": "v1.2.0",
				"variables": map[string]any{
					"api_key": "k",
				},
			},
		},
	}, "/plugins", &errs)
	if len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
	if len(decls) != 2 {
		t.Fatalf("expected 2 declarations, got %d", len(decls))
	}

	// Local entries precede github entries.
	if decls[0].Kind() != KindSK {
		t.Errorf("entry without variables must infer sk, got %s", decls[0].Kind())
	}
	if got := decls[0].Provenance().Path; got != "./plugins/calc" {
		t.Errorf("legacy local source field must become the path, got %q", got)
	}

	if decls[1].Kind() != KindAgently {
		t.Errorf("entry with variables must infer agently, got %s", decls[1].Kind())
	}
	ap, ok := decls[1].(*AgentlyPlugin)
	if !ok {
		t.Fatalf("expected *AgentlyPlugin, got %T", decls[1])
	}
	if ap.Variables["api_key"] != "k" {
		t.Errorf("expected variables to survive, got %v", ap.Variables)
	}
}

func TestParseLegacyPluginBranch(t *testing.T) {
	var errs ValidationErrors
	decls := parseLegacyPlugins(map[string]any{
		"github": []any{
			map[string]any{"url": "user/agently-plugin-web", "branch": "main"},
		},
	}, "/plugins", &errs)
	if len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
	if got := decls[0].Provenance().Version; got != "main" {
		t.Errorf("branch must fold into version, got %q", got)
	}

	errs = nil
	parseLegacyPlugins(map[string]any{
		"github": []any{
			map[string]any{"url": "user/agently-plugin-web", "version": "v1.0.0", "branch": "main"},
		},
	}, "/plugins", &errs)
	if !hasErrorAt(errs, "/plugins/github/0/branch") {
		t.Errorf("branch and version together must be rejected, got %v", errs)
	}
}

func TestParseLegacyPluginsUnknownGroup(t *testing.T) {
	var errs ValidationErrors
	parseLegacyPlugins(map[string]any{
		"gitlab": []any{},
	}, "/plugins", &errs)
	if !hasErrorAt(errs, "/plugins/gitlab") {
		t.Errorf("expected error at /plugins/gitlab, got %v", errs)
	}
}

func TestParseLegacyPluginUnknownField(t *testing.T) {
	var errs ValidationErrors
	parseLegacyPlugins(map[string]any{
		"local": []any{
			map[string]any{"source": "./plugins/calc", "command": "npx"},
		},
	}, "/plugins", &errs)
	if !hasErrorAt(errs, "/plugins/local/0/command") {
		t.Errorf("expected error at /plugins/local/0/command, got %v", errs)
	}
}

func TestOriginName(t *testing.T) {
	tests := []struct {
		origin Origin
		want   string
	}{
		{Origin{Source: SourceLocal, Path: "./plugins/calculator"}, "calculator"},
		{Origin{Source: SourceLocal, Path: "/abs/path/tools/"}, "tools"},
		{Origin{Source: SourceGitHub, Repo: "user/agently-plugin-web"}, "agently-plugin-web"},
		{Origin{Source: SourceGitHub, Repo: "solo"}, "solo"},
	}
	for _, tt := range tests {
		if got := tt.origin.Name(); got != tt.want {
			t.Errorf("Name() for %+v: expected %q, got %q", tt.origin, tt.want, got)
		}
	}
}

func TestNormalizeRepo(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"user/repo", "user/repo"},
		{"github.com/user/repo", "user/repo"},
		{"https://github.com/user/repo", "user/repo"},
		{"https://github.com/user/repo.git", "user/repo"},
		{" user/repo ", "user/repo"},
		{"user/repo/", "user/repo"},
	}
	for _, tt := range tests {
		if got := normalizeRepo(tt.in); got != tt.want {
			t.Errorf("normalizeRepo(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}
