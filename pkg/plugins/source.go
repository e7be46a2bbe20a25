// Package plugins resolves plugin declarations into installable sources and
// tracks installed state in the lockfile. Downloading and checking out
// GitHub repositories is left to the installer; this package owns naming,
// cache layout, and staleness decisions.
package plugins

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/onwardplatforms/agently/pkg/config"
)

// PluginType selects the cache namespace and the required GitHub name prefix.
type PluginType string

const (
	TypePlugin PluginType = "plugin"
	TypeMCP    PluginType = "mcp"
)

const (
	// PluginPrefix and MCPPrefix are the required repository name prefixes
	// for GitHub-hosted plugins.
	PluginPrefix = "agently-plugin-"
	MCPPrefix    = "agently-mcp-"
)

// DefaultCacheRoot is where resolved plugins are materialized, relative to
// the working directory.
const DefaultCacheRoot = ".agently/plugins"

var (
	ErrInvalidRepo   = fmt.Errorf("invalid github repository reference")
	ErrMissingPrefix = fmt.Errorf("repository name missing required prefix")
)

// PluginError decorates a failure with the plugin and operation it belongs to.
type PluginError struct {
	PluginName string
	Operation  string
	Err        error
}

func (e *PluginError) Error() string {
	return fmt.Sprintf("plugin %s: %s: %v", e.PluginName, e.Operation, e.Err)
}

func (e *PluginError) Unwrap() error {
	return e.Err
}

// Source is a resolvable plugin origin. Implementations are LocalSource and
// GitHubSource.
type Source interface {
	// Name is the plugin's short install name.
	Name() string

	// Type reports which cache namespace the plugin belongs to.
	Type() PluginType

	// CachePath is where the plugin is (or would be) materialized under
	// the given cache root.
	CachePath(root string) string

	// NeedsUpdate reports whether the lockfile entry is stale for this
	// source.
	NeedsUpdate(locked *PluginLock) (bool, error)

	// Lock produces the lockfile entry recorded after installation.
	Lock() (PluginLock, error)
}

// SourceFor maps a canonical plugin declaration to its installable source.
func SourceFor(decl config.PluginDecl) (Source, error) {
	typ := TypePlugin
	if decl.Kind() == config.KindMCP {
		typ = TypeMCP
	}

	origin := decl.Provenance()
	switch origin.Source {
	case config.SourceLocal:
		return NewLocalSource(origin.Path, typ)
	case config.SourceGitHub:
		return NewGitHubSource(origin.Repo, origin.Version, typ)
	default:
		return nil, fmt.Errorf("unknown plugin source %q", origin.Source)
	}
}

// LocalSource is a plugin living on the local filesystem. Staleness is
// decided by hashing the tree, so edits are picked up without version
// bookkeeping.
type LocalSource struct {
	path string
	typ  PluginType
}

// NewLocalSource creates a local source rooted at path.
func NewLocalSource(path string, typ PluginType) (*LocalSource, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve plugin path: %w", err)
	}
	return &LocalSource{path: abs, typ: typ}, nil
}

func (s *LocalSource) Name() string {
	return filepath.Base(s.path)
}

func (s *LocalSource) Type() PluginType {
	return s.typ
}

func (s *LocalSource) Path() string {
	return s.path
}

func (s *LocalSource) CachePath(root string) string {
	return filepath.Join(root, string(s.typ), s.Name())
}

// SHA hashes the plugin tree: every regular file, sorted by relative path,
// path and content both folded in. Two trees with the same files hash equal
// regardless of walk order.
func (s *LocalSource) SHA() (string, error) {
	var files []string
	err := filepath.WalkDir(s.path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return "", &PluginError{PluginName: s.Name(), Operation: "hash", Err: err}
	}
	sort.Strings(files)

	h := sha256.New()
	for _, path := range files {
		rel, err := filepath.Rel(s.path, path)
		if err != nil {
			return "", &PluginError{PluginName: s.Name(), Operation: "hash", Err: err}
		}
		io.WriteString(h, filepath.ToSlash(rel))

		f, err := os.Open(path)
		if err != nil {
			return "", &PluginError{PluginName: s.Name(), Operation: "hash", Err: err}
		}
		_, err = io.Copy(h, f)
		f.Close()
		if err != nil {
			return "", &PluginError{PluginName: s.Name(), Operation: "hash", Err: err}
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func (s *LocalSource) NeedsUpdate(locked *PluginLock) (bool, error) {
	if locked == nil || locked.SHA == "" {
		return true, nil
	}
	sha, err := s.SHA()
	if err != nil {
		return false, err
	}
	return sha != locked.SHA, nil
}

func (s *LocalSource) Lock() (PluginLock, error) {
	sha, err := s.SHA()
	if err != nil {
		return PluginLock{}, err
	}
	return PluginLock{
		Name:       s.Name(),
		FullName:   s.path,
		SHA:        sha,
		SourceType: string(config.SourceLocal),
	}, nil
}

// GitHubSource is a plugin pinned to a repository and git ref. The
// repository name must carry the prefix for its plugin type; the short name
// is the repository name with the prefix stripped.
type GitHubSource struct {
	owner    string
	repoName string
	version  string
	typ      PluginType
}

// NewGitHubSource creates a GitHub source from a repository reference in any
// of the accepted forms (https://github.com/user/repo, github.com/user/repo,
// user/repo) and a git ref.
func NewGitHubSource(repo, version string, typ PluginType) (*GitHubSource, error) {
	normalized := normalizeRepo(repo)
	parts := strings.Split(normalized, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRepo, repo)
	}

	prefix := PluginPrefix
	if typ == TypeMCP {
		prefix = MCPPrefix
	}
	if !strings.HasPrefix(parts[1], prefix) {
		return nil, fmt.Errorf("%w: %q must start with %q", ErrMissingPrefix, parts[1], prefix)
	}

	return &GitHubSource{
		owner:    parts[0],
		repoName: parts[1],
		version:  strings.TrimSpace(version),
		typ:      typ,
	}, nil
}

func (s *GitHubSource) Name() string {
	prefix := PluginPrefix
	if s.typ == TypeMCP {
		prefix = MCPPrefix
	}
	return strings.TrimPrefix(s.repoName, prefix)
}

func (s *GitHubSource) Type() PluginType {
	return s.typ
}

// FullName is the canonical "owner/repo" reference.
func (s *GitHubSource) FullName() string {
	return s.owner + "/" + s.repoName
}

// CloneURL is the HTTPS clone endpoint for the repository.
func (s *GitHubSource) CloneURL() string {
	return "https://github.com/" + s.FullName() + ".git"
}

func (s *GitHubSource) Version() string {
	return s.version
}

// CandidateRefs returns the git refs to try in order when checking out the
// pinned version: the literal ref, then the "v"-prefixed tag form when the
// literal does not already carry it.
func (s *GitHubSource) CandidateRefs() []string {
	refs := []string{s.version}
	if !strings.HasPrefix(s.version, "v") {
		refs = append(refs, "v"+s.version)
	}
	return refs
}

func (s *GitHubSource) CachePath(root string) string {
	return filepath.Join(root, string(s.typ), s.Name())
}

func (s *GitHubSource) NeedsUpdate(locked *PluginLock) (bool, error) {
	if locked == nil {
		return true, nil
	}
	return locked.FullName != s.FullName() || locked.Version != s.version, nil
}

func (s *GitHubSource) Lock() (PluginLock, error) {
	return PluginLock{
		Name:       s.Name(),
		FullName:   s.FullName(),
		Version:    s.version,
		SourceType: string(config.SourceGitHub),
	}, nil
}

// normalizeRepo reduces a repository reference to "user/repo" form.
func normalizeRepo(repo string) string {
	repo = strings.TrimSpace(repo)
	repo = strings.TrimPrefix(repo, "https://")
	repo = strings.TrimPrefix(repo, "http://")
	repo = strings.TrimPrefix(repo, "github.com/")
	repo = strings.TrimSuffix(repo, ".git")
	return strings.Trim(repo, "/")
}
