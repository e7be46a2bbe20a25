package plugins

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// LockfileName is the lockfile written next to the agent configuration.
const LockfileName = "agently.lockfile.json"

// ErrLockfileNotFound reports a missing lockfile, meaning the agent has not
// been initialized yet.
var ErrLockfileNotFound = fmt.Errorf("lockfile not found")

// Lockfile records, per agent, which plugins are installed and at what
// version or content hash. It is read before a run to decide whether
// installation is current and rewritten after every init.
type Lockfile struct {
	Agents map[string]*AgentLock `json:"agents"`
}

// AgentLock is the installed state of one agent.
type AgentLock struct {
	Name    string       `json:"name"`
	Plugins []PluginLock `json:"plugins"`
}

// PluginLock pins one installed plugin. GitHub plugins carry a version,
// local plugins a content hash.
type PluginLock struct {
	Name       string `json:"name"`
	FullName   string `json:"full_name"`
	Version    string `json:"version,omitempty"`
	SHA        string `json:"sha,omitempty"`
	SourceType string `json:"source_type"`
}

// NewLockfile returns an empty lockfile.
func NewLockfile() *Lockfile {
	return &Lockfile{Agents: make(map[string]*AgentLock)}
}

// LoadLockfile reads a lockfile from disk. A missing file is reported as
// ErrLockfileNotFound so callers can distinguish "never initialized" from a
// broken file.
func LoadLockfile(path string) (*Lockfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrLockfileNotFound, path)
		}
		return nil, fmt.Errorf("failed to read lockfile: %w", err)
	}

	var lf Lockfile
	if err := json.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("failed to parse lockfile %s: %w", path, err)
	}
	if lf.Agents == nil {
		lf.Agents = make(map[string]*AgentLock)
	}
	return &lf, nil
}

// Save writes the lockfile atomically: to a temp file in the same directory,
// then renamed over the target.
func (l *Lockfile) Save(path string) error {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode lockfile: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".agently-lock-*")
	if err != nil {
		return fmt.Errorf("failed to create temp lockfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write lockfile: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close lockfile: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace lockfile: %w", err)
	}
	return nil
}

// Agent looks up the installed state of an agent.
func (l *Lockfile) Agent(id string) (*AgentLock, bool) {
	a, ok := l.Agents[id]
	return a, ok
}

// EnsureAgent returns the agent's entry, creating it if absent.
func (l *Lockfile) EnsureAgent(id, name string) *AgentLock {
	if a, ok := l.Agents[id]; ok {
		a.Name = name
		return a
	}
	a := &AgentLock{Name: name}
	l.Agents[id] = a
	return a
}

// CleanupAgents drops entries for agents no longer present in the
// configuration and returns the removed ids.
func (l *Lockfile) CleanupAgents(valid map[string]bool) []string {
	var removed []string
	for id := range l.Agents {
		if !valid[id] {
			delete(l.Agents, id)
			removed = append(removed, id)
		}
	}
	sort.Strings(removed)
	return removed
}
