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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/onwardplatforms/agently/pkg/config"
	"github.com/onwardplatforms/agently/pkg/plugins"
)

// InitCmd resolves every agent's plugin declarations and records the result
// in the lockfile next to the configuration file.
type InitCmd struct {
	// Force re-resolves every plugin even when the lockfile is current.
	Force bool `help:"Re-resolve plugins even if the lockfile is up to date."`
}

// Run executes the init command.
func (c *InitCmd) Run(cli *CLI) error {
	ctx := context.Background()

	_ = config.LoadDotEnvForConfig(cli.Agent)

	cfg, loader, err := config.LoadConfigFile(ctx, cli.Agent)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	defer loader.Close()

	lockPath := lockfilePath(cli.Agent)
	lf, err := plugins.LoadLockfile(lockPath)
	if err != nil {
		if !errors.Is(err, plugins.ErrLockfileNotFound) {
			return err
		}
		lf = plugins.NewLockfile()
	}

	for _, agent := range cfg.Agents {
		if err := c.initAgent(ctx, agent, lf); err != nil {
			return err
		}
	}

	valid := make(map[string]bool, len(cfg.Agents))
	for _, id := range cfg.ListAgents() {
		valid[id] = true
	}
	for _, id := range lf.CleanupAgents(valid) {
		slog.Info("Removed stale lockfile entry", "agent", id)
	}

	if err := lf.Save(lockPath); err != nil {
		return err
	}

	fmt.Printf("Initialized %d agent(s), lockfile written to %s\n", len(cfg.Agents), lockPath)
	return nil
}

// initAgent resolves one agent's plugins in parallel and updates its
// lockfile entry.
func (c *InitCmd) initAgent(ctx context.Context, agent *config.AgentConfig, lf *plugins.Lockfile) error {
	prev, _ := lf.Agent(agent.ID)
	entry := lf.EnsureAgent(agent.ID, agent.Name)

	locks := make([]plugins.PluginLock, len(agent.Plugins))
	g, ctx := errgroup.WithContext(ctx)

	for i, decl := range agent.Plugins {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			src, err := plugins.SourceFor(decl)
			if err != nil {
				return fmt.Errorf("agent %s: %w", agent.ID, err)
			}

			if !c.Force {
				if locked := findLock(prev, src.Name()); locked != nil {
					stale, err := src.NeedsUpdate(locked)
					if err != nil {
						return err
					}
					if !stale {
						locks[i] = *locked
						slog.Debug("Plugin up to date", "agent", agent.ID, "plugin", src.Name())
						return nil
					}
				}
			}

			lock, err := src.Lock()
			if err != nil {
				return err
			}
			locks[i] = lock
			slog.Info("Resolved plugin", "agent", agent.ID, "plugin", lock.Name, "source", lock.SourceType)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	entry.Plugins = locks
	return nil
}

func findLock(entry *plugins.AgentLock, name string) *plugins.PluginLock {
	if entry == nil {
		return nil
	}
	for i := range entry.Plugins {
		if entry.Plugins[i].Name == name {
			return &entry.Plugins[i]
		}
	}
	return nil
}

// lockfilePath places the lockfile next to the configuration file.
func lockfilePath(configPath string) string {
	return filepath.Join(filepath.Dir(configPath), plugins.LockfileName)
}
