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
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/onwardplatforms/agently/pkg/config"
	"github.com/onwardplatforms/agently/pkg/mcp"
	"github.com/onwardplatforms/agently/pkg/model"
	"github.com/onwardplatforms/agently/pkg/plugins"
)

// RunCmd runs an agent: a REPL when stdin is a terminal, a single prompt
// read from stdin otherwise.
type RunCmd struct {
	// AgentID selects the agent in a multi-agent file. Defaults to the
	// first agent.
	AgentID string `arg:"" optional:"" help:"Agent id to run (defaults to the first agent)."`

	// Force runs even when the lockfile is missing or stale.
	Force bool `help:"Run even if plugins are not initialized or out of date."`
}

// Run executes the run command.
func (c *RunCmd) Run(cli *CLI) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	_ = config.LoadDotEnvForConfig(cli.Agent)

	cfg, loader, err := config.LoadConfigFile(ctx, cli.Agent)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	defer loader.Close()

	agent := cfg.SingleAgent()
	if c.AgentID != "" {
		var ok bool
		agent, ok = cfg.GetAgent(c.AgentID)
		if !ok {
			return fmt.Errorf("agent %q not found (available: %s)", c.AgentID, strings.Join(cfg.ListAgents(), ", "))
		}
	}
	if agent == nil {
		return fmt.Errorf("no agents configured in %s", cli.Agent)
	}

	if !c.Force {
		if err := checkInitialized(agent, cli.Agent); err != nil {
			return err
		}
	}

	provider, err := model.Get(agent.Model.Provider)
	if err != nil {
		return err
	}

	toolsets, err := connectToolsets(ctx, agent)
	if err != nil {
		return err
	}
	defer closeToolsets(toolsets)

	messages := []model.Message{}
	if agent.SystemPrompt != "" {
		messages = append(messages, model.Message{Role: model.RoleSystem, Content: agent.SystemPrompt})
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		// Non-interactive: one prompt in, one completion out.
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read prompt: %w", err)
		}
		prompt := strings.TrimSpace(string(data))
		if prompt == "" {
			return fmt.Errorf("empty prompt on stdin")
		}
		return chatOnce(ctx, provider, append(messages, model.Message{Role: model.RoleUser, Content: prompt}), agent.Model)
	}

	return repl(ctx, provider, agent, messages)
}

// checkInitialized verifies the lockfile covers the agent and none of its
// plugins are stale, pointing at `agently init` otherwise.
func checkInitialized(agent *config.AgentConfig, configPath string) error {
	lf, err := plugins.LoadLockfile(lockfilePath(configPath))
	if err != nil {
		if errors.Is(err, plugins.ErrLockfileNotFound) {
			return fmt.Errorf("agent %q is not initialized, run `agently init` first", agent.ID)
		}
		return err
	}

	entry, ok := lf.Agent(agent.ID)
	if !ok {
		return fmt.Errorf("agent %q is not initialized, run `agently init` first", agent.ID)
	}

	for _, decl := range agent.Plugins {
		src, err := plugins.SourceFor(decl)
		if err != nil {
			return err
		}
		stale, err := src.NeedsUpdate(findLock(entry, src.Name()))
		if err != nil {
			return err
		}
		if stale {
			return fmt.Errorf("plugin %q is out of date, run `agently init` to update", src.Name())
		}
	}
	return nil
}

// connectToolsets launches the agent's declared MCP servers and lists their
// tools, so a broken server declaration fails the run before the first
// prompt. Returns the connected toolsets; the caller closes them.
func connectToolsets(ctx context.Context, agent *config.AgentConfig) ([]*mcp.Toolset, error) {
	toolsets := make([]*mcp.Toolset, 0, len(agent.MCPServers))
	for _, decl := range agent.MCPServers {
		ts, err := mcp.NewToolset(decl)
		if err != nil {
			closeToolsets(toolsets)
			return nil, err
		}
		if _, err := ts.Tools(ctx); err != nil {
			closeToolsets(toolsets)
			return nil, err
		}
		toolsets = append(toolsets, ts)
	}
	return toolsets, nil
}

func closeToolsets(toolsets []*mcp.Toolset) {
	for _, ts := range toolsets {
		ts.Close()
	}
}

// repl reads prompts until EOF or an exit command, keeping the conversation
// in memory for the session.
func repl(ctx context.Context, provider model.Provider, agent *config.AgentConfig, messages []model.Message) error {
	name := agent.Name
	if name == "" {
		name = agent.ID
	}
	fmt.Printf("Running %s (%s/%s). Type 'exit' to quit.\n", name, agent.Model.Provider, agent.Model.Model)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		messages = append(messages, model.Message{Role: model.RoleUser, Content: line})
		reply, err := provider.Chat(ctx, messages, agent.Model)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			messages = messages[:len(messages)-1]
			continue
		}
		messages = append(messages, model.Message{Role: model.RoleAssistant, Content: reply})
		fmt.Println(reply)
	}
}

func chatOnce(ctx context.Context, provider model.Provider, messages []model.Message, cfg config.ModelConfig) error {
	reply, err := provider.Chat(ctx, messages, cfg)
	if err != nil {
		return err
	}
	fmt.Println(reply)
	return nil
}
