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

// Package mcp connects agents to MCP (Model Context Protocol) servers
// declared in their configuration. Servers are launched as subprocesses and
// spoken to over stdio.
//
// The toolset uses lazy initialization: the server is only launched when
// Tools is first called.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mark3labs/mcp-go/client"
	mcpproto "github.com/mark3labs/mcp-go/mcp"

	"github.com/onwardplatforms/agently"
	"github.com/onwardplatforms/agently/pkg/config"
)

const protocolVersion = "2024-11-05"

// Tool is one callable tool exposed by an MCP server.
type Tool interface {
	Name() string
	Description() string
	Schema() map[string]any
	Call(ctx context.Context, args map[string]any) (map[string]any, error)
}

// Toolset is the set of tools one declared MCP server exposes.
type Toolset struct {
	decl   config.McpServerDecl
	filter map[string]bool

	mu        sync.Mutex
	client    *client.Client
	tools     []Tool
	connected bool
}

// Option configures a Toolset.
type Option func(*Toolset)

// WithFilter limits the exposed tools to the named set.
func WithFilter(names []string) Option {
	return func(t *Toolset) {
		if len(names) == 0 {
			return
		}
		t.filter = make(map[string]bool, len(names))
		for _, name := range names {
			t.filter[name] = true
		}
	}
}

// NewToolset creates a toolset for a declared MCP server.
func NewToolset(decl config.McpServerDecl, opts ...Option) (*Toolset, error) {
	if decl.Command == "" {
		return nil, fmt.Errorf("mcp server %q: command is required", decl.Name)
	}

	t := &Toolset{decl: decl}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Name returns the declared server name.
func (t *Toolset) Name() string {
	return t.decl.Name
}

// Tools returns the available tools, launching the server lazily on first
// call.
func (t *Toolset) Tools(ctx context.Context) ([]Tool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.connected {
		if err := t.connect(ctx); err != nil {
			return nil, fmt.Errorf("failed to connect to mcp server %q: %w", t.decl.Name, err)
		}
	}
	return t.tools, nil
}

// connect launches the server subprocess, runs the MCP handshake, and lists
// its tools. Caller holds t.mu.
func (t *Toolset) connect(ctx context.Context) error {
	mcpClient, err := client.NewStdioMCPClient(
		t.decl.Command,
		convertEnv(t.decl.Variables),
		t.decl.Args...,
	)
	if err != nil {
		return fmt.Errorf("failed to create mcp client: %w", err)
	}

	if err := mcpClient.Start(ctx); err != nil {
		return fmt.Errorf("failed to start mcp client: %w", err)
	}

	initReq := mcpproto.InitializeRequest{}
	initReq.Params.ClientInfo = mcpproto.Implementation{
		Name:    "agently",
		Version: agently.Version,
	}
	initReq.Params.ProtocolVersion = protocolVersion

	if _, err := mcpClient.Initialize(ctx, initReq); err != nil {
		mcpClient.Close()
		return fmt.Errorf("failed to initialize mcp session: %w", err)
	}

	listResp, err := mcpClient.ListTools(ctx, mcpproto.ListToolsRequest{})
	if err != nil {
		mcpClient.Close()
		return fmt.Errorf("failed to list tools: %w", err)
	}

	var tools []Tool
	for _, mcpTool := range listResp.Tools {
		if t.filter != nil && !t.filter[mcpTool.Name] {
			continue
		}
		tools = append(tools, &serverTool{
			toolset: t,
			name:    mcpTool.Name,
			desc:    mcpTool.Description,
			schema:  convertSchema(mcpTool.InputSchema),
		})
	}

	t.client = mcpClient
	t.tools = tools
	t.connected = true

	slog.Info("Connected to MCP server",
		"name", t.decl.Name,
		"command", t.decl.Command,
		"tools", len(tools),
	)
	return nil
}

// Close terminates the server subprocess and drops the tool list.
func (t *Toolset) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.client == nil {
		return nil
	}
	err := t.client.Close()
	t.client = nil
	t.connected = false
	t.tools = nil
	return err
}

// serverTool is one tool exposed by the connected server.
type serverTool struct {
	toolset *Toolset
	name    string
	desc    string
	schema  map[string]any
}

func (s *serverTool) Name() string           { return s.name }
func (s *serverTool) Description() string    { return s.desc }
func (s *serverTool) Schema() map[string]any { return s.schema }

func (s *serverTool) Call(ctx context.Context, args map[string]any) (map[string]any, error) {
	s.toolset.mu.Lock()
	mcpClient := s.toolset.client
	s.toolset.mu.Unlock()

	if mcpClient == nil {
		return nil, fmt.Errorf("mcp server %q not connected", s.toolset.decl.Name)
	}

	req := mcpproto.CallToolRequest{}
	req.Params.Name = s.name
	req.Params.Arguments = args

	resp, err := mcpClient.CallTool(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("mcp call failed: %w", err)
	}
	return parseToolResult(resp), nil
}

// parseToolResult flattens an MCP tool result into a map. Error results
// surface under "error", text content under "result" or "results".
func parseToolResult(resp *mcpproto.CallToolResult) map[string]any {
	result := make(map[string]any)

	var texts []string
	for _, content := range resp.Content {
		if textContent, ok := content.(mcpproto.TextContent); ok {
			texts = append(texts, textContent.Text)
		}
	}

	if resp.IsError {
		if len(texts) > 0 {
			result["error"] = texts[0]
		} else {
			result["error"] = "unknown error"
		}
		return result
	}

	switch len(texts) {
	case 0:
	case 1:
		result["result"] = texts[0]
	default:
		result["results"] = texts
	}
	return result
}

// convertEnv converts a variables map to "KEY=VALUE" form for the
// subprocess environment.
func convertEnv(env map[string]string) []string {
	if env == nil {
		return nil
	}
	result := make([]string, 0, len(env))
	for k, v := range env {
		result = append(result, fmt.Sprintf("%s=%s", k, v))
	}
	return result
}

// convertSchema converts an MCP input schema to a plain map.
func convertSchema(schema mcpproto.ToolInputSchema) map[string]any {
	data, err := json.Marshal(schema)
	if err != nil {
		return nil
	}
	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil
	}
	return result
}
