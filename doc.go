// Package agently defines declarative AI agents in YAML.
//
// Agently turns an agently.yaml document into a validated agent
// configuration: model selection, plugins, and MCP servers, with
// ${{ env.NAME }} interpolation from the process environment.
//
// # Quick Start
//
// Install the CLI:
//
//	go install github.com/onwardplatforms/agently/cmd/agently@latest
//
// Create an agent configuration:
//
//	version: "1"
//	name: assistant
//	system_prompt: "You are a helpful assistant."
//	model:
//	  provider: openai
//	  model: gpt-4o
//
// Validate and initialize it:
//
//	agently validate
//	agently init
//
// # Using as Go Library
//
// Import the configuration layer directly:
//
//	import (
//	    "github.com/onwardplatforms/agently/pkg/config"
//	    "github.com/onwardplatforms/agently/pkg/plugins"
//	)
//
// # Key Features
//
//   - Declarative YAML or JSON agent definitions, single or multi-agent
//   - Batched validation with JSON-pointer error paths
//   - Plugins from local paths or GitHub, pinned in a lockfile
//   - MCP servers launched as subprocesses over stdio
//
// # Documentation
//
// For complete documentation, see:
//   - [README](https://github.com/onwardplatforms/agently/blob/main/README.md)
//   - [API Reference](https://godoc.org/github.com/onwardplatforms/agently)
package agently
