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

// Command agently runs declaratively configured AI agents.
//
// Usage:
//
//	agently validate
//	agently init --agent agently.yaml
//	agently run
//	agently list agents
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/onwardplatforms/agently"
	"github.com/onwardplatforms/agently/pkg/config"
)

// CLI defines the command-line interface.
type CLI struct {
	Version  VersionCmd  `cmd:"" help:"Show version information."`
	Validate ValidateCmd `cmd:"" help:"Validate the agent configuration file."`
	Init     InitCmd     `cmd:"" help:"Resolve plugins and write the lockfile."`
	Run      RunCmd      `cmd:"" help:"Run an agent interactively."`
	List     ListCmd     `cmd:"" help:"List configured resources."`
	Schema   SchemaCmd   `cmd:"" help:"Generate JSON Schema for the configuration format."`

	Agent     string `short:"a" help:"Path to the agent configuration file." default:"agently.yaml" type:"path"`
	LogLevel  string `help:"Log level (debug, info, warn, error)." default:"info"`
	LogFile   string `help:"Log file path (empty = stderr)."`
	LogFormat string `help:"Log format (simple, verbose)." default:"simple"`
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Println(agently.GetVersion())
	return nil
}

func main() {
	_ = config.LoadDotEnv()

	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("agently"),
		kong.Description("Agently - declarative AI agents from a single YAML file"),
		kong.UsageOnError(),
	)

	_, _, _, cleanup, err := initLoggerFromCLI(cli.LogLevel, cli.LogFile, cli.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	if cleanup != nil {
		defer cleanup()
	}

	err = ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
