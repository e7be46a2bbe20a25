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
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/onwardplatforms/agently/pkg/config"
)

// ListCmd groups listing subcommands.
type ListCmd struct {
	Agents ListAgentsCmd `cmd:"" help:"List agents defined in the configuration file."`
}

// ListAgentsCmd lists the agents in the configuration file.
type ListAgentsCmd struct{}

// Run executes the list agents command.
func (c *ListAgentsCmd) Run(cli *CLI) error {
	ctx := context.Background()

	_ = config.LoadDotEnvForConfig(cli.Agent)

	cfg, loader, err := config.LoadConfigFile(ctx, cli.Agent)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	defer loader.Close()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tMODEL\tPLUGINS\tMCP SERVERS")
	for _, agent := range cfg.Agents {
		fmt.Fprintf(w, "%s\t%s\t%s/%s\t%d\t%d\n",
			agent.ID,
			agent.Name,
			agent.Model.Provider,
			agent.Model.Model,
			len(agent.Plugins),
			len(agent.MCPServers),
		)
	}
	return w.Flush()
}
