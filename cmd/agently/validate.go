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
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/onwardplatforms/agently/pkg/config"
	"github.com/onwardplatforms/agently/pkg/config/provider"
	"gopkg.in/yaml.v3"
)

// ValidateCmd validates the agent configuration file.
type ValidateCmd struct {
	// Format specifies the output format.
	Format string `short:"f" help:"Output format: compact, verbose, json." default:"compact" enum:"compact,verbose,json"`

	// Strict treats warnings (e.g. unresolved env references) as failures.
	Strict bool `help:"Fail on warnings."`

	// PrintConfig prints the resolved configuration.
	PrintConfig bool `short:"p" name:"print-config" help:"Print the resolved configuration (defaults applied, env references substituted)."`

	// Watch keeps validating as the file changes.
	Watch bool `short:"w" help:"Re-validate whenever the configuration file changes (Ctrl-C to stop)."`
}

// Run executes the validate command.
func (c *ValidateCmd) Run(cli *CLI) error {
	ctx := context.Background()

	_ = config.LoadDotEnvForConfig(cli.Agent)

	prov, err := provider.NewFileProvider(cli.Agent)
	if err != nil {
		return err
	}
	loader := config.NewLoader(prov)
	defer loader.Close()

	cfg, err := loader.Load(ctx)
	result := c.report(cli.Agent, cfg, err)
	if !c.Watch {
		return result
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fmt.Fprintf(os.Stderr, "Watching %s for changes...\n", cli.Agent)
	err = watchConfig(ctx, loader, func(cfg *config.Config, err error) {
		_ = c.report(cli.Agent, cfg, err)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// report prints one validation result and returns the command error for it.
func (c *ValidateCmd) report(file string, cfg *config.Config, err error) error {
	if err != nil {
		return printValidationFailure(c.Format, file, err)
	}
	if c.Strict && len(cfg.Warnings) > 0 {
		return printStrictWarnings(c.Format, file, cfg.Warnings)
	}
	if c.PrintConfig {
		return printResolvedConfig(c.Format, file, cfg)
	}
	printSuccess(c.Format, file, cfg.Warnings)
	return nil
}

// watchConfig re-runs the load pipeline on every change signal, reporting
// each outcome through onReload, until ctx is cancelled.
func watchConfig(ctx context.Context, loader *config.Loader, onReload func(*config.Config, error)) error {
	changes, err := loader.Provider().Watch(ctx)
	if err != nil {
		return fmt.Errorf("failed to start watching: %w", err)
	}
	if changes == nil {
		<-ctx.Done()
		return ctx.Err()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			cfg, err := loader.Load(ctx)
			onReload(cfg, err)
		}
	}
}

// issue is one reportable validation finding.
type issue struct {
	Type    string `json:"type"`
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

// issuesFromError flattens the resolver's error kinds into a report. Batched
// schema violations stay one issue per offending field.
func issuesFromError(err error) []issue {
	var verrs config.ValidationErrors
	if errors.As(err, &verrs) {
		issues := make([]issue, len(verrs))
		for i, ve := range verrs {
			issues[i] = issue{Type: "schema", Path: ve.Path, Message: ve.Message}
		}
		return issues
	}

	var dup *config.DuplicateIDError
	if errors.As(err, &dup) {
		return []issue{{Type: "duplicate_id", Path: dup.Paths[len(dup.Paths)-1], Message: dup.Error()}}
	}

	var pe *config.ParseError
	if errors.As(err, &pe) {
		return []issue{{Type: "parse", Message: pe.Error()}}
	}

	return []issue{{Type: "load", Message: err.Error()}}
}

func printValidationFailure(format, file string, err error) error {
	issues := issuesFromError(err)

	switch format {
	case "json":
		printJSONResult(false, file, issues, nil)
	case "verbose":
		fmt.Fprintf(os.Stderr, "Configuration Validation Failed\n")
		fmt.Fprintf(os.Stderr, "===============================\n\n")
		fmt.Fprintf(os.Stderr, "File:   %s\n", file)
		fmt.Fprintf(os.Stderr, "Errors: %d\n\n", len(issues))
		for _, is := range issues {
			if is.Path != "" {
				fmt.Fprintf(os.Stderr, "  [%s] %s: %s\n", is.Type, is.Path, is.Message)
			} else {
				fmt.Fprintf(os.Stderr, "  [%s] %s\n", is.Type, is.Message)
			}
		}
	default: // compact
		for _, is := range issues {
			if is.Path != "" {
				fmt.Fprintf(os.Stderr, "%s: %s: %s\n", file, is.Path, is.Message)
			} else {
				fmt.Fprintf(os.Stderr, "%s: %s\n", file, is.Message)
			}
		}
	}
	return fmt.Errorf("config validation failed")
}

func printStrictWarnings(format, file string, warnings []config.Warning) error {
	issues := make([]issue, len(warnings))
	for i, w := range warnings {
		issues[i] = issue{Type: "warning", Path: w.Path, Message: w.Message}
	}

	switch format {
	case "json":
		printJSONResult(false, file, issues, nil)
	default:
		for _, w := range warnings {
			fmt.Fprintf(os.Stderr, "%s: warning: %s\n", file, w.String())
		}
	}
	return fmt.Errorf("config has %d warning(s) (strict mode)", len(warnings))
}

func printSuccess(format, file string, warnings []config.Warning) {
	switch format {
	case "json":
		printJSONResult(true, file, nil, warnings)
	case "verbose":
		fmt.Fprintf(os.Stdout, "Configuration Validation Successful\n")
		fmt.Fprintf(os.Stdout, "===================================\n\n")
		fmt.Fprintf(os.Stdout, "File:   %s\n", file)
		fmt.Fprintf(os.Stdout, "Status: valid\n")
		for _, w := range warnings {
			fmt.Fprintf(os.Stdout, "Warning: %s\n", w.String())
		}
	default: // compact
		fmt.Fprintf(os.Stdout, "%s: valid\n", file)
		for _, w := range warnings {
			fmt.Fprintf(os.Stdout, "%s: warning: %s\n", file, w.String())
		}
	}
}

// printResolvedConfig prints the resolved configuration.
func printResolvedConfig(format, file string, cfg *config.Config) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(cfg); err != nil {
			return fmt.Errorf("failed to encode config as JSON: %w", err)
		}
	default:
		fmt.Fprintf(os.Stdout, "# Resolved configuration from: %s\n", file)
		fmt.Fprintf(os.Stdout, "# (defaults applied, env references substituted)\n\n")

		encoder := yaml.NewEncoder(os.Stdout)
		encoder.SetIndent(2)
		if err := encoder.Encode(cfg); err != nil {
			return fmt.Errorf("failed to encode config as YAML: %w", err)
		}
		encoder.Close()
	}
	return nil
}

// jsonOutput is the JSON output structure.
type jsonOutput struct {
	Valid    bool             `json:"valid"`
	File     string           `json:"file"`
	Errors   []issue          `json:"errors,omitempty"`
	Warnings []config.Warning `json:"warnings,omitempty"`
}

func printJSONResult(valid bool, file string, errors []issue, warnings []config.Warning) {
	output := jsonOutput{
		Valid:    valid,
		File:     file,
		Errors:   errors,
		Warnings: warnings,
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(output); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
	}
}
