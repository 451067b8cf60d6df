// Package cli implements the agentctl administration commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"research-agent-be/internal/bootstrap"
	"research-agent-be/internal/config"
	"research-agent-be/internal/pkg/logger"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	formatFlag  string
	verboseFlag bool
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:           "agentctl",
	Short:         "Administer the research agent",
	Long:          "Build the document index, inspect tool providers, manage session memory and follow agent events.",
	SilenceUsage: true,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if appContainer != nil {
			_ = appContainer.Close()
		}
	},
}

var appContainer *bootstrap.Container

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	warnColor = color.New(color.FgYellow)
	dimColor  = color.New(color.Faint)
)

func init() {
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "text", "Output format: json or text")
	RootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Log to the console")
}

// openContainer builds the same dependency graph the API server uses.
func openContainer(ctx context.Context) (*bootstrap.Container, error) {
	if appContainer != nil {
		return appContainer, nil
	}
	cfg := config.Load()

	var log logger.ILogger = logger.NewNopLogger()
	if verboseFlag {
		log = logger.NewConsoleLogger(true)
	}

	c, err := bootstrap.NewContainer(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	appContainer = c
	return c, nil
}

func isJSON() bool {
	return formatFlag == "json"
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
