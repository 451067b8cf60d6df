package cli

import (
	"fmt"

	"research-agent-be/internal/dto"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List tool providers and the tools they expose",
		RunE:  runTools,
	}

	RootCmd.AddCommand(cmd)
}

func runTools(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	c, err := openContainer(ctx)
	if err != nil {
		return err
	}

	res := dto.ToolsResponse{
		Providers: c.Registry.Providers(),
		Tools:     c.Registry.ListTools(ctx),
	}
	if isJSON() {
		return writeJSON(cmd.OutOrStdout(), res)
	}

	out := cmd.OutOrStdout()
	for _, p := range res.Providers {
		if p.Enabled {
			okColor.Fprintf(out, "✓ %s", p.Name)
		} else {
			warnColor.Fprintf(out, "✗ %s (missing credentials)", p.Name)
		}
		dimColor.Fprintf(out, "  %s\n", p.URL)
	}
	fmt.Fprintln(out)

	if len(res.Tools) == 0 {
		dimColor.Fprintln(out, "No tools available.")
		return nil
	}
	for _, t := range res.Tools {
		fmt.Fprintf(out, "%s\n", t.Name)
		dimColor.Fprintf(out, "    %s\n", t.Description)
	}
	return nil
}
