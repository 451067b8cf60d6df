package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Inspect or clear session memory",
	}

	stats := &cobra.Command{
		Use:   "stats [sessionId]",
		Short: "Show long-term memory statistics for a session",
		Args:  cobra.ExactArgs(1),
		RunE:  runMemoryStats,
	}

	clearCmd := &cobra.Command{
		Use:   "clear [sessionId]",
		Short: "Forget the window and every archived exchange of a session",
		Args:  cobra.ExactArgs(1),
		RunE:  runMemoryClear,
	}

	cmd.AddCommand(stats, clearCmd)
	RootCmd.AddCommand(cmd)
}

func runMemoryStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	c, err := openContainer(ctx)
	if err != nil {
		return err
	}

	stats, err := c.Memory.Stats(ctx, args[0])
	if err != nil {
		return fmt.Errorf("memory stats: %w", err)
	}
	if isJSON() {
		return writeJSON(cmd.OutOrStdout(), stats)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Session:        %s\n", stats.SessionID)
	fmt.Fprintf(out, "Total memories: %d\n", stats.TotalMemories)
	fmt.Fprintf(out, "Window size:    %d\n", stats.WindowSize)
	fmt.Fprintf(out, "Window backend: %s\n", stats.Backend)
	return nil
}

func runMemoryClear(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	c, err := openContainer(ctx)
	if err != nil {
		return err
	}

	deleted, err := c.Memory.Clear(ctx, args[0])
	if err != nil {
		return fmt.Errorf("clear memory: %w", err)
	}
	if isJSON() {
		return writeJSON(cmd.OutOrStdout(), map[string]interface{}{"sessionId": args[0], "deleted": deleted})
	}
	okColor.Fprintf(cmd.OutOrStdout(), "Cleared session %s (%d archived exchanges removed)\n", args[0], deleted)
	return nil
}
