package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Embed the docs directory into the vector store",
		Long:  "Split every .md and .txt file under the docs directory into chunks, embed them and upsert them as document chunks.",
		RunE:  runIndex,
	}

	cmd.Flags().String("dir", "", "Docs directory (default: $RAG_DOCS_DIR)")
	cmd.Flags().Bool("reset", false, "Delete existing document chunks first")

	RootCmd.AddCommand(cmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	c, err := openContainer(ctx)
	if err != nil {
		return err
	}

	dir, _ := cmd.Flags().GetString("dir")
	if dir == "" {
		dir = c.Config.RAG.DocsDir
	}

	if reset, _ := cmd.Flags().GetBool("reset"); reset {
		removed, err := c.Indexer.Reset(ctx)
		if err != nil {
			return fmt.Errorf("reset index: %w", err)
		}
		if !isJSON() {
			warnColor.Fprintf(cmd.OutOrStdout(), "Removed %d existing chunks\n", removed)
		}
	}

	report, err := c.Indexer.IndexDir(ctx, dir)
	if err != nil {
		return fmt.Errorf("index %s: %w", dir, err)
	}

	if isJSON() {
		return writeJSON(cmd.OutOrStdout(), report)
	}
	okColor.Fprintf(cmd.OutOrStdout(), "Indexed %d documents into %d chunks", report.Documents, report.Chunks)
	dimColor.Fprintf(cmd.OutOrStdout(), " (%s, backend %s)\n", dir, c.Config.Vector.Backend)
	return nil
}
