package main

import (
	"fmt"
	"time"

	"github.com/aura-assistant/aura/internal"
	"github.com/spf13/cobra"
)

func NewIndexCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Manage the knowledge-base index",
	}

	cmd.AddCommand(
		newIndexRebuildCmd(a),
		newIndexWatchCmd(a),
	)

	return cmd
}

func newIndexRebuildCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild",
		Short: "Re-index the knowledge directory",
		Long:  `Chunk and embed every .txt document under the knowledge directory and rebuild the vector index.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			embedder := a.embedder()
			if embedder == nil {
				return fmt.Errorf("embedding model required; run `aura model download` first")
			}

			idx := a.knowledgeIndex(cmd.Context())
			kb := internal.NewKnowledgeBase(a.data.KnowledgePath(), embedder, idx, a.cfg.Knowledge, a.log)

			if err := kb.Reindex(cmd.Context()); err != nil {
				return fmt.Errorf("rebuild index: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d chunks\n", idx.Count())
			return nil
		},
	}
}

func newIndexWatchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the knowledge directory and re-index on change",
		RunE: func(cmd *cobra.Command, _ []string) error {
			debounce, _ := cmd.Flags().GetDuration("debounce")

			embedder := a.embedder()
			if embedder == nil {
				return fmt.Errorf("embedding model required; run `aura model download` first")
			}

			idx := a.knowledgeIndex(cmd.Context())
			kb := internal.NewKnowledgeBase(a.data.KnowledgePath(), embedder, idx, a.cfg.Knowledge, a.log)

			fmt.Fprintf(cmd.OutOrStdout(), "Watching %s for changes...\n", a.data.KnowledgePath())
			return kb.Watch(cmd.Context(), debounce)
		},
	}

	cmd.Flags().Duration("debounce", 500*time.Millisecond, "Debounce window for batching changes")
	return cmd
}
