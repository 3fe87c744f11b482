package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aura-assistant/aura/internal"
	"github.com/spf13/cobra"
)

func NewMemoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Inspect and manage stored memory",
		Long:  `List, search, and prune the assistant's conversation memory, and inspect its journal history.`,
	}

	cmd.AddCommand(
		newMemoryListCmd(a),
		newMemorySearchCmd(a),
		newMemoryPruneCmd(a),
		newMemoryHistoryCmd(a),
		newMemoryDiffCmd(a),
	)

	return cmd
}

func newMemoryListCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored records",
		RunE: func(cmd *cobra.Command, _ []string) error {
			kind, _ := cmd.Flags().GetString("kind")
			asJSON, _ := cmd.Flags().GetBool("json")

			uc := internal.NewListRecordsUseCase(a.openStore(cmd.Context()))
			out, err := uc.Execute(cmd.Context(), internal.ListRecordsInput{Kind: kind})
			if err != nil {
				return fmt.Errorf("list memory: %w", err)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out.Records)
			}

			if len(out.Records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No memory stored.")
				return nil
			}

			for _, rec := range out.Records {
				fmt.Fprintf(cmd.OutOrStdout(), "%4d %s [%s] %s -> %s\n",
					rec.ID, rec.Timestamp.Format("2006-01-02 15:04"), rec.Kind, rec.Input, rec.Output)
			}
			return nil
		},
	}

	cmd.Flags().String("kind", "", "Filter by kind (conversation|detection)")
	return cmd
}

func newMemorySearchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search memory by similarity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			kind, _ := cmd.Flags().GetString("kind")
			asJSON, _ := cmd.Flags().GetBool("json")

			store := a.openStore(cmd.Context())
			uc := internal.NewSearchMemoryUseCase(a.retriever(store, nil))

			out, err := uc.Execute(cmd.Context(), internal.SearchMemoryInput{
				Query: args[0], Limit: limit, Kind: kind,
			})
			if err != nil {
				return fmt.Errorf("search memory: %w", err)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out.Results)
			}

			if len(out.Results) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No matches.")
				return nil
			}

			for _, r := range out.Results {
				fmt.Fprintf(cmd.OutOrStdout(), "%.3f %4d %s -> %s\n", r.Score, r.ID, r.Input, r.Output)
			}
			return nil
		},
	}

	cmd.Flags().IntP("limit", "n", 0, "Limit number of results")
	cmd.Flags().String("kind", "", "Filter by kind (conversation|detection)")
	return cmd
}

func newMemoryPruneCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Evict oldest records down to a capacity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			capacity, _ := cmd.Flags().GetInt("capacity")

			uc := internal.NewPruneUseCase(a.openStore(cmd.Context()))
			out, err := uc.Execute(cmd.Context(), internal.PruneInput{Capacity: capacity})
			if err != nil {
				return fmt.Errorf("prune memory: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Evicted %d records, %d remaining\n", out.Evicted, out.Remaining)
			return nil
		},
	}

	cmd.Flags().Int("capacity", 0, "Target capacity (default: configured capacity)")
	return cmd
}

func newMemoryHistoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the memory journal history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("number")
			asJSON, _ := cmd.Flags().GetBool("json")

			journal, err := internal.OpenJournal(a.data.JournalPath())
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}

			uc := internal.NewHistoryUseCase(journal)
			out, err := uc.Execute(cmd.Context(), internal.HistoryInput{Limit: limit})
			if err != nil {
				return fmt.Errorf("journal history: %w", err)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out.Entries)
			}

			for _, e := range out.Entries {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", e.Hash[:7], strings.TrimSpace(e.Message))
			}
			return nil
		},
	}

	cmd.Flags().IntP("number", "n", 10, "Limit number of entries")
	return cmd
}

func newMemoryDiffCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "diff [ref]",
		Short: "Diff the memory snapshot against an earlier point",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := ""
			if len(args) > 0 {
				ref = args[0]
			}

			journal, err := internal.OpenJournal(a.data.JournalPath())
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}

			uc := internal.NewDiffUseCase(journal)
			out, err := uc.Execute(cmd.Context(), internal.DiffInput{Ref: ref})
			if err != nil {
				return fmt.Errorf("memory diff: %w", err)
			}

			fmt.Fprint(cmd.OutOrStdout(), out.Diff)
			return nil
		},
	}
}
