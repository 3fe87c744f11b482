package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aura-assistant/aura/internal"
	"github.com/spf13/cobra"
)

func NewAskCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a one-shot question",
		Long:  `Ask a question through the retrieve-and-generate path. The answer streams to stdout and the exchange is stored as memory.`,
		Args:  cobra.MinimumNArgs(1),
		RunE:  makeAskRunner(a),
	}

	cmd.Flags().Bool("no-memory", false, "Skip retrieval and do not store the exchange")
	return cmd
}

func makeAskRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		noMemory, _ := cmd.Flags().GetBool("no-memory")
		asJSON, _ := cmd.Flags().GetBool("json")

		ctx := cmd.Context()
		query := strings.Join(args, " ")

		store := a.openStore(ctx)
		knowledge := a.knowledgeIndex(ctx)

		var storeForWrite *internal.MemoryStore
		if !noMemory {
			storeForWrite = store
		}

		uc := internal.NewAskUseCase(
			a.retriever(store, knowledge),
			a.pipeline(ctx),
			storeForWrite,
			a.embedder(),
			a.cfg.Knowledge.TopK,
		)

		onToken := func(token string) {
			if !asJSON {
				fmt.Fprint(cmd.OutOrStdout(), token)
			}
		}

		out, err := uc.Execute(ctx, internal.AskInput{Query: query, NoMemory: noMemory}, onToken)
		if err != nil && out == nil {
			return fmt.Errorf("ask: %w", err)
		}

		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"answer":   out.Answer,
				"tokens":   out.Tokens,
				"fallback": out.Fallback,
				"context":  out.Context,
			})
		}

		if out.Fallback {
			fmt.Fprint(cmd.OutOrStdout(), out.Answer)
		}
		fmt.Fprintln(cmd.OutOrStdout())
		return nil
	}
}
