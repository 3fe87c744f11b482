package main

import (
	"github.com/spf13/cobra"
)

func NewRootCmd(version string, a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "aura",
		Short:         "Offline voice assistant with persistent memory",
		Long:          `An offline-first assistant: local embeddings, git-backed conversation memory, and a knowledge base for retrieval-augmented answers.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	rootCmd.PersistentFlags().Bool("json", false, "Output in JSON format")

	if a != nil {
		rootCmd.AddCommand(
			NewRunCmd(a),
			NewAskCmd(a),
			NewDetectCmd(a),
			NewMemoryCmd(a),
			NewIndexCmd(a),
			NewProviderCmd(a),
			NewModelCmd(a),
		)
	}

	return rootCmd
}
