package main

import (
	"fmt"
	"os"

	"github.com/aura-assistant/aura/internal"
	"github.com/spf13/cobra"
)

func NewModelCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Manage the local embedding model",
	}

	cmd.AddCommand(newModelDownloadCmd(a))
	return cmd
}

func newModelDownloadCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download the embedding model",
		Long:  `Fetch the GGUF embedding model into the data directory. This is the only command that needs network access.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			url, _ := cmd.Flags().GetString("url")

			dl := internal.NewDownloader(a.data.ModelsPath(), os.Getenv("HF_TOKEN"))

			lastPct := -1
			path, err := dl.EnsureModel(cmd.Context(), url, a.cfg.Embeddings.Model,
				func(written, total int64) {
					if total <= 0 {
						return
					}
					pct := int(written * 100 / total)
					if pct != lastPct && pct%10 == 0 {
						lastPct = pct
						fmt.Fprintf(cmd.OutOrStdout(), "%d%%\n", pct)
					}
				})
			if err != nil {
				return fmt.Errorf("download model: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Model ready at %s\n", path)
			return nil
		},
	}

	cmd.Flags().String("url", internal.DefaultModelURL, "Model URL")
	return cmd
}
