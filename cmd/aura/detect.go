package main

import (
	"encoding/json"
	"fmt"

	"github.com/aura-assistant/aura/internal"
	"github.com/spf13/cobra"
)

func NewDetectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "detect [label]...",
		Short: "Explain detected objects",
		Long:  `Run the object-explanation path. Labels given as arguments stand in for camera detections; with none, the configured detector is asked.`,
		RunE:  makeDetectRunner(a),
	}
}

func makeDetectRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		ctx := cmd.Context()

		store := a.openStore(ctx)

		uc := internal.NewDetectUseCase(
			internal.StaticDetector{},
			a.pipeline(ctx),
			store,
			a.embedder(),
			a.cfg.Speech.NoObjectText,
		)

		streamed := false
		onToken := func(token string) {
			if !asJSON {
				streamed = true
				fmt.Fprint(cmd.OutOrStdout(), token)
			}
		}

		out, err := uc.Execute(ctx, internal.DetectInput{Labels: args}, onToken)
		if err != nil && out == nil {
			return fmt.Errorf("detect: %w", err)
		}

		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}

		if !streamed {
			fmt.Fprint(cmd.OutOrStdout(), out.Answer)
		}
		fmt.Fprintln(cmd.OutOrStdout())
		return nil
	}
}
