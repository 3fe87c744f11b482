package main

import (
	"fmt"

	"github.com/aura-assistant/aura/internal"
	"github.com/spf13/cobra"
)

func NewProviderCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "provider",
		Short: "Manage LLM providers",
		Long:  `List, add, remove, and test the language-model providers used for generation.`,
	}

	cmd.AddCommand(
		newProviderListCmd(a),
		newProviderAddCmd(a),
		newProviderRemoveCmd(a),
		newProviderDefaultCmd(a),
		newProviderTestCmd(a),
	)

	return cmd
}

func newProviderListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured providers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			names, def, err := internal.NewProviderListUseCase(a.data).Execute()
			if err != nil {
				return fmt.Errorf("list providers: %w", err)
			}

			if len(names) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No providers configured.")
				return nil
			}

			for _, name := range names {
				marker := " "
				if name == def {
					marker = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, name)
			}
			return nil
		},
	}
}

func newProviderAddCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			apiKey, _ := cmd.Flags().GetString("api-key")
			baseURL, _ := cmd.Flags().GetString("base-url")
			model, _ := cmd.Flags().GetString("model")

			err := internal.NewProviderAddUseCase(a.data).Execute(internal.ProviderInput{
				Name: args[0],
				Config: internal.ProviderConfig{
					APIKey:  apiKey,
					BaseURL: baseURL,
					Model:   model,
				},
			})
			if err != nil {
				return fmt.Errorf("add provider: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Added provider %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().String("api-key", "", "API key")
	cmd.Flags().String("base-url", "", "Base URL")
	cmd.Flags().String("model", "", "Model name")
	return cmd
}

func newProviderRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := internal.NewProviderRemoveUseCase(a.data).Execute(internal.ProviderInput{Name: args[0]}); err != nil {
				return fmt.Errorf("remove provider: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed provider %s\n", args[0])
			return nil
		},
	}
}

func newProviderDefaultCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "default <name>",
		Short: "Set the default provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := internal.NewProviderSetDefaultUseCase(a.data).Execute(internal.ProviderInput{Name: args[0]}); err != nil {
				return fmt.Errorf("set default: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Default provider set to %s\n", args[0])
			return nil
		},
	}
}

func newProviderTestCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "test <name>",
		Short: "Test provider connectivity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := internal.NewProviderTestUseCase(a.data).Execute(cmd.Context(), internal.ProviderInput{Name: args[0]}); err != nil {
				return fmt.Errorf("test provider: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Provider %s is working\n", args[0])
			return nil
		},
	}
}
