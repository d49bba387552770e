package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ipartes/quote-cli/internal/config"
)

var draftCmd = &cobra.Command{
	Use:   "draft [product line...]",
	Short: "Draft a quotation request email",
	Long: `Drafts an English quotation request email for the given products. Each
argument is one product line; with no arguments the text is read from stdin.

Examples:
  quote-cli draft "Cisco WS-C2960X-48FPD-L Catalyst switch"
  cat products.txt | quote-cli draft`,
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := readInput(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}

		env, err := initApp(cmd.Context(), config.ModeDraft)
		if err != nil {
			return err
		}
		defer env.Close()

		email, err := env.Drafter.Draft(cmd.Context(), input)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), email)
		return err
	},
}

func init() {
	rootCmd.AddCommand(draftCmd)
}
