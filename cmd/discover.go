package main

import (
	"github.com/spf13/cobra"

	"github.com/ipartes/quote-cli/internal/config"
	"github.com/ipartes/quote-cli/internal/discovery"
)

var discoverOutput string

var discoverCmd = &cobra.Command{
	Use:   "discover [product line...]",
	Short: "Find supplier contact emails for products",
	Long: `Asks the language model for supplier contact emails for each product and
merges them with the emails already in the supplier directory. Prints the
same shape the HTTP API returns.

Examples:
  quote-cli discover "Dell PowerEdge R740 server" "HPE ProLiant DL380 Gen10"
  quote-cli discover --output yaml < products.txt`,
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := readInput(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}

		env, err := initApp(cmd.Context(), config.ModeDiscover)
		if err != nil {
			return err
		}
		defer env.Close()

		results, err := env.Discovery.Discover(cmd.Context(), input)
		if err != nil {
			return err
		}
		return writeStructured(cmd.OutOrStdout(), discoverOutput, discovery.Envelope(results))
	},
}

func init() {
	discoverCmd.Flags().StringVarP(&discoverOutput, "output", "o", outputJSON, "output format: json or yaml")
	rootCmd.AddCommand(discoverCmd)
}
