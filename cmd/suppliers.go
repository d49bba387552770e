package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ipartes/quote-cli/internal/config"
	"github.com/ipartes/quote-cli/internal/directory"
	"github.com/ipartes/quote-cli/internal/model"
)

var suppliersCmd = &cobra.Command{
	Use:   "suppliers",
	Short: "Manage the supplier directory",
	Long:  "Commands for listing suppliers and adding or removing their contact emails.",
}

// withDirectory opens the configured store and runs fn against the directory.
func withDirectory(ctx context.Context, fn func(d *directory.Service) error) error {
	env, err := initApp(ctx, config.ModeDirectory)
	if err != nil {
		return err
	}
	defer env.Close()
	return fn(env.Directory)
}

// -- suppliers list --

var suppliersListOutput string

var suppliersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List suppliers",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDirectory(cmd.Context(), func(d *directory.Service) error {
			list, err := d.List(cmd.Context())
			if err != nil {
				return err
			}

			if suppliersListOutput != outputTable {
				return writeStructured(cmd.OutOrStdout(), suppliersListOutput, list)
			}
			if len(list) == 0 {
				fmt.Fprintln(os.Stderr, "No suppliers registered.")
				return nil
			}
			formatSuppliersList(cmd.OutOrStdout(), list)
			return nil
		})
	},
}

// -- suppliers add --

var (
	suppliersAddManufacturer string
	suppliersAddEmail        string
)

var suppliersAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register an email for a manufacturer",
	Long:  "Adds the email to the supplier whose manufacturer matches case-insensitively, creating the supplier when none does.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDirectory(cmd.Context(), func(d *directory.Service) error {
			sup, created, err := d.AddSupplier(cmd.Context(), suppliersAddManufacturer, suppliersAddEmail)
			if err != nil {
				return err
			}
			verb := "Updated"
			if created {
				verb = "Created"
			}
			return printSupplier(cmd, verb, sup)
		})
	},
}

// -- suppliers add-email --

var suppliersAddEmailCmd = &cobra.Command{
	Use:   "add-email <supplier-id> <email>",
	Short: "Add an email to a supplier",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDirectory(cmd.Context(), func(d *directory.Service) error {
			sup, err := d.AddEmail(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printSupplier(cmd, "Updated", sup)
		})
	},
}

// -- suppliers remove-email --

var suppliersRemoveEmailCmd = &cobra.Command{
	Use:   "remove-email <supplier-id> <email>",
	Short: "Remove an email from a supplier",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDirectory(cmd.Context(), func(d *directory.Service) error {
			sup, err := d.RemoveEmail(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printSupplier(cmd, "Updated", sup)
		})
	},
}

// -- suppliers delete --

var suppliersDeleteCmd = &cobra.Command{
	Use:   "delete <supplier-id>",
	Short: "Delete a supplier",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDirectory(cmd.Context(), func(d *directory.Service) error {
			if err := d.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Deleted supplier %s\n", args[0])
			return err
		})
	},
}

func printSupplier(cmd *cobra.Command, verb string, sup *model.Supplier) error {
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s supplier %s (%s): %d email(s)\n",
		verb, sup.ID, sup.Manufacturer, len(sup.Emails))
	return err
}

func init() {
	suppliersListCmd.Flags().StringVarP(&suppliersListOutput, "output", "o", outputTable, "output format: table, json or yaml")

	suppliersAddCmd.Flags().StringVar(&suppliersAddManufacturer, "manufacturer", "", "manufacturer name (required)")
	suppliersAddCmd.Flags().StringVar(&suppliersAddEmail, "email", "", "contact email (required)")
	_ = suppliersAddCmd.MarkFlagRequired("manufacturer")
	_ = suppliersAddCmd.MarkFlagRequired("email")

	suppliersCmd.AddCommand(suppliersListCmd, suppliersAddCmd, suppliersAddEmailCmd, suppliersRemoveEmailCmd, suppliersDeleteCmd)
	rootCmd.AddCommand(suppliersCmd)
}
