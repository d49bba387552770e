package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ipartes/quote-cli/internal/config"
)

var cfg *config.Config

var (
	configFile string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "quote-cli",
	Short: "Quotation email drafting and supplier contact discovery",
	Long:  "Drafts English quotation request emails from product lists, finds supplier contact emails with a language model, and manages the supplier directory. The serve command exposes everything over HTTP.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if logLevel != "" {
			c.Log.Level = logLevel
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		zap.L().Debug("config loaded",
			zap.String("command", cmd.Name()),
			zap.String("store_driver", cfg.Store.Driver),
			zap.String("llm_provider", cfg.LLM.Provider),
		)

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default ./config.yaml when present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level (debug, info, warn, error)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
