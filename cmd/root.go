package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/archivelab/docmeta/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "docmeta",
	Short: "LLM metadata extraction for OCR-corrected archive documents",
	Long:  "Analyzes corrected document text, routes each metadata field to the best-suited inference backends, and aggregates multi-model answers into a single record with confidence scores.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
