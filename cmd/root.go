package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/openva-pipeline/vapipe/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "vapipe",
	Short: "Verbal autopsy data pipeline",
	Long:  "Pulls verbal-autopsy submissions from ODK Central, assigns causes of death with openVA algorithms, stores results in an encrypted transfer database, and delivers events to DHIS2.",
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
