package main

import (
	"github.com/spf13/cobra"

	"github.com/openva-pipeline/vapipe/internal/model"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show run state and pending deliveries",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openStore()
		if err != nil {
			return err
		}
		defer d.Close() //nolint:errcheck

		ctx := cmd.Context()
		pipeCfg, err := d.PipelineConfig(ctx)
		if err != nil {
			return err
		}
		odkCfg, err := d.ODKConfig(ctx)
		if err != nil {
			return err
		}
		pending, err := d.ListUnuploaded(ctx)
		if err != nil {
			return err
		}

		window := model.Window(odkCfg)
		cmd.Printf("algorithm:        %s\n", pipeCfg.Algorithm)
		cmd.Printf("last run:         %s (%s)\n", odkCfg.LastRun.Format(model.TimestampLayout), odkCfg.LastRunResult)
		cmd.Printf("next window from: %s (margin %s)\n", window.SinceDate(), window.MarginDate())
		cmd.Printf("pending uploads:  %d\n", len(pending))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
