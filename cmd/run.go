package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one pipeline cycle",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		d, err := openStore()
		if err != nil {
			return err
		}
		defer d.Close() //nolint:errcheck

		sum, err := newPipeline(d).Run(ctx)
		if err != nil {
			zap.L().Error("run failed", zap.Error(err))
			return err
		}

		cmd.Printf("extracted %d, duplicates %d, coded %d, uploaded %d\n",
			sum.Extracted, sum.Duplicates, sum.Coded, sum.Uploaded)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
