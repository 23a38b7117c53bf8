package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/openva-pipeline/vapipe/internal/store"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create and seed a new encrypted transfer database",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Store.Key == "" {
			return eris.New("store key not set; set store.key or VAPIPE_STORE_KEY")
		}
		d, err := store.Create(cfg.Store.Path, cfg.Store.Key)
		if err != nil {
			return err
		}
		defer d.Close() //nolint:errcheck

		zap.L().Info("transfer database created",
			zap.String("path", cfg.Store.Path),
		)
		cmd.Printf("created %s\n", cfg.Store.Path)
		cmd.Println("defaults are seeded; set credentials with `vapipe config set`")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
