package main

import (
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and change settings stored in the transfer database",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show stored configuration (passwords redacted)",
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
		dhisCfg, _, err := d.DHISConfig(ctx, pipeCfg.Algorithm)
		if err != nil {
			return err
		}

		cmd.Printf("Pipeline_Conf.algorithm             %s\n", pipeCfg.Algorithm)
		cmd.Printf("Pipeline_Conf.codSource             %s\n", pipeCfg.CODSource)
		cmd.Printf("Pipeline_Conf.algorithmMetadataCode %s\n", pipeCfg.AlgorithmMetadataCode)
		cmd.Printf("Pipeline_Conf.workingDirectory      %s\n", pipeCfg.WorkingDirectory)
		cmd.Printf("ODK_Conf.odkURL                     %s\n", odkCfg.URL)
		cmd.Printf("ODK_Conf.odkUser                    %s\n", odkCfg.User)
		cmd.Printf("ODK_Conf.odkPassword                [redacted]\n")
		cmd.Printf("ODK_Conf.odkFormID                  %s\n", odkCfg.FormID)
		cmd.Printf("ODK_Conf.odkProjectNumber           %s\n", odkCfg.ProjectNumber)
		cmd.Printf("DHIS_Conf.dhisURL                   %s\n", dhisCfg.URL)
		cmd.Printf("DHIS_Conf.dhisUser                  %s\n", dhisCfg.User)
		cmd.Printf("DHIS_Conf.dhisPassword              [redacted]\n")
		cmd.Printf("DHIS_Conf.dhisOrgUnit               %s\n", dhisCfg.OrgUnit)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <table> <column> <value>",
	Short: "Set one configuration value",
	Long:  "Sets one column on a configuration table, e.g. `vapipe config set ODK_Conf odkURL https://central.example.org`. Passwords are encrypted before they are stored.",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openStore()
		if err != nil {
			return err
		}
		defer d.Close() //nolint:errcheck

		if err := d.SetConfigValue(cmd.Context(), args[0], args[1], args[2]); err != nil {
			return err
		}
		cmd.Printf("%s.%s updated\n", args[0], args[1])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}
