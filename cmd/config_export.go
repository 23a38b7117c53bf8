package main

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// exportSnapshot is the YAML shape written by `config export`. Passwords
// never leave the store.
type exportSnapshot struct {
	Pipeline struct {
		Algorithm             string `yaml:"algorithm"`
		CODSource             string `yaml:"cod_source"`
		AlgorithmMetadataCode string `yaml:"algorithm_metadata_code"`
		WorkingDirectory      string `yaml:"working_directory"`
	} `yaml:"pipeline"`
	ODK struct {
		URL           string `yaml:"url"`
		User          string `yaml:"user"`
		FormID        string `yaml:"form_id"`
		ProjectNumber string `yaml:"project_number"`
		UseCentral    bool   `yaml:"use_central"`
	} `yaml:"odk"`
	DHIS struct {
		URL     string `yaml:"url"`
		User    string `yaml:"user"`
		OrgUnit string `yaml:"org_unit"`
	} `yaml:"dhis"`
}

var configExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored configuration as YAML (passwords omitted)",
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

		var snap exportSnapshot
		snap.Pipeline.Algorithm = string(pipeCfg.Algorithm)
		snap.Pipeline.CODSource = string(pipeCfg.CODSource)
		snap.Pipeline.AlgorithmMetadataCode = pipeCfg.AlgorithmMetadataCode
		snap.Pipeline.WorkingDirectory = pipeCfg.WorkingDirectory
		snap.ODK.URL = odkCfg.URL
		snap.ODK.User = odkCfg.User
		snap.ODK.FormID = odkCfg.FormID
		snap.ODK.ProjectNumber = odkCfg.ProjectNumber
		snap.ODK.UseCentral = odkCfg.UseCentral
		snap.DHIS.URL = dhisCfg.URL
		snap.DHIS.User = dhisCfg.User
		snap.DHIS.OrgUnit = dhisCfg.OrgUnit

		out, err := yaml.Marshal(snap)
		if err != nil {
			return err
		}
		cmd.Print(string(out))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configExportCmd)
}
