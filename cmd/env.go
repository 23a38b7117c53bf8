package main

import (
	"time"

	"github.com/rotisserie/eris"

	"github.com/openva-pipeline/vapipe/internal/dhis"
	"github.com/openva-pipeline/vapipe/internal/model"
	"github.com/openva-pipeline/vapipe/internal/odk"
	"github.com/openva-pipeline/vapipe/internal/openva"
	"github.com/openva-pipeline/vapipe/internal/pipeline"
	"github.com/openva-pipeline/vapipe/internal/store"
)

// openStore connects to the transfer database named by the process
// configuration. The key comes from config.yaml or VAPIPE_STORE_KEY.
func openStore() (*store.DB, error) {
	if cfg.Store.Key == "" {
		return nil, eris.New("store key not set; set store.key or VAPIPE_STORE_KEY")
	}
	return store.Open(cfg.Store.Path, cfg.Store.Key)
}

// newPipeline wires the orchestrator against a live store.
func newPipeline(d *store.DB) *pipeline.Pipeline {
	timeout := time.Duration(cfg.OpenVA.TimeoutSecs) * time.Second
	runner := openva.NewRunner(cfg.OpenVA.RscriptPath, cfg.OpenVA.SmartVAPath, timeout)

	return pipeline.New(
		d,
		func(odkCfg model.ODKConfig) (pipeline.Extractor, error) {
			if !odkCfg.UseCentral {
				return odk.NewFileExtractor(cfg.ODK.ExportPath), nil
			}
			return odk.NewClient(odkCfg)
		},
		runner,
		func(dhisCfg model.DHISConfig, codes map[string]string) pipeline.Uploader {
			return dhis.NewClient(dhisCfg, codes)
		},
	)
}
