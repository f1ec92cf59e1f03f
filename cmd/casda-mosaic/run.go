// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/askap-tools/casda-mosaic/internal/archive"
	"github.com/askap-tools/casda-mosaic/internal/container"
	"github.com/askap-tools/casda-mosaic/internal/creds"
	"github.com/askap-tools/casda-mosaic/internal/download"
	"github.com/askap-tools/casda-mosaic/internal/ledger"
	"github.com/askap-tools/casda-mosaic/internal/mosaic"
	"github.com/askap-tools/casda-mosaic/internal/pipeline"
	"github.com/askap-tools/casda-mosaic/internal/staging"
	"github.com/askap-tools/casda-mosaic/pkg/log"
	"github.com/askap-tools/casda-mosaic/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full cutout-and-mosaic pipeline",
	Long: `Run resolves the target region, queries the archive for intersecting
observations, stages cutouts server-side, downloads them, and mosaics the
result with linmos. Candidates that fail staging or download are excluded
and reported; the mosaic is built from whatever was retrievable.`,
	RunE: runRun,
}

func init() {
	addRequestFlags(runCmd)

	runCmd.Flags().String("credentials", "casda.ini", "CASDA credentials file (INI, [CASDA] section)")
	runCmd.Flags().String("output", "output", "output directory for the mosaic, weights, and report")
	runCmd.Flags().String("scratch", "scratch", "scratch directory for downloaded cutouts")
	runCmd.Flags().String("filename", "mosaic.fits", "output mosaic filename")
	runCmd.Flags().String("tap-url", "", "override the TAP query URL")
	runCmd.Flags().String("soda-url", "", "override the cutout service URL")
	runCmd.Flags().String("query", "", "override the obscore query string")
	runCmd.Flags().Duration("max-wait", defaultMaxWait, "maximum wait for each staging job")
	runCmd.Flags().Duration("poll-interval", defaultPollInterval, "interval between staging polls")
	runCmd.Flags().Duration("budget", 0, "overall wall-clock budget for the run (0 = unlimited)")
	runCmd.Flags().Int("workers", 0, "concurrent staging polls and downloads")
	runCmd.Flags().Bool("container", false, "run linmos inside a container instead of locally")
	runCmd.Flags().String("image", "docker://csirocass/askapsoft:1.15.0", "linmos container image (or .sif path)")
	runCmd.Flags().String("binary", "linmos", "linmos binary name")
	runCmd.Flags().String("ledger", "", "sqlite run-ledger path (empty disables)")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	verbose, _ := rootCmd.PersistentFlags().GetBool("verbose")
	logger := log.New(verbose)
	defer logger.Sync()

	archiveCfg := archiveConfig(cmd)
	client := &http.Client{Timeout: archiveCfg.Timeout}

	req, err := requestFromFlags(cmd.Context(), cmd, client, archiveCfg.HTTPConfig)
	if err != nil {
		return err
	}

	credFile, _ := cmd.Flags().GetString("credentials")
	credentials, err := creds.Load(credFile)
	if err != nil {
		return err
	}

	scratch, _ := cmd.Flags().GetString("scratch")
	output, _ := cmd.Flags().GetString("output")
	filename, _ := cmd.Flags().GetString("filename")
	maxWait, _ := cmd.Flags().GetDuration("max-wait")
	pollInterval, _ := cmd.Flags().GetDuration("poll-interval")
	budget, _ := cmd.Flags().GetDuration("budget")
	workers, _ := cmd.Flags().GetInt("workers")
	ledgerPath, _ := cmd.Flags().GetString("ledger")

	cfg := types.PipelineConfig{
		Archive: archiveCfg,
		Staging: types.StagingConfig{
			PollInterval: pollInterval,
			PollJitter:   defaultPollJitter,
			MaxWait:      maxWait,
			Workers:      workers,
		},
		Download: types.DownloadConfig{
			HTTPConfig: archiveCfg.HTTPConfig,
			ScratchDir: scratch,
			Workers:    workers,
		},
		Mosaic: types.MosaicConfig{
			OutputDir: output,
			Filename:  filename,
		},
		Budget:     budget,
		LedgerPath: ledgerPath,
	}

	tool, err := buildTool(cmd, scratch)
	if err != nil {
		return err
	}

	var runLedger *ledger.Ledger
	if cfg.LedgerPath != "" {
		runLedger, err = ledger.Open(cfg.LedgerPath)
		if err != nil {
			return err
		}
		defer runLedger.Close()
	}

	// Staging can take hours; downloads must not share the query timeout.
	downloadClient := &http.Client{Timeout: 2 * time.Hour}

	orch := &pipeline.Orchestrator{
		Archive: &archive.TAPClient{Client: client, Config: cfg.Archive},
		Stager: &staging.Client{
			API:    &archive.SodaClient{Client: client, Config: cfg.Archive, Credentials: credentials},
			Config: cfg.Staging,
			Log:    logger,
		},
		Downloader: &download.Fetcher{Client: downloadClient, Config: cfg.Download, Log: logger},
		Mosaicker:  &mosaic.Runner{Tool: tool, Log: logger},
		Ledger:     runLedger,
		Config:     cfg,
		Log:        logger,
		Out:        os.Stdout,
	}

	if _, err := orch.Run(cmd.Context(), req, outputBaseFor(filename)); err != nil {
		return fmt.Errorf("pipeline failed: %w", err)
	}
	return nil
}

// buildTool selects local or containerized linmos execution.
func buildTool(cmd *cobra.Command, bind string) (mosaic.Invoker, error) {
	binary, _ := cmd.Flags().GetString("binary")
	containerized, _ := cmd.Flags().GetBool("container")
	if !containerized {
		return &mosaic.LocalTool{Binary: binary}, nil
	}

	rt, err := container.DetectRuntime()
	if err != nil {
		return nil, err
	}
	image, _ := cmd.Flags().GetString("image")
	return &mosaic.ContainerTool{Runtime: rt, Image: image, Bind: bind, Binary: binary}, nil
}
