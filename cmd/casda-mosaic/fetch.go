// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/askap-tools/casda-mosaic/internal/archive"
	"github.com/askap-tools/casda-mosaic/internal/creds"
	"github.com/askap-tools/casda-mosaic/internal/download"
	"github.com/askap-tools/casda-mosaic/internal/staging"
	"github.com/askap-tools/casda-mosaic/pkg/log"
	"github.com/askap-tools/casda-mosaic/pkg/types"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Stage and download cutouts without mosaicking",
	Long: `Fetch resolves the region, selects candidates, stages cutouts
server-side, and downloads them into the scratch directory. Use the mosaic
subcommand afterwards to combine them.`,
	RunE: runFetch,
}

func init() {
	addRequestFlags(fetchCmd)
	fetchCmd.Flags().String("credentials", "casda.ini", "CASDA credentials file (INI, [CASDA] section)")
	fetchCmd.Flags().String("scratch", "scratch", "scratch directory for downloaded cutouts")
	fetchCmd.Flags().String("tap-url", "", "override the TAP query URL")
	fetchCmd.Flags().String("soda-url", "", "override the cutout service URL")
	fetchCmd.Flags().String("query", "", "override the obscore query string")
	fetchCmd.Flags().Duration("max-wait", defaultMaxWait, "maximum wait for each staging job")
	fetchCmd.Flags().Duration("poll-interval", defaultPollInterval, "interval between staging polls")
	fetchCmd.Flags().Int("workers", 0, "concurrent staging polls and downloads")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
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

	tap := &archive.TAPClient{Client: client, Config: archiveCfg}
	observations, err := tap.Query(cmd.Context(), req)
	if err != nil {
		return err
	}
	selection, err := archive.Select(observations, req)
	for _, o := range selection.Omitted {
		fmt.Fprintf(os.Stderr, "warning: requested observation %q matched nothing\n", o)
	}
	if err != nil {
		return err
	}

	maxWait, _ := cmd.Flags().GetDuration("max-wait")
	pollInterval, _ := cmd.Flags().GetDuration("poll-interval")
	workers, _ := cmd.Flags().GetInt("workers")
	scratch, _ := cmd.Flags().GetString("scratch")

	stager := &staging.Client{
		API:    &archive.SodaClient{Client: client, Config: archiveCfg, Credentials: credentials},
		Config: types.StagingConfig{PollInterval: pollInterval, PollJitter: defaultPollJitter, MaxWait: maxWait, Workers: workers},
		Log:    logger,
	}
	outcomes := stager.StageAll(cmd.Context(), req, selection.Candidates)

	var ready []types.StagingOutcome
	for _, out := range outcomes {
		if out.State == types.JobReady {
			ready = append(ready, out)
		} else {
			fmt.Printf("failed:  %s (%s: %s)\n", out.Candidate.ObsID, out.State, out.Reason)
		}
	}

	fetcher := &download.Fetcher{
		Client: &http.Client{Timeout: 2 * time.Hour},
		Config: types.DownloadConfig{HTTPConfig: archiveCfg.HTTPConfig, ScratchDir: scratch, Workers: workers},
		Log:    logger,
	}
	pairs, errs := fetcher.FetchAll(cmd.Context(), ready)

	downloaded := 0
	for i := range ready {
		if errs[i] != nil {
			fmt.Printf("failed:  %s (%v)\n", ready[i].Candidate.ObsID, errs[i])
			continue
		}
		fmt.Printf("fetched: %s -> %s\n", pairs[i].ObsID, pairs[i].Image.Path)
		downloaded++
	}
	fmt.Printf("\nFetch summary: %d downloaded, %d failed (total: %d)\n",
		downloaded, len(outcomes)-downloaded, len(outcomes))

	if downloaded == 0 {
		return fmt.Errorf("no cutouts retrieved")
	}
	return nil
}
