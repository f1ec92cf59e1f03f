// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/askap-tools/casda-mosaic/internal/archive"
	"github.com/askap-tools/casda-mosaic/internal/region"
	"github.com/askap-tools/casda-mosaic/pkg/types"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "List candidate observations for a region without staging anything",
	Long: `Query resolves the target region and spectral range, runs the obscore
query against the archive, and prints the candidate observations that a run
would stage. No cutouts are requested.`,
	RunE: runQuery,
}

func init() {
	addRequestFlags(queryCmd)
	queryCmd.Flags().String("tap-url", "", "override the TAP query URL")
	queryCmd.Flags().String("query", "", "override the obscore query string")

	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	archiveCfg := archiveConfig(cmd)
	client := &http.Client{Timeout: archiveCfg.Timeout}

	req, err := requestFromFlags(cmd.Context(), cmd, client, archiveCfg.HTTPConfig)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Centre (%.5f, %.5f), radius %.2f arcmin, band %.3f-%.3f MHz (%s basis)\n",
		req.Region.RA, req.Region.Dec, req.Region.Radius,
		req.Spectral.LowHz/1e6, req.Spectral.HighHz/1e6, req.Spectral.Basis)
	if req.Spectral.Basis == types.BasisVelocity {
		fmt.Fprintf(os.Stderr, "Velocity range %.1f to %.1f km/s\n",
			region.VelocityForFrequency(req.Spectral.HighHz),
			region.VelocityForFrequency(req.Spectral.LowHz))
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

	fmt.Printf("%-20s  %-12s  %-10s  %-10s\n", "OBS_ID", "COLLECTION", "RA", "DEC")
	for _, c := range selection.Candidates {
		fmt.Printf("%-20s  %-12s  %-10.5f  %-10.5f\n", c.ObsID, c.Collection, c.RA, c.Dec)
	}
	fmt.Printf("\n%d candidate(s)\n", len(selection.Candidates))
	return nil
}
