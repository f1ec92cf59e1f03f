// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/askap-tools/casda-mosaic/internal/archive"
	"github.com/askap-tools/casda-mosaic/internal/region"
	"github.com/askap-tools/casda-mosaic/pkg/types"
)

const (
	defaultTimeout      = 60 * time.Second
	defaultUserAgent    = "casda-mosaic/0.1"
	defaultPollInterval = 30 * time.Second
	defaultPollJitter   = 5 * time.Second
	defaultMaxWait      = 12 * time.Hour
)

// addRequestFlags registers the region/spectral/candidate-filter flags
// shared by query, fetch, and run.
func addRequestFlags(cmd *cobra.Command) {
	cmd.Flags().String("name", "", "target source name (resolved to coordinates)")
	cmd.Flags().Float64("ra", 0, "centre RA [deg]")
	cmd.Flags().Float64("dec", 0, "centre Dec [deg]")
	cmd.Flags().Float64("radius", 0, "radius [arcmin]")
	cmd.Flags().Float64Slice("freq", nil, "frequency range [MHz] (two values)")
	cmd.Flags().Float64Slice("vel", nil, "velocity range [km/s] (two values)")
	cmd.Flags().String("collection", "WALLABY", "obscore obs_collection filter")
	cmd.Flags().StringSlice("obs", nil, "restrict to these observation identifiers")
	cmd.Flags().Bool("milkyway", false, "select the Milky Way velocity-resolution cubes")
}

// requestFromFlags builds the immutable CutoutRequest, resolving a name to
// coordinates when one was given.
func requestFromFlags(ctx context.Context, cmd *cobra.Command, client *http.Client, httpCfg types.HTTPConfig) (types.CutoutRequest, error) {
	p := region.Params{}
	p.Name, _ = cmd.Flags().GetString("name")
	p.Radius, _ = cmd.Flags().GetFloat64("radius")
	p.FreqMHz, _ = cmd.Flags().GetFloat64Slice("freq")
	p.VelKMS, _ = cmd.Flags().GetFloat64Slice("vel")
	if cmd.Flags().Changed("ra") && cmd.Flags().Changed("dec") {
		ra, _ := cmd.Flags().GetFloat64("ra")
		dec, _ := cmd.Flags().GetFloat64("dec")
		p.RA, p.Dec = &ra, &dec
	}

	r, s, err := region.Resolve(ctx, client, p, httpCfg)
	if err != nil {
		return types.CutoutRequest{}, err
	}

	collection, _ := cmd.Flags().GetString("collection")
	obsIDs, _ := cmd.Flags().GetStringSlice("obs")
	milkyway, _ := cmd.Flags().GetBool("milkyway")

	return types.CutoutRequest{
		Region:     r,
		Spectral:   s,
		Collection: collection,
		ObsIDs:     obsIDs,
		MilkyWay:   milkyway,
	}, nil
}

// archiveConfig applies defaults and flag overrides for the archive endpoints.
func archiveConfig(cmd *cobra.Command) types.ArchiveConfig {
	cfg := types.ArchiveConfig{
		HTTPConfig: types.HTTPConfig{Timeout: defaultTimeout, UserAgent: defaultUserAgent},
		TAPURL:     archive.DefaultTAPURL,
		SodaURL:    archive.DefaultSodaURL,
		Query:      archive.DefaultQuery,
	}
	if cmd.Flags().Lookup("tap-url") != nil {
		if v, _ := cmd.Flags().GetString("tap-url"); v != "" {
			cfg.TAPURL = v
		}
	}
	if cmd.Flags().Lookup("soda-url") != nil {
		if v, _ := cmd.Flags().GetString("soda-url"); v != "" {
			cfg.SodaURL = v
		}
	}
	if cmd.Flags().Lookup("query") != nil {
		if v, _ := cmd.Flags().GetString("query"); v != "" {
			cfg.Query = v
		}
	}
	return cfg
}

// outputBaseFor strips the .fits suffix from the user's filename flag; an
// empty name falls back to a region-derived one in the manifest builder.
func outputBaseFor(filename string) string {
	return strings.TrimSuffix(filename, ".fits")
}
