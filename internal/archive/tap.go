// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive talks to the data archive: obscore queries over TAP,
// candidate selection, and cutout staging over the SODA service.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/askap-tools/casda-mosaic/internal/httputil"
	"github.com/askap-tools/casda-mosaic/pkg/types"
)

// Defaults for the CASDA archive. Both are overridable through config.
const (
	DefaultTAPURL = "https://casda.csiro.au/casda_vo_tools/tap"

	// DefaultQuery selects the restored spectral cubes and their weight
	// cubes for a collection, skipping rejected data products.
	DefaultQuery = "SELECT * FROM ivoa.obscore WHERE (obs_collection LIKE '%$OBS_COLLECTION%' AND " +
		"quality_level != 'REJECTED' AND " +
		"(filename LIKE '%contsub%' OR filename LIKE '%weight%') AND " +
		"(dataproduct_subtype = 'spectral.restored.3d' OR dataproduct_subtype = 'spectral.weight.3d'))"
)

// Data product subtypes distinguishing image cubes from weight cubes.
const (
	SubtypeRestored = "spectral.restored.3d"
	SubtypeWeight   = "spectral.weight.3d"
)

// TAPClient runs synchronous ADQL queries against the archive TAP service.
type TAPClient struct {
	Client *http.Client
	Config types.ArchiveConfig
}

// tapResponse mirrors the VOTable-JSON encoding returned by the TAP
// service: column metadata plus row-major data.
type tapResponse struct {
	Metadata []struct {
		Name string `json:"name"`
	} `json:"metadata"`
	Data [][]any `json:"data"`
}

// Query substitutes the collection into the configured obscore query and
// returns one Observation per result row.
func (c *TAPClient) Query(ctx context.Context, req types.CutoutRequest) ([]types.Observation, error) {
	adql := strings.ReplaceAll(c.Config.Query, "$OBS_COLLECTION", req.Collection)

	form := url.Values{
		"REQUEST": {"doQuery"},
		"LANG":    {"ADQL"},
		"FORMAT":  {"json"},
		"QUERY":   {adql},
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.Config.TAPURL+"/sync", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating TAP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("User-Agent", c.Config.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, c.Client, httpReq, 0)
	if err != nil {
		return nil, fmt.Errorf("TAP query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("TAP service returned HTTP %d", resp.StatusCode)
	}

	var tr tapResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("parsing TAP response: %w", err)
	}
	return tr.observations()
}

// observations maps rows onto Observation by column name, tolerating
// whatever column order the service picked.
func (t *tapResponse) observations() ([]types.Observation, error) {
	col := make(map[string]int, len(t.Metadata))
	for i, m := range t.Metadata {
		col[strings.ToLower(m.Name)] = i
	}
	for _, required := range []string{"obs_id", "filename", "dataproduct_subtype"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("TAP response missing column %q", required)
		}
	}

	obs := make([]types.Observation, 0, len(t.Data))
	for _, row := range t.Data {
		o := types.Observation{
			ObsID:      stringAt(row, col, "obs_id"),
			Collection: stringAt(row, col, "obs_collection"),
			ProductID:  stringAt(row, col, "obs_publisher_did"),
			Filename:   stringAt(row, col, "filename"),
			Subtype:    stringAt(row, col, "dataproduct_subtype"),
			RA:         floatAt(row, col, "s_ra"),
			Dec:        floatAt(row, col, "s_dec"),
		}
		obs = append(obs, o)
	}
	return obs, nil
}

func stringAt(row []any, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(row) {
		return ""
	}
	s, _ := row[i].(string)
	return s
}

func floatAt(row []any, col map[string]int, name string) float64 {
	i, ok := col[name]
	if !ok || i >= len(row) {
		return 0
	}
	f, _ := row[i].(float64)
	return f
}
