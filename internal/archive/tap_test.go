// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askap-tools/casda-mosaic/pkg/types"
)

const tapJSON = `{
  "metadata": [
    {"name": "obs_id"},
    {"name": "obs_collection"},
    {"name": "obs_publisher_did"},
    {"name": "filename"},
    {"name": "dataproduct_subtype"},
    {"name": "s_ra"},
    {"name": "s_dec"}
  ],
  "data": [
    ["10609", "WALLABY", "cube-1", "image.restored.i.NGC5044_3.contsub.fits", "spectral.restored.3d", 197.5, -15.2],
    ["10609", "WALLABY", "cube-2", "weights.i.NGC5044_3.fits", "spectral.weight.3d", 197.5, -15.2]
  ]
}`

func TestTAPClient_Query(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sync", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "doQuery", r.Form.Get("REQUEST"))
		assert.Equal(t, "ADQL", r.Form.Get("LANG"))
		assert.Equal(t, "json", r.Form.Get("FORMAT"))
		// The collection placeholder must be substituted.
		assert.Contains(t, r.Form.Get("QUERY"), "WALLABY")
		assert.NotContains(t, r.Form.Get("QUERY"), "$OBS_COLLECTION")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(tapJSON))
	}))
	defer ts.Close()

	c := &TAPClient{
		Client: ts.Client(),
		Config: types.ArchiveConfig{
			TAPURL:     ts.URL,
			Query:      DefaultQuery,
			HTTPConfig: types.HTTPConfig{UserAgent: "test"},
		},
	}

	obs, err := c.Query(context.Background(), types.CutoutRequest{Collection: "WALLABY"})
	require.NoError(t, err)
	require.Len(t, obs, 2)

	assert.Equal(t, types.Observation{
		ObsID:      "10609",
		Collection: "WALLABY",
		ProductID:  "cube-1",
		Filename:   "image.restored.i.NGC5044_3.contsub.fits",
		Subtype:    SubtypeRestored,
		RA:         197.5,
		Dec:        -15.2,
	}, obs[0])
	assert.Equal(t, SubtypeWeight, obs[1].Subtype)
}

func TestTAPClient_ColumnOrderIndependent(t *testing.T) {
	// Same rows with the columns shuffled: mapping is by name, not position.
	shuffled := `{
	  "metadata": [
	    {"name": "filename"},
	    {"name": "dataproduct_subtype"},
	    {"name": "obs_id"}
	  ],
	  "data": [
	    ["image.restored.i.NGC5044_3.contsub.fits", "spectral.restored.3d", "10609"]
	  ]
	}`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(shuffled))
	}))
	defer ts.Close()

	c := &TAPClient{Client: ts.Client(), Config: types.ArchiveConfig{TAPURL: ts.URL, Query: DefaultQuery}}
	obs, err := c.Query(context.Background(), types.CutoutRequest{Collection: "WALLABY"})
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, "10609", obs[0].ObsID)
	assert.Equal(t, SubtypeRestored, obs[0].Subtype)
}

func TestTAPClient_MissingColumn(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"metadata": [{"name": "obs_id"}], "data": []}`))
	}))
	defer ts.Close()

	c := &TAPClient{Client: ts.Client(), Config: types.ArchiveConfig{TAPURL: ts.URL, Query: DefaultQuery}}
	_, err := c.Query(context.Background(), types.CutoutRequest{Collection: "WALLABY"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "filename")
}

func TestTAPClient_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer ts.Close()

	c := &TAPClient{Client: ts.Client(), Config: types.ArchiveConfig{TAPURL: ts.URL, Query: DefaultQuery}}
	_, err := c.Query(context.Background(), types.CutoutRequest{Collection: "WALLABY"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}
