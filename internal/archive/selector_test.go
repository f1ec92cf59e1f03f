// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askap-tools/casda-mosaic/pkg/types"
)

func obsPair(obsID, product string, ra, dec float64) []types.Observation {
	return []types.Observation{
		{
			ObsID: obsID, Collection: "WALLABY", ProductID: product + "-img",
			Filename: "image.restored.i." + product + ".contsub.fits",
			Subtype:  SubtypeRestored, RA: ra, Dec: dec,
		},
		{
			ObsID: obsID, Collection: "WALLABY", ProductID: product + "-wt",
			Filename: "weights.i." + product + ".fits",
			Subtype:  SubtypeWeight, RA: ra, Dec: dec,
		},
	}
}

func testRequest() types.CutoutRequest {
	return types.CutoutRequest{
		Region:     types.Region{RA: 197.24113, Dec: -15.51682, Radius: 85.9434683},
		Collection: "WALLABY",
	}
}

func TestSelect_PairsAndOrders(t *testing.T) {
	var obs []types.Observation
	// Deliberately out of order.
	obs = append(obs, obsPair("10809", "NGC5044_4", 198.0, -14.9)...)
	obs = append(obs, obsPair("10609", "NGC5044_3", 197.5, -15.2)...)

	sel, err := Select(obs, testRequest())
	require.NoError(t, err)
	require.Len(t, sel.Candidates, 2)

	assert.Equal(t, "10609", sel.Candidates[0].ObsID)
	assert.Equal(t, "10809", sel.Candidates[1].ObsID)
	assert.Equal(t, "NGC5044_3-img", sel.Candidates[0].Image.ID)
	assert.Equal(t, "NGC5044_3-wt", sel.Candidates[0].Weight.ID)
	assert.Empty(t, sel.Omitted)
}

func TestSelect_Deterministic(t *testing.T) {
	var obs []types.Observation
	for _, p := range []struct {
		id, name string
	}{{"3", "c"}, {"1", "a"}, {"2", "b"}} {
		obs = append(obs, obsPair(p.id, p.name, 197.0, -15.0)...)
	}

	first, err := Select(obs, testRequest())
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Select(obs, testRequest())
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestSelect_DropsUnpaired(t *testing.T) {
	obs := obsPair("10609", "NGC5044_3", 197.5, -15.2)
	// Image-only observation: no weight cube, cannot be mosaicked.
	obs = append(obs, types.Observation{
		ObsID: "10709", ProductID: "orphan-img",
		Filename: "image.restored.i.orphan.contsub.fits",
		Subtype:  SubtypeRestored, RA: 197.0, Dec: -15.0,
	})

	sel, err := Select(obs, testRequest())
	require.NoError(t, err)
	require.Len(t, sel.Candidates, 1)
	assert.Equal(t, "10609", sel.Candidates[0].ObsID)
}

func TestSelect_DeduplicatesProducts(t *testing.T) {
	obs := obsPair("10609", "NGC5044_3", 197.5, -15.2)
	// A duplicate row for the same product must not produce a second
	// candidate or overwrite the first product seen.
	obs = append(obs, obs[0])

	sel, err := Select(obs, testRequest())
	require.NoError(t, err)
	require.Len(t, sel.Candidates, 1)
	assert.Equal(t, "NGC5044_3-img", sel.Candidates[0].Image.ID)
}

func TestSelect_SeparationFilter(t *testing.T) {
	obs := obsPair("10609", "NGC5044_3", 197.5, -15.2)
	obs = append(obs, obsPair("99999", "FarField", 310.0, 60.0)...)

	sel, err := Select(obs, testRequest())
	require.NoError(t, err)
	require.Len(t, sel.Candidates, 1)
	assert.Equal(t, "10609", sel.Candidates[0].ObsID)
}

func TestSelect_MilkyWayFilter(t *testing.T) {
	normal := obsPair("10609", "NGC5044_3", 197.5, -15.2)
	mw := []types.Observation{
		{
			ObsID: "20001", ProductID: "mw-img",
			Filename: "image.restored.i.MilkyWay_Field.contsub.fits",
			Subtype:  SubtypeRestored, RA: 197.4, Dec: -15.3,
		},
		{
			ObsID: "20001", ProductID: "mw-wt",
			Filename: "weights.i.MilkyWay_Field.fits",
			Subtype:  SubtypeWeight, RA: 197.4, Dec: -15.3,
		},
	}
	obs := append(normal, mw...)

	req := testRequest()
	sel, err := Select(obs, req)
	require.NoError(t, err)
	require.Len(t, sel.Candidates, 1)
	assert.Equal(t, "10609", sel.Candidates[0].ObsID)

	req.MilkyWay = true
	sel, err = Select(obs, req)
	require.NoError(t, err)
	require.Len(t, sel.Candidates, 1)
	assert.Equal(t, "20001", sel.Candidates[0].ObsID)
}

func TestSelect_AllowList(t *testing.T) {
	var obs []types.Observation
	obs = append(obs, obsPair("10609", "NGC5044_3", 197.5, -15.2)...)
	obs = append(obs, obsPair("10809", "NGC5044_4", 198.0, -14.9)...)

	req := testRequest()
	req.ObsIDs = []string{"10609", "55555"}

	sel, err := Select(obs, req)
	require.NoError(t, err)
	require.Len(t, sel.Candidates, 1)
	assert.Equal(t, "10609", sel.Candidates[0].ObsID)
	// Entries matching nothing are reported, not fatal.
	assert.Equal(t, []string{"55555"}, sel.Omitted)
}

func TestSelect_NoCandidates(t *testing.T) {
	_, err := Select(nil, testRequest())
	assert.ErrorIs(t, err, types.ErrNoCandidatesFound)

	// Allow-list that filters everything out also yields the sentinel.
	obs := obsPair("10609", "NGC5044_3", 197.5, -15.2)
	req := testRequest()
	req.ObsIDs = []string{"nope"}
	_, err = Select(obs, req)
	assert.ErrorIs(t, err, types.ErrNoCandidatesFound)
}
