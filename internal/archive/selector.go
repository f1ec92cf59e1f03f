// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/askap-tools/casda-mosaic/pkg/types"
)

// maxSeparationDeg is the centre-distance prefilter on each axis. ASKAP
// footprints span roughly 6x6 degrees, so anything further than the
// half-diagonal cannot overlap the requested region.
var maxSeparationDeg = math.Sqrt(3*3 + 3*3)

// Selection is the outcome of candidate selection: a deterministic,
// deduplicated candidate list plus any allow-list entries that matched
// nothing. Omissions are warnings, not failures.
type Selection struct {
	Candidates []types.Candidate
	Omitted    []string
}

// Select pairs the queried observations into candidates for the request.
// Candidates are ordered by ascending obs_id so repeated runs against an
// unchanged archive mosaic the same inputs in the same order.
func Select(observations []types.Observation, req types.CutoutRequest) (Selection, error) {
	byObs := make(map[string][]types.Observation)
	for _, o := range observations {
		if strings.Contains(o.Filename, "MilkyWay") != req.MilkyWay {
			continue
		}
		if math.Abs(o.RA-req.Region.RA) > maxSeparationDeg ||
			math.Abs(o.Dec-req.Region.Dec) > maxSeparationDeg {
			continue
		}
		byObs[o.ObsID] = append(byObs[o.ObsID], o)
	}

	var candidates []types.Candidate
	for obsID, group := range byObs {
		c := types.Candidate{ObsID: obsID}
		for _, o := range group {
			switch o.Subtype {
			case SubtypeRestored:
				if c.Image.ID == "" {
					c.Image = types.Product{ID: o.ProductID, Filename: o.Filename}
					c.Collection = o.Collection
					c.RA, c.Dec = o.RA, o.Dec
				}
			case SubtypeWeight:
				if c.Weight.ID == "" {
					c.Weight = types.Product{ID: o.ProductID, Filename: o.Filename}
				}
			}
		}
		// An observation without both products cannot be mosaicked.
		if c.Image.ID == "" || c.Weight.ID == "" {
			continue
		}
		candidates = append(candidates, c)
	}

	var omitted []string
	if len(req.ObsIDs) > 0 {
		matched := make(map[string]bool, len(req.ObsIDs))
		var kept []types.Candidate
		for _, c := range candidates {
			for _, want := range req.ObsIDs {
				if strings.Contains(c.ObsID, want) {
					kept = append(kept, c)
					matched[want] = true
					break
				}
			}
		}
		for _, want := range req.ObsIDs {
			if !matched[want] {
				omitted = append(omitted, want)
			}
		}
		candidates = kept
	}

	if len(candidates) == 0 {
		return Selection{Omitted: omitted},
			fmt.Errorf("%w: collection %q around (%.5f, %.5f)",
				types.ErrNoCandidatesFound, req.Collection, req.Region.RA, req.Region.Dec)
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].ObsID < candidates[j].ObsID
	})
	sort.Strings(omitted)

	return Selection{Candidates: candidates, Omitted: omitted}, nil
}
