// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package staging

import (
	"fmt"

	"github.com/askap-tools/casda-mosaic/pkg/types"
)

// assignArtifacts pairs a READY job's artifacts back to the candidate's
// image and weight products by product identifier. A READY job that did
// not stage both products is a failure, not a partial success.
func assignArtifacts(out *types.StagingOutcome, artifacts []types.StagedArtifact) error {
	for _, a := range artifacts {
		switch a.ProductID {
		case out.Candidate.Image.ID:
			out.Image = a
		case out.Candidate.Weight.ID:
			out.Weight = a
		}
	}
	if out.Image.URL == "" {
		return fmt.Errorf("job %s ready but image %s has no artifact", out.JobID, out.Candidate.Image.ID)
	}
	if out.Weight.URL == "" {
		return fmt.Errorf("job %s ready but weight %s has no artifact", out.JobID, out.Candidate.Weight.ID)
	}
	return nil
}
