// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"io"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/askap-tools/casda-mosaic/pkg/types"
)

// ReportFilename is written into the output directory after every run,
// successful or not, so partial failures are never silent.
const ReportFilename = "report.yaml"

// CandidateReport is one candidate's disposition in the final outcome.
type CandidateReport struct {
	ObsID  string         `yaml:"obs_id"`
	State  types.JobState `yaml:"state"`
	Reason string         `yaml:"reason,omitempty"`
}

// Report is the structured outcome of a run: what was mosaicked, what was
// excluded and why, and where everything ended up.
type Report struct {
	RunID      string                 `yaml:"run_id"`
	Started    time.Time              `yaml:"started"`
	Finished   time.Time              `yaml:"finished"`
	Region     types.Region           `yaml:"region"`
	Spectral   types.SpectralInterval `yaml:"spectral"`
	Collection string                 `yaml:"collection,omitempty"`
	Success    bool                   `yaml:"success"`
	Included   []CandidateReport      `yaml:"included"`
	Excluded   []CandidateReport      `yaml:"excluded,omitempty"`
	Omitted    []string               `yaml:"omitted,omitempty"`

	// FileMap records archive filename -> local path for every artifact
	// that made it into the mosaic.
	FileMap map[string]string `yaml:"file_map,omitempty"`

	Mosaic *types.MosaicResult `yaml:"mosaic,omitempty"`
}

// WriteFile saves the report as YAML.
func (r *Report) WriteFile(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Summary prints the per-candidate dispositions and overall outcome.
func (r *Report) Summary(w io.Writer) {
	for _, c := range r.Included {
		fmt.Fprintf(w, "included: %s\n", c.ObsID)
	}
	for _, c := range r.Excluded {
		fmt.Fprintf(w, "excluded: %s (%s: %s)\n", c.ObsID, c.State, c.Reason)
	}
	for _, o := range r.Omitted {
		fmt.Fprintf(w, "warning: requested observation %q matched nothing\n", o)
	}
	if r.Mosaic != nil && r.Success {
		fmt.Fprintf(w, "\nMosaic image written to %s\n", r.Mosaic.ImagePath)
		fmt.Fprintf(w, "Mosaic weights written to %s\n", r.Mosaic.WeightPath)
	}
	fmt.Fprintf(w, "\nRun summary: %d mosaicked, %d excluded (run %s)\n",
		len(r.Included), len(r.Excluded), r.RunID)
}
