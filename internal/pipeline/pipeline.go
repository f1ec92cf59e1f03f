// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline sequences the stages: candidate query, staging,
// download, manifest assembly, and the mosaic tool run. Per-candidate
// failures are recovered locally so the mosaic is built from whatever was
// retrievable; structural failures propagate.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/askap-tools/casda-mosaic/internal/archive"
	"github.com/askap-tools/casda-mosaic/internal/ledger"
	"github.com/askap-tools/casda-mosaic/internal/mosaic"
	"github.com/askap-tools/casda-mosaic/pkg/types"
)

// Archive queries the data archive for observations matching a request.
type Archive interface {
	Query(ctx context.Context, req types.CutoutRequest) ([]types.Observation, error)
}

// Stager runs the staging state machine for all candidates.
type Stager interface {
	StageAll(ctx context.Context, req types.CutoutRequest, candidates []types.Candidate) []types.StagingOutcome
}

// Downloader fetches artifacts for READY staging outcomes.
type Downloader interface {
	FetchAll(ctx context.Context, ready []types.StagingOutcome) ([]types.ArtifactPair, []error)
}

// Mosaicker runs the external tool against a manifest and validates output.
type Mosaicker interface {
	Run(ctx context.Context, m types.MosaicManifest, outputDir string) (types.MosaicResult, error)
}

// Orchestrator wires the stages together for one run.
type Orchestrator struct {
	Archive    Archive
	Stager     Stager
	Downloader Downloader
	Mosaicker  Mosaicker
	Ledger     *ledger.Ledger // nil disables run recording
	Config     types.PipelineConfig
	Log        *zap.SugaredLogger
	Out        io.Writer
}

// Run executes the full pipeline for one request. The report is returned
// even when err is non-nil, so callers can surface partial progress; it is
// also written to the output directory.
func (o *Orchestrator) Run(ctx context.Context, req types.CutoutRequest, outputBase string) (*Report, error) {
	if o.Config.Budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.Config.Budget)
		defer cancel()
	}

	report := &Report{
		RunID:      uuid.NewString(),
		Started:    time.Now(),
		Region:     req.Region,
		Spectral:   req.Spectral,
		Collection: req.Collection,
		FileMap:    make(map[string]string),
	}
	if outputBase == "" {
		outputBase = mosaic.OutputBaseForRegion(req.Region)
	}

	if o.Ledger != nil {
		if err := o.Ledger.BeginRun(report.RunID, report.Started, req); err != nil {
			o.Log.Warnw("ledger write failed", "error", err)
		}
	}

	err := o.run(ctx, req, outputBase, report)
	report.Finished = time.Now()
	report.Success = err == nil

	// The report lands in the output directory on every exit path, even
	// when the run failed before the mosaic step created it.
	if mkErr := os.MkdirAll(o.Config.Mosaic.OutputDir, 0o755); mkErr != nil {
		o.Log.Warnw("creating output directory failed", "error", mkErr)
	}
	if writeErr := report.WriteFile(filepath.Join(o.Config.Mosaic.OutputDir, ReportFilename)); writeErr != nil {
		o.Log.Warnw("report write failed", "error", writeErr)
	}
	if o.Ledger != nil {
		if ledgerErr := o.Ledger.FinishRun(report.RunID, report.Finished, report.Success); ledgerErr != nil {
			o.Log.Warnw("ledger write failed", "error", ledgerErr)
		}
	}
	report.Summary(o.Out)

	return report, err
}

func (o *Orchestrator) run(ctx context.Context, req types.CutoutRequest, outputBase string, report *Report) error {
	observations, err := o.Archive.Query(ctx, req)
	if err != nil {
		return fmt.Errorf("querying archive: %w", err)
	}

	selection, err := archive.Select(observations, req)
	report.Omitted = selection.Omitted
	if err != nil {
		return err
	}
	o.Log.Infow("candidates selected", "count", len(selection.Candidates), "omitted", len(selection.Omitted))

	outcomes := o.Stager.StageAll(ctx, req, selection.Candidates)

	var ready []types.StagingOutcome
	for _, out := range outcomes {
		if out.State == types.JobReady {
			ready = append(ready, out)
			continue
		}
		o.exclude(report, CandidateReport{ObsID: out.Candidate.ObsID, State: out.State, Reason: out.Reason})
	}

	pairs, errs := o.Downloader.FetchAll(ctx, ready)

	var complete []types.ArtifactPair
	for i, out := range ready {
		if errs[i] != nil {
			o.exclude(report, CandidateReport{
				ObsID:  out.Candidate.ObsID,
				State:  types.JobError,
				Reason: errs[i].Error(),
			})
			continue
		}
		complete = append(complete, pairs[i])
	}

	manifest, err := mosaic.Build(complete, outputBase)
	if err != nil {
		return err
	}

	for _, p := range manifest.Pairs {
		report.Included = append(report.Included, CandidateReport{ObsID: p.ObsID, State: types.JobReady})
		report.FileMap[p.Image.SourceFilename] = p.Image.Path
		report.FileMap[p.Weight.SourceFilename] = p.Weight.Path
		if o.Ledger != nil {
			rec := ledger.CandidateRecord{
				ObsID:    p.ObsID,
				State:    types.JobReady,
				Included: true,
				Image:    p.Image.Path,
				Weight:   p.Weight.Path,
			}
			if err := o.Ledger.RecordCandidate(report.RunID, rec); err != nil {
				o.Log.Warnw("ledger write failed", "error", err)
			}
		}
	}

	// The mosaic tool run is a single blocking operation, deliberately
	// outside the run budget: by this point the inputs are on disk.
	result, err := o.Mosaicker.Run(context.WithoutCancel(ctx), manifest, o.Config.Mosaic.OutputDir)
	report.Mosaic = &result
	if err != nil {
		return err
	}
	return nil
}

// exclude records a failed candidate in the report and ledger. Exclusions
// are logged, never silent.
func (o *Orchestrator) exclude(report *Report, c CandidateReport) {
	o.Log.Warnw("candidate excluded", "obs_id", c.ObsID, "state", c.State, "reason", c.Reason)
	report.Excluded = append(report.Excluded, c)
	if o.Ledger != nil {
		rec := ledger.CandidateRecord{ObsID: c.ObsID, State: c.State, Reason: c.Reason}
		if err := o.Ledger.RecordCandidate(report.RunID, rec); err != nil {
			o.Log.Warnw("ledger write failed", "error", err)
		}
	}
}
