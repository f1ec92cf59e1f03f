// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package staging drives the archive's asynchronous cutout jobs: submit one
// job per candidate, poll until terminal, and hand artifact URLs onward.
package staging

import (
	"context"
	"sync"
	"time"

	"github.com/lthibault/jitterbug/v2"
	"go.uber.org/zap"

	"github.com/askap-tools/casda-mosaic/pkg/types"
)

// API is the archive staging capability the client depends on. The
// production implementation is archive.SodaClient; tests use fakes.
type API interface {
	// Submit creates a staging job for the candidate's products and
	// returns its job identifier.
	Submit(ctx context.Context, cand types.Candidate, req types.CutoutRequest) (string, error)

	// Poll reports the job's current status.
	Poll(ctx context.Context, jobID string) (types.JobStatus, error)
}

const (
	defaultWorkers        = 4
	defaultPollInterval   = 30 * time.Second
	defaultMaxPollRetries = 5
)

// Client runs the staging state machine for a set of candidates.
type Client struct {
	API    API
	Config types.StagingConfig
	Log    *zap.SugaredLogger
}

// StageAll submits one job per candidate and polls them with a bounded
// worker pool until every job is terminal. Jobs are independent: one
// failing or timing out never aborts its siblings. The returned outcomes
// preserve candidate order.
func (c *Client) StageAll(ctx context.Context, req types.CutoutRequest, candidates []types.Candidate) []types.StagingOutcome {
	workers := c.Config.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	if workers > len(candidates) {
		workers = len(candidates)
	}

	jobs := make(chan int)
	outcomes := make([]types.StagingOutcome, len(candidates))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = c.stage(ctx, req, candidates[i])
			}
		}()
	}

	for i := range candidates {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return outcomes
}

// stage runs one candidate through SUBMITTED -> EXECUTING -> terminal.
func (c *Client) stage(ctx context.Context, req types.CutoutRequest, cand types.Candidate) types.StagingOutcome {
	out := types.StagingOutcome{Candidate: cand, State: types.JobSubmitted, SubmittedAt: time.Now()}

	jobID, err := c.API.Submit(ctx, cand, req)
	if err != nil {
		out.State = types.JobError
		out.Reason = "submit: " + err.Error()
		return out
	}
	out.JobID = jobID
	c.Log.Infow("staging job submitted", "obs_id", cand.ObsID, "job_id", jobID)

	interval := c.Config.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	maxPollRetries := c.Config.MaxPollRetries
	if maxPollRetries <= 0 {
		maxPollRetries = defaultMaxPollRetries
	}

	deadline := time.Time{}
	if c.Config.MaxWait > 0 {
		deadline = out.SubmittedAt.Add(c.Config.MaxWait)
	}

	ticker := jitterbug.New(interval, &jitterbug.Norm{Stdev: c.Config.PollJitter})
	defer ticker.Stop()

	pollFailures := 0
	for {
		select {
		case <-ctx.Done():
			out.State = types.JobTimedOut
			out.Reason = "cancelled: " + ctx.Err().Error()
			return out
		case <-ticker.C:
		}

		if !deadline.IsZero() && time.Now().After(deadline) {
			out.State = types.JobTimedOut
			out.Reason = "staging exceeded maximum wait"
			return out
		}

		status, err := c.API.Poll(ctx, jobID)
		if err != nil {
			pollFailures++
			c.Log.Warnw("poll failed", "obs_id", cand.ObsID, "job_id", jobID,
				"attempt", pollFailures, "error", err)
			if pollFailures >= maxPollRetries {
				out.State = types.JobError
				out.Reason = "polling: " + err.Error()
				return out
			}
			continue
		}
		pollFailures = 0

		// States only move forward; a stale SUBMITTED report after the
		// job was seen EXECUTING is ignored.
		if advances(out.State, status.State) {
			out.State = status.State
		}

		switch out.State {
		case types.JobReady:
			if err := assignArtifacts(&out, status.Artifacts); err != nil {
				out.State = types.JobError
				out.Reason = err.Error()
			}
			return out
		case types.JobError:
			out.Reason = status.Message
			if out.Reason == "" {
				out.Reason = "archive reported job failure"
			}
			return out
		}
	}
}

// advances reports whether moving from to next is a forward transition.
func advances(from, next types.JobState) bool {
	if from.Terminal() {
		return false
	}
	if from == types.JobExecuting && next == types.JobSubmitted {
		return false
	}
	return true
}
