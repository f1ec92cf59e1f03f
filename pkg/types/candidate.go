// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// CutoutRequest fully determines the archive queries for one run. It is
// constructed once by the region resolver and never mutated afterwards.
type CutoutRequest struct {
	Region   Region
	Spectral SpectralInterval

	// Collection filters the obscore query (e.g. "WALLABY"). Empty means
	// no collection filter.
	Collection string

	// ObsIDs restricts candidates to an explicit allow-list of observation
	// identifiers. Entries are matched as substrings of obs_id, so a bare
	// scheduling-block number selects all its observations.
	ObsIDs []string

	// MilkyWay selects the Milky Way velocity-resolution cubes instead of
	// the standard ones.
	MilkyWay bool
}

// Observation is one row of the archive query result: a single data product
// belonging to an observation.
type Observation struct {
	ObsID      string
	Collection string
	ProductID  string // obs_publisher_did, used for cutout submission
	Filename   string
	Subtype    string // dataproduct_subtype
	RA         float64
	Dec        float64
}

// Product identifies one archive-side data product of a candidate.
type Product struct {
	ID       string
	Filename string
}

// Candidate is an observation whose footprint intersects the request, with
// its restored-image and weight products paired. Produced by the selector,
// consumed by the staging client, never mutated.
type Candidate struct {
	ObsID      string
	Collection string
	RA         float64
	Dec        float64
	Image      Product
	Weight     Product
}

// JobState is the staging job lifecycle. Transitions only move forward:
// SUBMITTED -> EXECUTING -> {READY | ERROR}, and any state may move to
// TIMED_OUT when the maximum wait is exceeded.
type JobState string

const (
	JobSubmitted JobState = "SUBMITTED"
	JobExecuting JobState = "EXECUTING"
	JobReady     JobState = "READY"
	JobError     JobState = "ERROR"
	JobTimedOut  JobState = "TIMED_OUT"
)

// Terminal reports whether the state ends the job.
func (s JobState) Terminal() bool {
	return s == JobReady || s == JobError || s == JobTimedOut
}

// StagedArtifact is one retrievable cutout file announced by a READY job.
type StagedArtifact struct {
	ProductID string
	URL       string
	Filename  string
	Size      int64  // 0 when the archive did not report a size
	MD5       string // empty when the archive did not report a checksum
}

// JobStatus is one poll observation of a staging job.
type JobStatus struct {
	State     JobState
	Artifacts []StagedArtifact // populated once READY
	Message   string           // error detail from the archive, if any
}

// StagingOutcome is the per-candidate result of the staging state machine:
// either artifact URLs (READY) or a failure reason.
type StagingOutcome struct {
	Candidate   Candidate
	State       JobState
	JobID       string
	SubmittedAt time.Time
	Image       StagedArtifact
	Weight      StagedArtifact
	Reason      string
}
