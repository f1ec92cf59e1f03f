// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "errors"

// Sentinel errors returned by the pipeline stages. Callers match them with
// errors.Is; the wrapping message carries the per-run detail.
var (
	// ErrInvalidRegion reports a radius or coordinate outside the valid sky range.
	ErrInvalidRegion = errors.New("invalid region")

	// ErrAmbiguousSpectralRange reports a missing, doubled, or inverted
	// frequency/velocity range.
	ErrAmbiguousSpectralRange = errors.New("ambiguous spectral range")

	// ErrNoCandidatesFound reports an empty candidate set after filtering.
	ErrNoCandidatesFound = errors.New("no candidates found")

	// ErrDownloadFailed reports exhausted transport retries for one candidate.
	ErrDownloadFailed = errors.New("download failed")

	// ErrDownloadIntegrity reports a persistent size or checksum mismatch.
	ErrDownloadIntegrity = errors.New("download integrity check failed")

	// ErrEmptyMosaic reports that no candidate survived staging and download.
	ErrEmptyMosaic = errors.New("empty mosaic: no input pairs")

	// ErrMosaicToolFailed reports a non-zero exit from the mosaicking tool.
	ErrMosaicToolFailed = errors.New("mosaic tool failed")

	// ErrMosaicOutputMissing reports a zero exit that nevertheless produced
	// no usable output files.
	ErrMosaicOutputMissing = errors.New("mosaic output missing")
)
