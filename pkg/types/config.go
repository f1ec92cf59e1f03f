package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "casda-mosaic/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ArchiveConfig holds settings for the archive query and staging endpoints.
type ArchiveConfig struct {
	HTTPConfig `yaml:",inline"`

	// TAPURL is the base URL of the archive TAP service.
	TAPURL string `json:"tap_url" yaml:"tap_url"`

	// SodaURL is the base URL of the archive cutout (staging) service.
	SodaURL string `json:"soda_url" yaml:"soda_url"`

	// Query is the obscore query template. The literal $OBS_COLLECTION is
	// replaced with the requested collection.
	Query string `json:"query" yaml:"query"`
}

// StagingConfig holds settings for the staging state machine.
type StagingConfig struct {
	// PollInterval is the base interval between job status polls.
	PollInterval time.Duration `json:"poll_interval" yaml:"poll_interval"`

	// PollJitter is the standard deviation of the jitter added to each
	// poll interval, spreading polls from concurrent workers.
	PollJitter time.Duration `json:"poll_jitter" yaml:"poll_jitter"`

	// MaxWait is the maximum total wait per job before it is marked
	// TIMED_OUT. Staging can legitimately take hours.
	MaxWait time.Duration `json:"max_wait" yaml:"max_wait"`

	// MaxPollRetries is the number of consecutive transient poll failures
	// tolerated before a job is marked ERROR (default 5).
	MaxPollRetries int `json:"max_poll_retries" yaml:"max_poll_retries"`

	// Workers bounds the number of jobs polled concurrently (default 4).
	Workers int `json:"workers" yaml:"workers"`
}

// DownloadConfig holds settings for artifact retrieval.
type DownloadConfig struct {
	HTTPConfig `yaml:",inline"`

	// ScratchDir is the base directory for downloaded artifacts,
	// partitioned into one subdirectory per candidate.
	ScratchDir string `json:"scratch_dir" yaml:"scratch_dir"`

	// MaxRetries is the number of re-download attempts per artifact
	// (default 3); applies to both transport failures and integrity
	// mismatches.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// Workers bounds the number of concurrent downloads (default 2).
	Workers int `json:"workers" yaml:"workers"`
}

// MosaicConfig holds settings for the external mosaicking tool.
type MosaicConfig struct {
	// OutputDir is the directory for the final mosaic, weight file, and
	// generated tool config.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// Filename is the output mosaic filename (default "mosaic.fits").
	Filename string `json:"filename" yaml:"filename"`

	// Binary is the linmos binary name when running locally (default "linmos").
	Binary string `json:"binary" yaml:"binary"`

	// Image is the container image (or .sif path) holding the tool when
	// running containerized.
	Image string `json:"image" yaml:"image"`

	// Containerized selects container execution over a local binary.
	Containerized bool `json:"containerized" yaml:"containerized"`
}

// PipelineConfig groups all stage configurations for one run.
type PipelineConfig struct {
	Archive  ArchiveConfig  `json:"archive" yaml:"archive"`
	Staging  StagingConfig  `json:"staging" yaml:"staging"`
	Download DownloadConfig `json:"download" yaml:"download"`
	Mosaic   MosaicConfig   `json:"mosaic" yaml:"mosaic"`

	// Budget is the overall wall-clock budget for the run; zero means
	// unlimited. On expiry, outstanding staging and downloads are
	// cancelled and the mosaic proceeds from whatever completed.
	Budget time.Duration `json:"budget" yaml:"budget"`

	// LedgerPath is the sqlite run-ledger location; empty disables the ledger.
	LedgerPath string `json:"ledger_path" yaml:"ledger_path"`
}
