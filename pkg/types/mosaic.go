// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// LocalArtifact is a downloaded cutout file. Size and MD5 are the verified
// on-disk values; SourceFilename is the archive-side filename kept for the
// mosaic image history.
type LocalArtifact struct {
	Path           string `yaml:"path"`
	Size           int64  `yaml:"size"`
	MD5            string `yaml:"md5,omitempty"`
	SourceFilename string `yaml:"source_filename"`
}

// ArtifactPair is the image/weight pair for one candidate, keyed by obs_id.
// Pairing is by identifier, never by position in a sequence.
type ArtifactPair struct {
	ObsID  string        `yaml:"obs_id"`
	Image  LocalArtifact `yaml:"image"`
	Weight LocalArtifact `yaml:"weight"`
}

// Linmos weighting defaults: inverse-variance from the weight images, with
// the primary-beam correction already applied.
const (
	WeightFromImages     = "FromWeightImages"
	WeightStateCorrected = "Corrected"
)

// MosaicManifest is the input handed to the mosaicking tool: an ordered set
// of image/weight pairs plus output naming and weighting mode.
type MosaicManifest struct {
	Pairs       []ArtifactPair `yaml:"pairs"`
	OutputBase  string         `yaml:"output_base"`
	WeightType  string         `yaml:"weight_type"`
	WeightState string         `yaml:"weight_state"`
}

// MosaicResult is the validated output of a mosaic run.
type MosaicResult struct {
	ImagePath  string `yaml:"image"`
	WeightPath string `yaml:"weight"`
	ExitCode   int    `yaml:"exit_code"`
	LogTail    string `yaml:"log_tail,omitempty"`
}
