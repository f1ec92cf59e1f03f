// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// SpectralBasis tags which axis a spectral range was supplied on.
type SpectralBasis string

const (
	BasisFrequency SpectralBasis = "frequency"
	BasisVelocity  SpectralBasis = "velocity"
)

// Region is a circular sky region: centre in degrees (ICRS), radius in
// arcminutes.
type Region struct {
	RA     float64 `yaml:"ra"`
	Dec    float64 `yaml:"dec"`
	Radius float64 `yaml:"radius"`
}

// Validate checks the coordinate ranges and radius.
func (r Region) Validate() error {
	if r.RA < 0 || r.RA >= 360 {
		return fmt.Errorf("%w: ra %g out of range [0, 360)", ErrInvalidRegion, r.RA)
	}
	if r.Dec < -90 || r.Dec > 90 {
		return fmt.Errorf("%w: dec %g out of range [-90, 90]", ErrInvalidRegion, r.Dec)
	}
	if r.Radius <= 0 {
		return fmt.Errorf("%w: radius %g must be positive", ErrInvalidRegion, r.Radius)
	}
	return nil
}

// SpectralInterval is a frequency interval in Hz, low < high. Basis records
// which axis the user supplied the range on, so a run can be reproduced even
// though velocity ranges are converted to frequency before querying.
type SpectralInterval struct {
	LowHz  float64       `yaml:"low_hz"`
	HighHz float64       `yaml:"high_hz"`
	Basis  SpectralBasis `yaml:"basis"`
}

// Validate checks interval ordering.
func (s SpectralInterval) Validate() error {
	if s.LowHz <= 0 || s.LowHz >= s.HighHz {
		return fmt.Errorf("%w: interval [%g, %g] Hz", ErrAmbiguousSpectralRange, s.LowHz, s.HighHz)
	}
	return nil
}
