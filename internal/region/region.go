// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package region turns a name-or-coordinates input plus radius and spectral
// range into a canonical query region and frequency interval.
package region

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"sort"

	"github.com/askap-tools/casda-mosaic/pkg/types"
)

// sesameBase is the CDS Sesame name-resolution endpoint. Declared as a var
// so tests can substitute an httptest server.
var sesameBase = "https://cds.unistra.fr/cgi-bin/nph-sesame/-ox"

// HIRestFreqHz is the rest frequency of the 21 cm hydrogen line.
const HIRestFreqHz = 1.420405751786e9

// cKMS is the speed of light in km/s.
const cKMS = 299792.458

// Params is the raw user input. Exactly one of Name or (RA, Dec) selects
// the centre, and exactly one of FreqMHz or VelKMS selects the spectral
// range.
type Params struct {
	Name    string
	RA, Dec *float64 // degrees
	Radius  float64  // arcmin
	FreqMHz []float64
	VelKMS  []float64 // km/s, radio convention against the HI line
}

// Resolve produces the canonical Region and SpectralInterval for the input.
// Name resolution failures are not retried: they are user errors, not
// transient ones.
func Resolve(ctx context.Context, client *http.Client, p Params, cfg types.HTTPConfig) (types.Region, types.SpectralInterval, error) {
	var r types.Region
	switch {
	case p.Name != "":
		ra, dec, err := ResolveName(ctx, client, p.Name, cfg)
		if err != nil {
			return types.Region{}, types.SpectralInterval{}, fmt.Errorf("resolving %q: %w", p.Name, err)
		}
		r = types.Region{RA: ra, Dec: dec, Radius: p.Radius}
	case p.RA != nil && p.Dec != nil:
		r = types.Region{RA: *p.RA, Dec: *p.Dec, Radius: p.Radius}
	default:
		return types.Region{}, types.SpectralInterval{},
			fmt.Errorf("%w: either a name or both ra and dec are required", types.ErrInvalidRegion)
	}
	if err := r.Validate(); err != nil {
		return types.Region{}, types.SpectralInterval{}, err
	}

	s, err := SpectralIntervalFor(p.FreqMHz, p.VelKMS)
	if err != nil {
		return types.Region{}, types.SpectralInterval{}, err
	}
	return r, s, nil
}

// SpectralIntervalFor converts the supplied range to a canonical frequency
// interval in Hz. Exactly one of freqMHz or velKMS must hold two values.
func SpectralIntervalFor(freqMHz, velKMS []float64) (types.SpectralInterval, error) {
	switch {
	case len(freqMHz) == 2 && len(velKMS) == 0:
		lo, hi := freqMHz[0]*1e6, freqMHz[1]*1e6
		if lo > hi {
			lo, hi = hi, lo
		}
		s := types.SpectralInterval{LowHz: lo, HighHz: hi, Basis: types.BasisFrequency}
		return s, s.Validate()
	case len(velKMS) == 2 && len(freqMHz) == 0:
		// Radio convention: higher velocity maps to lower frequency, so
		// the converted bounds are sorted.
		f := []float64{FrequencyForVelocity(velKMS[0]), FrequencyForVelocity(velKMS[1])}
		sort.Float64s(f)
		s := types.SpectralInterval{LowHz: f[0], HighHz: f[1], Basis: types.BasisVelocity}
		return s, s.Validate()
	default:
		return types.SpectralInterval{},
			fmt.Errorf("%w: exactly one of a frequency or velocity range is required", types.ErrAmbiguousSpectralRange)
	}
}

// FrequencyForVelocity converts a radial velocity in km/s to an observed
// frequency in Hz using the radio definition: f = f0 * (1 - v/c).
func FrequencyForVelocity(velKMS float64) float64 {
	return HIRestFreqHz * (1 - velKMS/cKMS)
}

// VelocityForFrequency is the inverse conversion: v = c * (1 - f/f0).
func VelocityForFrequency(freqHz float64) float64 {
	return cKMS * (1 - freqHz/HIRestFreqHz)
}

// Sesame XML response structures. Only the decimal-degree fields are used.
type sesameResponse struct {
	Targets []sesameTarget `xml:"Target"`
}

type sesameTarget struct {
	Resolvers []sesameResolver `xml:"Resolver"`
}

type sesameResolver struct {
	RA  *float64 `xml:"jradeg"`
	Dec *float64 `xml:"jdedeg"`
}

// ResolveName maps a source name to ICRS coordinates via the Sesame service.
func ResolveName(ctx context.Context, client *http.Client, name string, cfg types.HTTPConfig) (ra, dec float64, err error) {
	u := sesameBase + "?" + url.Values{"obj": {name}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("name resolver request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("name resolver returned HTTP %d", resp.StatusCode)
	}

	var sr sesameResponse
	if err := xml.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return 0, 0, fmt.Errorf("parsing resolver response: %w", err)
	}

	for _, t := range sr.Targets {
		for _, res := range t.Resolvers {
			if res.RA != nil && res.Dec != nil {
				return *res.RA, *res.Dec, nil
			}
		}
	}
	return 0, 0, fmt.Errorf("no coordinates found for %q", name)
}
