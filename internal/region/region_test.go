// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package region

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askap-tools/casda-mosaic/pkg/types"
)

func floatPtr(f float64) *float64 { return &f }

const sesameXML = `<?xml version="1.0"?>
<Sesame>
  <Target option="SNV">
    <name>NGC 5044</name>
    <Resolver name="S=Simbad">
      <jradeg>198.849958</jradeg>
      <jdedeg>-16.385306</jdedeg>
    </Resolver>
  </Target>
</Sesame>`

func TestResolve_Coordinates(t *testing.T) {
	p := Params{
		RA:      floatPtr(197.24113),
		Dec:     floatPtr(-15.51682),
		Radius:  85.9434683,
		FreqMHz: []float64{1400, 1420},
	}

	r, s, err := Resolve(context.Background(), http.DefaultClient, p, types.HTTPConfig{})
	require.NoError(t, err)

	assert.Equal(t, 197.24113, r.RA)
	assert.Equal(t, -15.51682, r.Dec)
	assert.Equal(t, 85.9434683, r.Radius)
	assert.Equal(t, 1.4e9, s.LowHz)
	assert.Equal(t, 1.42e9, s.HighHz)
	assert.Equal(t, types.BasisFrequency, s.Basis)
}

func TestResolve_NameMatchesCoordinates(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "NGC 5044", r.URL.Query().Get("obj"))
		w.Write([]byte(sesameXML))
	}))
	defer ts.Close()

	old := sesameBase
	sesameBase = ts.URL
	defer func() { sesameBase = old }()

	byName, s1, err := Resolve(context.Background(), ts.Client(), Params{
		Name:    "NGC 5044",
		Radius:  30,
		FreqMHz: []float64{1400, 1420},
	}, types.HTTPConfig{})
	require.NoError(t, err)

	byCoords, s2, err := Resolve(context.Background(), ts.Client(), Params{
		RA:      floatPtr(198.849958),
		Dec:     floatPtr(-16.385306),
		Radius:  30,
		FreqMHz: []float64{1400, 1420},
	}, types.HTTPConfig{})
	require.NoError(t, err)

	assert.Equal(t, byCoords, byName)
	assert.Equal(t, s2, s1)
}

func TestResolve_NameNotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// Sesame answers 200 with no Resolver elements for unknown names.
		w.Write([]byte(`<?xml version="1.0"?><Sesame><Target></Target></Sesame>`))
	}))
	defer ts.Close()

	old := sesameBase
	sesameBase = ts.URL
	defer func() { sesameBase = old }()

	_, _, err := Resolve(context.Background(), ts.Client(), Params{
		Name:    "NGC 99999",
		Radius:  30,
		FreqMHz: []float64{1400, 1420},
	}, types.HTTPConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NGC 99999")
}

func TestResolve_Invalid(t *testing.T) {
	tests := []struct {
		name string
		p    Params
		want error
	}{
		{
			name: "no centre",
			p:    Params{Radius: 30, FreqMHz: []float64{1400, 1420}},
			want: types.ErrInvalidRegion,
		},
		{
			name: "ra out of range",
			p:    Params{RA: floatPtr(400), Dec: floatPtr(0), Radius: 30, FreqMHz: []float64{1400, 1420}},
			want: types.ErrInvalidRegion,
		},
		{
			name: "dec out of range",
			p:    Params{RA: floatPtr(10), Dec: floatPtr(-95), Radius: 30, FreqMHz: []float64{1400, 1420}},
			want: types.ErrInvalidRegion,
		},
		{
			name: "zero radius",
			p:    Params{RA: floatPtr(10), Dec: floatPtr(0), Radius: 0, FreqMHz: []float64{1400, 1420}},
			want: types.ErrInvalidRegion,
		},
		{
			name: "no spectral range",
			p:    Params{RA: floatPtr(10), Dec: floatPtr(0), Radius: 30},
			want: types.ErrAmbiguousSpectralRange,
		},
		{
			name: "both spectral ranges",
			p: Params{
				RA: floatPtr(10), Dec: floatPtr(0), Radius: 30,
				FreqMHz: []float64{1400, 1420}, VelKMS: []float64{950, 1550},
			},
			want: types.ErrAmbiguousSpectralRange,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Resolve(context.Background(), http.DefaultClient, tt.p, types.HTTPConfig{})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSpectralIntervalFor_VelocityOrdering(t *testing.T) {
	// Higher velocity maps to lower frequency; the interval must still come
	// out low < high regardless of the order the bounds were given in.
	asc, err := SpectralIntervalFor(nil, []float64{950, 1550})
	require.NoError(t, err)
	desc, err := SpectralIntervalFor(nil, []float64{1550, 950})
	require.NoError(t, err)

	assert.Equal(t, asc, desc)
	assert.Less(t, asc.LowHz, asc.HighHz)
	assert.Equal(t, types.BasisVelocity, asc.Basis)

	// v = 1550 km/s is the low-frequency edge.
	assert.InDelta(t, FrequencyForVelocity(1550), asc.LowHz, 1)
	assert.InDelta(t, FrequencyForVelocity(950), asc.HighHz, 1)
}

func TestSpectralIntervalFor_FrequencySwapped(t *testing.T) {
	s, err := SpectralIntervalFor([]float64{1420, 1400}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1.4e9, s.LowHz)
	assert.Equal(t, 1.42e9, s.HighHz)
}

func TestVelocityFrequencyRoundTrip(t *testing.T) {
	for _, v := range []float64{-300, 0, 950, 1550, 10000} {
		got := VelocityForFrequency(FrequencyForVelocity(v))
		assert.InDelta(t, v, got, 1e-6)
	}
	// The rest frequency corresponds to zero velocity.
	assert.True(t, math.Abs(VelocityForFrequency(HIRestFreqHz)) < 1e-9)
}
