// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package mosaic assembles the input manifest for the linmos mosaicking
// tool, invokes it, and validates its output.
package mosaic

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/askap-tools/casda-mosaic/pkg/types"
)

// ConfigFilename is the tool config written next to the outputs, kept for
// auditability.
const ConfigFilename = "linmos.conf"

// Build assembles a manifest from the artifact pairs that survived staging
// and download. Pairs stay keyed by obs_id and are ordered by it, so the
// manifest is identical across runs with the same surviving candidates.
func Build(pairs []types.ArtifactPair, outputBase string) (types.MosaicManifest, error) {
	if len(pairs) == 0 {
		return types.MosaicManifest{}, types.ErrEmptyMosaic
	}
	if outputBase == "" {
		return types.MosaicManifest{}, fmt.Errorf("manifest needs an output base name")
	}

	ordered := make([]types.ArtifactPair, len(pairs))
	copy(ordered, pairs)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ObsID < ordered[j].ObsID })

	return types.MosaicManifest{
		Pairs:       ordered,
		OutputBase:  outputBase,
		WeightType:  types.WeightFromImages,
		WeightState: types.WeightStateCorrected,
	}, nil
}

// OutputBaseForRegion derives a default output name when the user did not
// supply one.
func OutputBaseForRegion(r types.Region) string {
	return fmt.Sprintf("mosaic_%.4f_%.4f", r.RA, r.Dec)
}

// OutputPaths returns the mosaic image and weight paths for a manifest.
// The weight file carries the "weights." prefix linmos expects.
func OutputPaths(outputDir string, m types.MosaicManifest) (image, weight string) {
	image = filepath.Join(outputDir, m.OutputBase+".fits")
	weight = filepath.Join(outputDir, "weights."+m.OutputBase+".fits")
	return image, weight
}

// WriteConfig serializes the manifest into a linmos parset at path. Linmos
// takes image paths without their .fits suffix; the original archive
// filenames go into the image history so the mosaic records its inputs.
func WriteConfig(m types.MosaicManifest, outputDir, path string) error {
	images := make([]string, 0, len(m.Pairs))
	weights := make([]string, 0, len(m.Pairs))
	history := make([]string, 0, 2*len(m.Pairs))
	for _, p := range m.Pairs {
		images = append(images, stripSuffix(p.Image.Path))
		weights = append(weights, stripSuffix(p.Weight.Path))
	}
	for _, p := range m.Pairs {
		history = append(history, p.Image.SourceFilename)
	}
	for _, p := range m.Pairs {
		history = append(history, p.Weight.SourceFilename)
	}

	imageOut, weightOut := OutputPaths(outputDir, m)

	var b strings.Builder
	writeList(&b, "linmos.names", images)
	writeList(&b, "linmos.weights", weights)
	fmt.Fprintf(&b, "linmos.imagetype    = fits\n")
	fmt.Fprintf(&b, "linmos.outname      = %s\n", stripSuffix(imageOut))
	fmt.Fprintf(&b, "linmos.outweight    = %s\n", stripSuffix(weightOut))
	fmt.Fprintf(&b, "linmos.weighttype   = %s\n", m.WeightType)
	fmt.Fprintf(&b, "linmos.weightstate  = %s\n", m.WeightState)
	writeList(&b, "linmos.imagehistory", history)

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("writing linmos config: %w", err)
	}
	return nil
}

func writeList(b *strings.Builder, key string, items []string) {
	fmt.Fprintf(b, "%-20s= [%s]\n", key+" ", strings.Join(items, ","))
}

func stripSuffix(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}
