// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/askap-tools/casda-mosaic/internal/mosaic"
	"github.com/askap-tools/casda-mosaic/pkg/log"
	"github.com/askap-tools/casda-mosaic/pkg/types"
)

var mosaicCmd = &cobra.Command{
	Use:   "mosaic",
	Short: "Assemble and run linmos on already-downloaded cutouts",
	Long: `Mosaic scans the scratch directory for per-candidate image/weight
pairs left by a previous fetch, writes the linmos config, runs the tool,
and validates its output.`,
	RunE: runMosaic,
}

func init() {
	mosaicCmd.Flags().String("scratch", "scratch", "scratch directory holding downloaded cutouts")
	mosaicCmd.Flags().String("output", "output", "output directory for the mosaic and weights")
	mosaicCmd.Flags().String("filename", "mosaic.fits", "output mosaic filename")
	mosaicCmd.Flags().Bool("container", false, "run linmos inside a container instead of locally")
	mosaicCmd.Flags().String("image", "docker://csirocass/askapsoft:1.15.0", "linmos container image (or .sif path)")
	mosaicCmd.Flags().String("binary", "linmos", "linmos binary name")

	rootCmd.AddCommand(mosaicCmd)
}

func runMosaic(cmd *cobra.Command, args []string) error {
	verbose, _ := rootCmd.PersistentFlags().GetBool("verbose")
	logger := log.New(verbose)
	defer logger.Sync()

	scratch, _ := cmd.Flags().GetString("scratch")
	output, _ := cmd.Flags().GetString("output")
	filename, _ := cmd.Flags().GetString("filename")

	pairs, err := scanScratch(scratch)
	if err != nil {
		return err
	}

	manifest, err := mosaic.Build(pairs, outputBaseFor(filename))
	if err != nil {
		return err
	}

	tool, err := buildTool(cmd, scratch)
	if err != nil {
		return err
	}

	runner := &mosaic.Runner{Tool: tool, Log: logger}
	result, err := runner.Run(cmd.Context(), manifest, output)
	if err != nil {
		return err
	}

	fmt.Printf("Mosaic image written to %s\n", result.ImagePath)
	fmt.Printf("Mosaic weights written to %s\n", result.WeightPath)
	return nil
}

// scanScratch rebuilds artifact pairs from the per-candidate scratch
// layout: <scratch>/<obs_id>/<obs_id>.{image,weight}.fits.
func scanScratch(scratch string) ([]types.ArtifactPair, error) {
	entries, err := os.ReadDir(scratch)
	if err != nil {
		return nil, fmt.Errorf("reading scratch directory %s: %w", scratch, err)
	}

	var pairs []types.ArtifactPair
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		obsID := entry.Name()
		image := filepath.Join(scratch, obsID, obsID+".image.fits")
		weight := filepath.Join(scratch, obsID, obsID+".weight.fits")

		imageInfo, err := os.Stat(image)
		if err != nil {
			continue
		}
		weightInfo, err := os.Stat(weight)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: %s has an image but no weight, skipping\n", obsID)
			continue
		}
		pairs = append(pairs, types.ArtifactPair{
			ObsID:  obsID,
			Image:  types.LocalArtifact{Path: image, Size: imageInfo.Size(), SourceFilename: filepath.Base(image)},
			Weight: types.LocalArtifact{Path: weight, Size: weightInfo.Size(), SourceFilename: filepath.Base(weight)},
		})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].ObsID < pairs[j].ObsID })

	if len(pairs) == 0 {
		return nil, fmt.Errorf("%w: no image/weight pairs under %s", types.ErrEmptyMosaic, scratch)
	}
	return pairs, nil
}
