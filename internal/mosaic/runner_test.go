// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package mosaic

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askap-tools/casda-mosaic/pkg/log"
	"github.com/askap-tools/casda-mosaic/pkg/types"
)

// fakeTool simulates linmos: it can write the expected outputs, skip them,
// or fail outright, and always records what it was invoked with.
type fakeTool struct {
	writeOutputs bool
	err          error
	output       string

	configPath string
}

func (f *fakeTool) Invoke(_ context.Context, configPath string, output io.Writer) error {
	f.configPath = configPath
	io.WriteString(output, f.output)
	if f.writeOutputs {
		dir := filepath.Dir(configPath)
		base := "mosaic_out"
		os.WriteFile(filepath.Join(dir, base+".fits"), []byte("mosaic"), 0o644)
		os.WriteFile(filepath.Join(dir, "weights."+base+".fits"), []byte("weights"), 0o644)
	}
	return f.err
}

func testManifest(t *testing.T) types.MosaicManifest {
	t.Helper()
	m, err := Build([]types.ArtifactPair{pair("10609", "scratch")}, "mosaic_out")
	require.NoError(t, err)
	return m
}

func TestRunner_Success(t *testing.T) {
	tool := &fakeTool{writeOutputs: true, output: "linmos: all good\n"}
	r := &Runner{Tool: tool, Log: log.Nop()}
	dir := t.TempDir()

	result, err := r.Run(context.Background(), testManifest(t), dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "mosaic_out.fits"), result.ImagePath)
	assert.Equal(t, filepath.Join(dir, "weights.mosaic_out.fits"), result.WeightPath)
	assert.Contains(t, result.LogTail, "all good")

	// The config the tool ran against is kept next to the outputs.
	assert.Equal(t, filepath.Join(dir, ConfigFilename), tool.configPath)
	_, statErr := os.Stat(tool.configPath)
	assert.NoError(t, statErr)
}

func TestRunner_ToolFailure(t *testing.T) {
	tool := &fakeTool{err: errors.New("boom"), output: "linmos: cannot read input\n"}
	r := &Runner{Tool: tool, Log: log.Nop()}

	result, err := r.Run(context.Background(), testManifest(t), t.TempDir())
	assert.ErrorIs(t, err, types.ErrMosaicToolFailed)
	assert.Contains(t, err.Error(), "cannot read input")
	assert.Equal(t, -1, result.ExitCode)
}

func TestRunner_ZeroExitMissingOutputs(t *testing.T) {
	// A clean exit without outputs must not pass for success.
	tool := &fakeTool{writeOutputs: false}
	r := &Runner{Tool: tool, Log: log.Nop()}

	_, err := r.Run(context.Background(), testManifest(t), t.TempDir())
	assert.ErrorIs(t, err, types.ErrMosaicOutputMissing)
}

func TestRunner_EmptyOutputIsMissing(t *testing.T) {
	dir := t.TempDir()
	// The tool writes the image but leaves the weight empty.
	tool := &emptyWeightTool{}
	r := &Runner{Tool: tool, Log: log.Nop()}

	_, err := r.Run(context.Background(), testManifest(t), dir)
	assert.ErrorIs(t, err, types.ErrMosaicOutputMissing)
}

type emptyWeightTool struct{}

func (*emptyWeightTool) Invoke(_ context.Context, configPath string, _ io.Writer) error {
	dir := filepath.Dir(configPath)
	os.WriteFile(filepath.Join(dir, "mosaic_out.fits"), []byte("mosaic"), 0o644)
	os.WriteFile(filepath.Join(dir, "weights.mosaic_out.fits"), nil, 0o644)
	return nil
}

func TestTail(t *testing.T) {
	short := []byte("short log")
	assert.Equal(t, "short log", tail(short))

	long := make([]byte, logTailBytes+100)
	for i := range long {
		long[i] = 'a'
	}
	copy(long[len(long)-4:], "END!")
	got := tail(long)
	assert.Len(t, got, logTailBytes)
	assert.True(t, len(got) >= 4 && got[len(got)-4:] == "END!")
}
