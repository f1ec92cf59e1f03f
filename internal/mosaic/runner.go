// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package mosaic

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/askap-tools/casda-mosaic/internal/container"
	"github.com/askap-tools/casda-mosaic/pkg/types"
)

// logTailBytes bounds how much tool output is carried in errors and results.
const logTailBytes = 4096

// Invoker runs the mosaicking tool against a written config file. The two
// implementations cover a local linmos binary and a containerized one;
// tests use fakes.
type Invoker interface {
	Invoke(ctx context.Context, configPath string, output io.Writer) error
}

// LocalTool invokes linmos directly on the host.
type LocalTool struct {
	Binary string
}

func (t *LocalTool) Invoke(ctx context.Context, configPath string, output io.Writer) error {
	bin := t.Binary
	if bin == "" {
		bin = "linmos"
	}
	cmd := exec.CommandContext(ctx, bin, "-c", configPath)
	cmd.Stdout = output
	cmd.Stderr = output
	return cmd.Run()
}

// ContainerTool invokes linmos inside a container image with the work
// directory bind-mounted.
type ContainerTool struct {
	Runtime container.Runtime
	Image   string
	Bind    string
	Binary  string
}

func (t *ContainerTool) Invoke(ctx context.Context, configPath string, output io.Writer) error {
	if err := t.Runtime.ImageExists(t.Image); err != nil {
		return err
	}
	bin := t.Binary
	if bin == "" {
		bin = "linmos"
	}
	return t.Runtime.Exec(ctx, t.Image, t.Bind, []string{bin, "-c", configPath}, output)
}

// Runner writes the tool config, invokes the tool, and validates that the
// expected outputs actually exist. The tool's exit code is not fully
// trusted: a zero exit with missing or empty outputs is still a failure.
type Runner struct {
	Tool Invoker
	Log  *zap.SugaredLogger
}

// Run executes the manifest and returns the validated result.
func (r *Runner) Run(ctx context.Context, m types.MosaicManifest, outputDir string) (types.MosaicResult, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return types.MosaicResult{}, fmt.Errorf("creating output directory: %w", err)
	}

	configPath := filepath.Join(outputDir, ConfigFilename)
	if err := WriteConfig(m, outputDir, configPath); err != nil {
		return types.MosaicResult{}, err
	}

	imagePath, weightPath := OutputPaths(outputDir, m)
	r.Log.Infow("running mosaic tool", "config", configPath, "inputs", len(m.Pairs))

	var logBuf bytes.Buffer
	err := r.Tool.Invoke(ctx, configPath, &logBuf)
	result := types.MosaicResult{
		ImagePath:  imagePath,
		WeightPath: weightPath,
		LogTail:    tail(logBuf.Bytes()),
	}
	if err != nil {
		result.ExitCode = exitCode(err)
		return result, fmt.Errorf("%w (exit %d): %s", types.ErrMosaicToolFailed, result.ExitCode, result.LogTail)
	}

	for _, path := range []string{imagePath, weightPath} {
		info, statErr := os.Stat(path)
		if statErr != nil || info.Size() == 0 {
			return result, fmt.Errorf("%w: %s", types.ErrMosaicOutputMissing, path)
		}
	}
	return result, nil
}

func tail(b []byte) string {
	if len(b) > logTailBytes {
		b = b[len(b)-logTailBytes:]
	}
	return string(b)
}

func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
