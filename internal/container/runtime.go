// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package container implements container runtime detection and execution
// for the mosaicking tool image.
package container

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
)

const (
	binDocker      = "docker"
	binPodman      = "podman"
	binSingularity = "singularity"
)

// Runtime provides container operations: checking availability, verifying
// images, and executing a command inside a container with the scratch
// directory bind-mounted.
type Runtime interface {
	// Name returns the runtime name ("docker", "podman" or "singularity").
	Name() string

	// Available reports whether the runtime binary exists on PATH and
	// responds to a probe command.
	Available() bool

	// ImageExists checks whether the image is usable: present locally
	// for docker/podman, an existing .sif file for singularity.
	ImageExists(image string) error

	// Exec runs args inside the image with bind mounted read-write,
	// writing combined output to output.
	Exec(ctx context.Context, image, bind string, args []string, output io.Writer) error
}

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	RunSilent(name string, args ...string) error
	RunOutput(ctx context.Context, name string, args []string, output io.Writer) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) RunSilent(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

func (o *osExecutor) RunOutput(ctx context.Context, name string, args []string, output io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = output
	cmd.Stderr = output
	return cmd.Run()
}

// ociRuntime implements Runtime for docker and podman, which share the same
// CLI surface; they differ only in binary name and the image check
// subcommand.
type ociRuntime struct {
	bin           string
	imageCheckCmd []string
	exec          executor
}

func (r *ociRuntime) Name() string { return r.bin }

func (r *ociRuntime) Available() bool {
	if _, err := r.exec.LookPath(r.bin); err != nil {
		return false
	}
	return r.exec.RunSilent(r.bin, "info") == nil
}

func (r *ociRuntime) ImageExists(image string) error {
	args := make([]string, 0, len(r.imageCheckCmd)+1)
	args = append(args, r.imageCheckCmd...)
	args = append(args, image)

	if err := r.exec.RunSilent(r.bin, args...); err != nil {
		return fmt.Errorf("image %s not found in %s: %w", image, r.bin, err)
	}
	return nil
}

func (r *ociRuntime) Exec(ctx context.Context, image, bind string, args []string, output io.Writer) error {
	full := []string{"run", "--rm", "-v", bind + ":" + bind, image}
	full = append(full, args...)
	if err := r.exec.RunOutput(ctx, r.bin, full, output); err != nil {
		return fmt.Errorf("running %s container %s: %w", r.bin, image, err)
	}
	return nil
}

// singularityRuntime executes inside a .sif image, the usual setup on HPC
// nodes where docker is unavailable.
type singularityRuntime struct {
	exec executor
	stat func(string) (os.FileInfo, error)
}

func (r *singularityRuntime) Name() string { return binSingularity }

func (r *singularityRuntime) Available() bool {
	if _, err := r.exec.LookPath(binSingularity); err != nil {
		return false
	}
	return r.exec.RunSilent(binSingularity, "version") == nil
}

func (r *singularityRuntime) ImageExists(image string) error {
	if _, err := r.stat(image); err != nil {
		return fmt.Errorf("container image not found at %s: %w", image, err)
	}
	return nil
}

func (r *singularityRuntime) Exec(ctx context.Context, image, bind string, args []string, output io.Writer) error {
	full := []string{"exec", "--bind", bind + ":" + bind, image}
	full = append(full, args...)
	if err := r.exec.RunOutput(ctx, binSingularity, full, output); err != nil {
		return fmt.Errorf("running singularity image %s: %w", image, err)
	}
	return nil
}

func newDockerRuntime(exec executor) *ociRuntime {
	return &ociRuntime{
		bin:           binDocker,
		imageCheckCmd: []string{"image", "inspect"},
		exec:          exec,
	}
}

func newPodmanRuntime(exec executor) *ociRuntime {
	return &ociRuntime{
		bin:           binPodman,
		imageCheckCmd: []string{"image", "exists"},
		exec:          exec,
	}
}

func newSingularityRuntime(exec executor) *singularityRuntime {
	return &singularityRuntime{exec: exec, stat: os.Stat}
}

var defaultExec = &osExecutor{}

// DetectRuntime tries docker, then podman, then singularity. Returns an
// error if none is available.
func DetectRuntime() (Runtime, error) {
	return detectRuntime(defaultExec)
}

func detectRuntime(exec executor) (Runtime, error) {
	for _, rt := range []Runtime{
		newDockerRuntime(exec),
		newPodmanRuntime(exec),
		newSingularityRuntime(exec),
	} {
		if rt.Available() {
			return rt, nil
		}
	}
	return nil, fmt.Errorf(
		"no container runtime available: none of %s, %s, %s found or operational",
		binDocker, binPodman, binSingularity,
	)
}
