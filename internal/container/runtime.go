// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package container detects a container runtime (docker or podman) and
// manages long-running containers for office conversion: start detached,
// exec commands inside, remove.
package container

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const (
	binDocker = "docker"
	binPodman = "podman"
)

// ProbeTimeout bounds the short runtime queries: info, image checks,
// inspect and remove. A wedged daemon fails them instead of hanging the run.
var ProbeTimeout = 20 * time.Second

// Spec describes a detached container.
type Spec struct {
	// Image is the image reference.
	Image string
	// Entrypoint overrides the image entrypoint when set.
	Entrypoint string
	// Args are passed to the entrypoint.
	Args []string
	// Mounts are host directories bind-mounted at the same path inside the
	// container, so absolute host paths stay valid in exec'd commands.
	Mounts []string
}

// Runtime provides container operations: checking availability, verifying
// images, and running long-lived containers.
type Runtime interface {
	// Name returns the runtime name ("docker" or "podman").
	Name() string

	// Available reports whether the runtime binary exists on PATH and
	// responds to an info command.
	Available(ctx context.Context) bool

	// ImageExists checks whether the named image exists locally.
	// Returns nil when the image is found, or an error describing the failure.
	ImageExists(ctx context.Context, image string) error

	// Start runs a detached container and returns its ID.
	Start(ctx context.Context, spec Spec) (string, error)

	// Exec runs a command in a running container and returns its combined
	// output.
	Exec(ctx context.Context, id string, args ...string) ([]byte, error)

	// Running reports whether the container is still up.
	Running(ctx context.Context, id string) bool

	// Remove force-removes the container.
	Remove(ctx context.Context, id string) error
}

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	RunSilent(ctx context.Context, name string, args ...string) error
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) RunSilent(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

func (o *osExecutor) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.Bytes(), err
}

// runtime implements Runtime for a specific container binary. Both Docker
// and Podman share the same logic; they differ only in binary name and the
// subcommand used to check image existence.
type runtime struct {
	bin           string
	imageCheckCmd []string // e.g. ["image", "inspect"] for docker
	exec          executor
}

func (r *runtime) Name() string { return r.bin }

func (r *runtime) Available(ctx context.Context) bool {
	if _, err := r.exec.LookPath(r.bin); err != nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, ProbeTimeout)
	defer cancel()
	return r.exec.RunSilent(ctx, r.bin, "info") == nil
}

func (r *runtime) ImageExists(ctx context.Context, image string) error {
	args := make([]string, 0, len(r.imageCheckCmd)+1)
	args = append(args, r.imageCheckCmd...)
	args = append(args, image)

	ctx, cancel := context.WithTimeout(ctx, ProbeTimeout)
	defer cancel()
	if err := r.exec.RunSilent(ctx, r.bin, args...); err != nil {
		return fmt.Errorf("image %s not found in %s: %w", image, r.bin, err)
	}
	return nil
}

func (r *runtime) Start(ctx context.Context, spec Spec) (string, error) {
	args := []string{"run", "-d", "--rm"}
	for _, m := range spec.Mounts {
		args = append(args, "-v", m+":"+m)
	}
	if spec.Entrypoint != "" {
		args = append(args, "--entrypoint", spec.Entrypoint)
	}
	args = append(args, spec.Image)
	args = append(args, spec.Args...)

	out, err := r.exec.Output(ctx, r.bin, args...)
	if err != nil {
		return "", fmt.Errorf("starting %s container %s: %w: %s", r.bin, spec.Image, err, strings.TrimSpace(string(out)))
	}
	id := lastLine(out)
	if id == "" {
		return "", fmt.Errorf("starting %s container %s: no container ID returned", r.bin, spec.Image)
	}
	return id, nil
}

func (r *runtime) Exec(ctx context.Context, id string, args ...string) ([]byte, error) {
	full := append([]string{"exec", id}, args...)
	out, err := r.exec.Output(ctx, r.bin, full...)
	if err != nil {
		return out, fmt.Errorf("exec in %s container %s: %w", r.bin, shortID(id), err)
	}
	return out, nil
}

func (r *runtime) Running(ctx context.Context, id string) bool {
	ctx, cancel := context.WithTimeout(ctx, ProbeTimeout)
	defer cancel()
	out, err := r.exec.Output(ctx, r.bin, "inspect", "-f", "{{.State.Running}}", id)
	return err == nil && lastLine(out) == "true"
}

func (r *runtime) Remove(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, ProbeTimeout)
	defer cancel()
	if err := r.exec.RunSilent(ctx, r.bin, "rm", "-f", id); err != nil {
		return fmt.Errorf("removing %s container %s: %w", r.bin, shortID(id), err)
	}
	return nil
}

func newDockerRuntime(exec executor) *runtime {
	return &runtime{
		bin:           binDocker,
		imageCheckCmd: []string{"image", "inspect"},
		exec:          exec,
	}
}

func newPodmanRuntime(exec executor) *runtime {
	return &runtime{
		bin:           binPodman,
		imageCheckCmd: []string{"image", "exists"},
		exec:          exec,
	}
}

var defaultExec = &osExecutor{}

// DetectRuntime tries docker first, falls back to podman. Returns an error
// if neither runtime is available.
func DetectRuntime(ctx context.Context) (Runtime, error) {
	return detectRuntime(ctx, defaultExec)
}

func detectRuntime(ctx context.Context, exec executor) (Runtime, error) {
	docker := newDockerRuntime(exec)
	if docker.Available(ctx) {
		return docker, nil
	}

	podman := newPodmanRuntime(exec)
	if podman.Available(ctx) {
		return podman, nil
	}

	return nil, fmt.Errorf(
		"no container runtime available: neither %s nor %s found or operational",
		binDocker, binPodman,
	)
}

func lastLine(out []byte) string {
	s := strings.TrimSpace(string(out))
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(s)
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
