// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package office

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/pdiddy/pdf-consolidator/internal/container"
)

// containerProfile is the LibreOffice profile inside the container. Launch
// and every export use it so conversions reach the running instance.
const containerProfile = "-env:UserInstallation=file:///tmp/consolidator-profile"

// ContainerExporter runs LibreOffice inside a docker or podman container.
// The input and scratch directories are bind-mounted at their host paths.
type ContainerExporter struct {
	rt     container.Runtime
	image  string
	mounts []string
}

// NewContainerExporter returns an exporter that starts image with rt and
// mounts dirs into it.
func NewContainerExporter(rt container.Runtime, image string, dirs ...string) (*ContainerExporter, error) {
	mounts := make([]string, 0, len(dirs))
	for _, d := range dirs {
		abs, err := filepath.Abs(d)
		if err != nil {
			return nil, fmt.Errorf("resolving mount %s: %w", d, err)
		}
		mounts = append(mounts, abs)
	}
	return &ContainerExporter{rt: rt, image: image, mounts: mounts}, nil
}

func (c *ContainerExporter) Name() string { return "container/" + c.rt.Name() }

func (c *ContainerExporter) Available(ctx context.Context) error {
	if !c.rt.Available(ctx) {
		return fmt.Errorf("%w: %s is not operational", ErrRuntimeUnavailable, c.rt.Name())
	}
	if err := c.rt.ImageExists(ctx, c.image); err != nil {
		return fmt.Errorf("%w: %w", ErrRuntimeUnavailable, err)
	}
	return nil
}

func (c *ContainerExporter) Launch(ctx context.Context, kind Kind) (Instance, error) {
	id, err := c.rt.Start(ctx, container.Spec{
		Image:      c.image,
		Entrypoint: "soffice",
		Args:       []string{containerProfile, "--headless", "--invisible", "--nologo", "--norestore", "--nodefault", "--nolockcheck"},
		Mounts:     c.mounts,
	})
	if err != nil {
		return nil, err
	}
	return &containerInstance{rt: c.rt, id: id, kind: kind}, nil
}

type containerInstance struct {
	rt   container.Runtime
	id   string
	kind Kind
}

func (i *containerInstance) Export(ctx context.Context, src, dst string) error {
	stage, err := stageDir(dst, i.kind)
	if err != nil {
		return err
	}
	out, err := i.rt.Exec(ctx, i.id, "soffice", containerProfile, "--headless",
		"--convert-to", i.kind.filter(), "--outdir", stage, src)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !i.rt.Running(ctx, i.id) {
			return fmt.Errorf("%w: container stopped: %w", ErrInstanceDead, err)
		}
		return fmt.Errorf("%w: %s", err, tail(out))
	}
	return collect(stage, src, dst)
}

func (i *containerInstance) Quit() error {
	return i.rt.Remove(context.Background(), i.id)
}
