// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package office

import (
	"context"
	"fmt"
	"sync"

	"github.com/pdiddy/pdf-consolidator/internal/container"
	"github.com/pdiddy/pdf-consolidator/pkg/types"
)

// FromConfig returns the exporter selected by cfg, or nil when office
// conversion is disabled. dirs are the host directories the container
// backend mounts. Container runtime detection is deferred until the first
// availability check, so runs without office files never probe for it.
func FromConfig(cfg types.OfficeConfig, dirs ...string) Exporter {
	switch cfg.Backend {
	case types.OfficeNone:
		return nil
	case types.OfficeContainer:
		image := cfg.Image
		return &lazyExporter{name: "container", build: func(ctx context.Context) (Exporter, error) {
			rt, err := container.DetectRuntime(ctx)
			if err != nil {
				return nil, err
			}
			return NewContainerExporter(rt, image, dirs...)
		}}
	}
	return NewSoffice(cfg.SofficePath)
}

// lazyExporter builds its backend on first use.
type lazyExporter struct {
	name  string
	build func(context.Context) (Exporter, error)

	once     sync.Once
	inner    Exporter
	buildErr error
}

func (l *lazyExporter) get(ctx context.Context) (Exporter, error) {
	l.once.Do(func() {
		l.inner, l.buildErr = l.build(ctx)
	})
	if l.buildErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrRuntimeUnavailable, l.buildErr)
	}
	return l.inner, nil
}

func (l *lazyExporter) Name() string {
	if l.inner != nil {
		return l.inner.Name()
	}
	return l.name
}

func (l *lazyExporter) Available(ctx context.Context) error {
	inner, err := l.get(ctx)
	if err != nil {
		return err
	}
	return inner.Available(ctx)
}

func (l *lazyExporter) Launch(ctx context.Context, kind Kind) (Instance, error) {
	inner, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return inner.Launch(ctx, kind)
}
