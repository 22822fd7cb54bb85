// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package office

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdf-consolidator/pkg/types"
)

func TestFromConfig(t *testing.T) {
	cfg := types.DefaultConfig().Office

	exp := FromConfig(cfg)
	require.IsType(t, &Soffice{}, exp)
	assert.Equal(t, "soffice", exp.(*Soffice).bin)

	cfg.Backend = types.OfficeNone
	assert.Nil(t, FromConfig(cfg))

	cfg.Backend = types.OfficeContainer
	assert.IsType(t, &lazyExporter{}, FromConfig(cfg, t.TempDir()))
}

func TestLazyExporterBuildsOnce(t *testing.T) {
	builds := 0
	inner := newFakeExporter()
	l := &lazyExporter{name: "container", build: func(context.Context) (Exporter, error) {
		builds++
		return inner, nil
	}}
	assert.Equal(t, "container", l.Name())

	require.NoError(t, l.Available(context.Background()))
	_, err := l.Launch(context.Background(), Writer)
	require.NoError(t, err)
	assert.Equal(t, 1, builds)
	assert.Equal(t, "fake", l.Name())
}

func TestLazyExporterBuildFailure(t *testing.T) {
	l := &lazyExporter{name: "container", build: func(context.Context) (Exporter, error) {
		return nil, errors.New("no container runtime available")
	}}
	assert.ErrorIs(t, l.Available(context.Background()), ErrRuntimeUnavailable)
	_, err := l.Launch(context.Background(), Calc)
	assert.ErrorIs(t, err, ErrRuntimeUnavailable)
}
