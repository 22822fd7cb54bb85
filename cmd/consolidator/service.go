// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/pdiddy/pdf-consolidator/internal/consolidate"
	"github.com/pdiddy/pdf-consolidator/internal/history"
	"github.com/pdiddy/pdf-consolidator/internal/launch"
	"github.com/pdiddy/pdf-consolidator/internal/mcpserver"
	"github.com/pdiddy/pdf-consolidator/internal/naming"
	"github.com/pdiddy/pdf-consolidator/internal/office"
	"github.com/pdiddy/pdf-consolidator/internal/source"
	"github.com/pdiddy/pdf-consolidator/pkg/types"
)

// service wires the configured components together. The run and serve
// commands share it.
type service struct {
	cfg        types.Config
	clearInput bool
	out        io.Writer
	opener     *launch.Opener
}

var _ mcpserver.Service = (*service)(nil)

func newService(cfg types.Config, out io.Writer) *service {
	return &service{cfg: cfg, clearInput: true, out: out, opener: launch.NewOpener()}
}

func (s *service) ListFiles() ([]types.SourceFile, error) {
	return source.List(s.cfg.InputDir)
}

func (s *service) Consolidate(ctx context.Context, ids naming.Identifiers) (consolidate.Outcome, error) {
	files, err := s.ListFiles()
	if err != nil {
		return consolidate.Outcome{}, err
	}

	r := &consolidate.Runner{
		Config:     s.cfg,
		Exporter:   office.FromConfig(s.cfg.Office, s.cfg.InputDir, s.cfg.TempDir),
		ClearInput: s.clearInput,
		Log:        logger,
		Out:        s.out,
	}
	store, err := history.Open(s.cfg.HistoryDir)
	if err != nil {
		logger.Warn("run history unavailable", "error", err)
	} else {
		defer store.Close()
		r.History = store
	}
	return r.Run(ctx, files, ids)
}

func (s *service) OpenFolder(which string) (string, error) {
	switch which {
	case mcpserver.FolderInput:
		return s.opener.OpenFolder(s.cfg.InputDir)
	case mcpserver.FolderOutput:
		return s.opener.OpenFolder(s.cfg.OutputDir)
	}
	return "", fmt.Errorf("unknown folder %q: want %s or %s", which, mcpserver.FolderInput, mcpserver.FolderOutput)
}
