// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package office exports word-processor and spreadsheet documents to PDF
// through an external office runtime. The runtime is a capability injected as
// an Exporter; a run-scoped Session owns the long-lived instances it launches
// and serializes access to each of them.
package office

import (
	"context"
	"errors"
	"fmt"

	"github.com/pdiddy/pdf-consolidator/pkg/types"
)

var (
	// ErrRuntimeUnavailable means no office runtime is usable on this host.
	// It is detected once per session, before any office file is touched.
	ErrRuntimeUnavailable = errors.New("office runtime unavailable")

	// ErrConversionFailed wraps any per-file export failure, including
	// timeouts and crashes of the external process.
	ErrConversionFailed = errors.New("office conversion failed")

	// ErrInstanceDead is wrapped by Instance.Export when the external process
	// is gone. The session discards the instance and launches a new one for
	// the next document.
	ErrInstanceDead = errors.New("office instance is not running")
)

// Kind selects the office application: one instance is kept per kind.
type Kind int

const (
	Writer Kind = iota
	Calc
	numKinds
)

func (k Kind) String() string {
	switch k {
	case Writer:
		return "writer"
	case Calc:
		return "calc"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// filter is the LibreOffice export filter for a fixed-layout PDF.
func (k Kind) filter() string {
	if k == Calc {
		return "pdf:calc_pdf_Export"
	}
	return "pdf:writer_pdf_Export"
}

// KindFor maps a source format to the office kind that exports it.
func KindFor(f types.Format) (Kind, bool) {
	switch f {
	case types.FormatWord:
		return Writer, true
	case types.FormatSpreadsheet:
		return Calc, true
	}
	return 0, false
}

// Exporter is the office-export capability. Implementations must be safe to
// call from one goroutine per kind at a time.
type Exporter interface {
	// Name identifies the backend in logs (e.g. "soffice").
	Name() string

	// Available returns nil when the runtime can be launched, or an error
	// wrapping ErrRuntimeUnavailable.
	Available(ctx context.Context) error

	// Launch starts a long-lived instance for kind.
	Launch(ctx context.Context, kind Kind) (Instance, error)
}

// Instance is a running office application.
type Instance interface {
	// Export opens src read-only, writes a fixed-layout PDF to dst, and
	// closes the document without saving it. Both paths are absolute.
	Export(ctx context.Context, src, dst string) error

	// Quit terminates the application.
	Quit() error
}
