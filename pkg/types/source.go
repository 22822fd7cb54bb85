// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the consolidation pipeline:
// configuration, source documents, and converted artifacts.
package types

import "fmt"

// Format is the conversion strategy for a source document. The set is
// closed: every recognized extension maps to exactly one Format.
type Format int

const (
	FormatImage Format = iota + 1
	FormatWord
	FormatSpreadsheet
	FormatPDF
)

func (f Format) String() string {
	switch f {
	case FormatImage:
		return "image"
	case FormatWord:
		return "word"
	case FormatSpreadsheet:
		return "spreadsheet"
	case FormatPDF:
		return "pdf"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// IsOffice reports whether the format needs the external office runtime.
func (f Format) IsOffice() bool {
	return f == FormatWord || f == FormatSpreadsheet
}

// SourceFile is a document discovered in the input directory. It is never
// modified by the pipeline.
type SourceFile struct {
	// Path is the filesystem path of the document.
	Path string `json:"path" yaml:"path"`

	// Name is the base name including extension.
	Name string `json:"name" yaml:"name"`

	// Ext is the lower-cased extension including the dot (e.g. ".tiff").
	Ext string `json:"ext" yaml:"ext"`

	// Size is the file size in bytes.
	Size int64 `json:"size" yaml:"size"`

	// Format is the conversion strategy chosen from Ext.
	Format Format `json:"format" yaml:"format"`
}

// Artifact is a PDF produced in the scratch workspace from one SourceFile.
type Artifact struct {
	Source SourceFile
	Path   string
}
