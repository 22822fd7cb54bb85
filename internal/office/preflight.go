// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package office

import (
	"archive/zip"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// preflight rejects OOXML documents that the office runtime would choke on
// (corrupt archives, encrypted workbooks) without starting the runtime.
// Legacy binary formats are passed through unchecked.
func preflight(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		f, err := excelize.OpenFile(path)
		if err != nil {
			return fmt.Errorf("opening workbook: %w", err)
		}
		defer func() { _ = f.Close() }()
		if len(f.GetSheetList()) == 0 {
			return errors.New("workbook has no sheets")
		}
	case ".docx":
		zr, err := zip.OpenReader(path)
		if err != nil {
			return fmt.Errorf("opening document archive: %w", err)
		}
		defer zr.Close()
		for _, f := range zr.File {
			if f.Name == "word/document.xml" {
				return nil
			}
		}
		return errors.New("not a word document: missing word/document.xml")
	}
	return nil
}
