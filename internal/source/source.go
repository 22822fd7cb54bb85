// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source lists the documents waiting in the input directory. The
// order it returns is the order pages appear in the merged PDF.
package source

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdiddy/pdf-consolidator/internal/convert"
	"github.com/pdiddy/pdf-consolidator/pkg/types"
)

// excluded lists filenames never picked up even if their extension matches.
var excluded = map[string]bool{
	"README.md":  true,
	"readme.md":  true,
	"README.txt": true,
	"readme.txt": true,
}

// List returns the supported documents in dir sorted case-insensitively by
// name. A missing directory yields an empty list.
func List(dir string) ([]types.SourceFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading input directory %s: %w", dir, err)
	}

	var files []types.SourceFile
	for _, entry := range entries {
		name := entry.Name()
		if excluded[name] || !entry.Type().IsRegular() {
			continue
		}
		format, err := convert.Route(name)
		if err != nil {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, types.SourceFile{
			Path:   filepath.Join(dir, name),
			Name:   name,
			Ext:    strings.ToLower(filepath.Ext(name)),
			Size:   info.Size(),
			Format: format,
		})
	}

	sort.SliceStable(files, func(i, j int) bool {
		a, b := strings.ToLower(files[i].Name), strings.ToLower(files[j].Name)
		if a != b {
			return a < b
		}
		return files[i].Name < files[j].Name
	})
	return files, nil
}

// SupportedDisplay returns the supported extensions grouped by kind, for
// showing next to the input folder.
func SupportedDisplay() string {
	group := func(f types.Format) string {
		return strings.Join(convert.Extensions(f), ", ")
	}
	return fmt.Sprintf("PDF: %s | Word: %s | Excel: %s | Images: %s",
		group(types.FormatPDF), group(types.FormatWord),
		group(types.FormatSpreadsheet), group(types.FormatImage))
}
