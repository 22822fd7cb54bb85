// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdiddy/pdf-consolidator/pkg/types"
)

// extensions maps every recognized lower-case extension to its format.
var extensions = map[string]types.Format{
	".jpg":  types.FormatImage,
	".jpeg": types.FormatImage,
	".png":  types.FormatImage,
	".tif":  types.FormatImage,
	".tiff": types.FormatImage,
	".doc":  types.FormatWord,
	".docx": types.FormatWord,
	".xls":  types.FormatSpreadsheet,
	".xlsx": types.FormatSpreadsheet,
	".pdf":  types.FormatPDF,
}

// Route returns the conversion format for path based on its extension,
// ignoring case. Unknown extensions fail with ErrUnsupportedFormat.
func Route(path string) (types.Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if f, ok := extensions[ext]; ok {
		return f, nil
	}
	if ext == "" {
		ext = "(none)"
	}
	return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
}

// Extensions returns the recognized extensions for f in sorted order.
// With no argument it returns every recognized extension.
func Extensions(f ...types.Format) []string {
	var out []string
	for ext, got := range extensions {
		if len(f) == 0 || got == f[0] {
			out = append(out, ext)
		}
	}
	sort.Strings(out)
	return out
}

// isMultiFrame reports whether an image extension may hold several frames.
func isMultiFrame(ext string) bool {
	ext = strings.ToLower(ext)
	return ext == ".tif" || ext == ".tiff"
}
