// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import "errors"

var (
	// ErrUnsupportedFormat is returned by Route for an extension outside
	// the recognized set.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrEmptyMultiFrameImage is returned when a multi-frame image has no
	// decodable frame.
	ErrEmptyMultiFrameImage = errors.New("multi-frame image has no decodable frames")

	// ErrConverterPanic wraps a panic raised while converting one file.
	ErrConverterPanic = errors.New("converter crashed on input")
)
