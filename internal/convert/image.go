// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"

	"github.com/pdiddy/pdf-consolidator/internal/pdfcfg"
)

// maxFrames caps the IFD walk so a corrupt offset chain cannot loop forever.
const maxFrames = 4096

// ImageConverter turns raster images into PDF. JPEG and PNG files become a
// single page with the image data embedded as-is; TIFF files become one page
// per frame.
type ImageConverter struct {
	log *slog.Logger
}

// NewImageConverter returns an ImageConverter that reports skipped frames
// to log. A nil logger discards them.
func NewImageConverter(log *slog.Logger) *ImageConverter {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &ImageConverter{log: log}
}

// Convert writes a PDF for the image at src to dst, replacing any existing
// file.
func (c *ImageConverter) Convert(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var (
		data []byte
		err  error
	)
	if isMultiFrame(filepath.Ext(src)) {
		data, err = c.framesToPDF(src)
	} else {
		data, err = singleImageToPDF(src)
	}
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(dst), err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", dst, err)
	}
	return nil
}

// singleImageToPDF imports one JPEG or PNG into a new document whose page
// matches the image size.
func singleImageToPDF(src string) ([]byte, error) {
	f, err := os.Open(src)
	if err != nil {
		return nil, fmt.Errorf("opening image %s: %w", src, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	imp := pdfcpu.DefaultImportConfig()
	if err := api.ImportImages(nil, &buf, []io.Reader{f}, imp, pdfcfg.New()); err != nil {
		return nil, fmt.Errorf("importing image %s: %w", filepath.Base(src), err)
	}
	return buf.Bytes(), nil
}

// framesToPDF decodes every frame of a TIFF and writes them as consecutive
// pages, 1 pixel per point.
func (c *ImageConverter) framesToPDF(src string) ([]byte, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("reading image %s: %w", src, err)
	}
	order, offsets, err := tiffFrameOffsets(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(src), err)
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{UnitStr: "pt", Size: gofpdf.SizeType{Wd: 612, Ht: 792}})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)

	// The decoder always reads the IFD named in the header, so each frame is
	// decoded by pointing the header at its IFD.
	patched := append([]byte(nil), data...)
	pages := 0
	for i, off := range offsets {
		order.PutUint32(patched[4:8], off)
		img, err := tiff.Decode(bytes.NewReader(patched))
		if err != nil {
			c.log.Warn("skipping undecodable frame", "file", filepath.Base(src), "frame", i, "error", err)
			continue
		}
		var enc bytes.Buffer
		rgb := flatten(img)
		if err := (&png.Encoder{CompressionLevel: png.BestSpeed}).Encode(&enc, rgb); err != nil {
			c.log.Warn("skipping frame", "file", filepath.Base(src), "frame", i, "error", err)
			continue
		}

		w, h := float64(rgb.Bounds().Dx()), float64(rgb.Bounds().Dy())
		name := fmt.Sprintf("frame-%d", i)
		opt := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.AddPageFormat("P", gofpdf.SizeType{Wd: w, Ht: h})
		pdf.RegisterImageOptionsReader(name, opt, &enc)
		pdf.ImageOptions(name, 0, 0, w, h, false, opt, 0, "")
		pages++
	}
	if pages == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyMultiFrameImage, filepath.Base(src))
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, fmt.Errorf("rendering %s: %w", filepath.Base(src), err)
	}
	return out.Bytes(), nil
}

// flatten draws img onto an opaque white RGBA canvas so every frame ends up
// in the same color model regardless of its source (bilevel, gray, CMYK,
// paletted, with or without alpha).
func flatten(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}

// tiffFrameOffsets walks the IFD chain of a classic TIFF and returns the
// byte order and the offset of every IFD.
func tiffFrameOffsets(data []byte) (binary.ByteOrder, []uint32, error) {
	if len(data) < 8 {
		return nil, nil, errors.New("not a TIFF file: too short")
	}
	var order binary.ByteOrder
	switch string(data[:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return nil, nil, errors.New("not a TIFF file: bad byte order mark")
	}
	if magic := order.Uint16(data[2:4]); magic != 42 {
		return nil, nil, fmt.Errorf("unsupported TIFF variant (magic %d)", magic)
	}

	var offsets []uint32
	seen := make(map[uint32]bool)
	off := order.Uint32(data[4:8])
	for off != 0 && len(offsets) < maxFrames {
		if seen[off] || int64(off)+2 > int64(len(data)) {
			break
		}
		seen[off] = true
		offsets = append(offsets, off)

		count := int64(order.Uint16(data[off : off+2]))
		next := int64(off) + 2 + count*12
		if next+4 > int64(len(data)) {
			break
		}
		off = order.Uint32(data[next : next+4])
	}
	return order, offsets, nil
}
