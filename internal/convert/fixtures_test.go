// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/require"
)

func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{uint8(x * 9), uint8(y * 9), 0x80, 0xff})
		}
	}
	return img
}

func writePNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	p := filepath.Join(dir, name)
	f, err := os.Create(p)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, testImage(w, h)))
	require.NoError(t, f.Close())
	return p
}

func writeJPEG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	p := filepath.Join(dir, name)
	f, err := os.Create(p)
	require.NoError(t, err)
	require.NoError(t, jpeg.Encode(f, testImage(w, h), nil))
	require.NoError(t, f.Close())
	return p
}

// writePDF writes a document with one page per entry in widths.
func writePDF(t *testing.T, dir, name string, widths ...float64) string {
	t.Helper()
	p := filepath.Join(dir, name)
	pdf := gofpdf.NewCustom(&gofpdf.InitType{UnitStr: "pt", Size: gofpdf.SizeType{Wd: 612, Ht: 792}})
	pdf.SetFont("Helvetica", "", 12)
	for _, w := range widths {
		pdf.AddPageFormat("P", gofpdf.SizeType{Wd: w, Ht: 792})
		pdf.Text(20, 40, name)
	}
	require.NoError(t, pdf.OutputFileAndClose(p))
	return p
}

// onePagePDF renders a single page of the given width in memory.
func onePagePDF(width float64) []byte {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{UnitStr: "pt", Size: gofpdf.SizeType{Wd: width, Ht: 792}})
	pdf.AddPage()
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// tiffFrame describes one grayscale frame of a hand-built TIFF. A
// compression other than 1 makes the frame undecodable.
type tiffFrame struct {
	w, h        int
	compression uint16
}

// buildTIFF assembles a little-endian, uncompressed, 8-bit grayscale TIFF
// with one IFD per frame.
func buildTIFF(frames ...tiffFrame) []byte {
	le := binary.LittleEndian
	buf := []byte{'I', 'I', 42, 0, 0, 0, 0, 0}
	link := 4
	for _, f := range frames {
		pix := len(buf)
		for i := range f.w * f.h {
			buf = append(buf, byte(i*7))
		}
		if len(buf)%2 == 1 {
			buf = append(buf, 0)
		}
		le.PutUint32(buf[link:], uint32(len(buf)))

		const short, long = 3, 4
		entries := [][3]uint32{
			{256, short, uint32(f.w)},
			{257, short, uint32(f.h)},
			{258, short, 8},
			{259, short, uint32(f.compression)},
			{262, short, 1},
			{273, long, uint32(pix)},
			{277, short, 1},
			{278, short, uint32(f.h)},
			{279, long, uint32(f.w * f.h)},
		}
		buf = le.AppendUint16(buf, uint16(len(entries)))
		for _, e := range entries {
			buf = le.AppendUint16(buf, uint16(e[0]))
			buf = le.AppendUint16(buf, uint16(e[1]))
			buf = le.AppendUint32(buf, 1)
			if e[1] == short {
				buf = le.AppendUint16(buf, uint16(e[2]))
				buf = le.AppendUint16(buf, 0)
			} else {
				buf = le.AppendUint32(buf, e[2])
			}
		}
		link = len(buf)
		buf = le.AppendUint32(buf, 0)
	}
	return buf
}

func writeTIFF(t *testing.T, dir, name string, frames ...tiffFrame) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, buildTIFF(frames...), 0o644))
	return p
}
