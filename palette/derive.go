package palette

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/ericpauley/go-quantize/quantize"
)

// Derive builds a cols*rows Grid from an arbitrary image using median-cut
// quantization, for when no hand-made reference grid exists yet. The
// quantizer may return fewer colors than requested on low-variance input;
// the tail is padded by repeating the last color so the grid geometry still
// holds.
func Derive(img image.Image, cols, rows int) (*Grid, error) {
	if img == nil {
		return nil, errors.New("nil source image")
	}
	if cols < 1 || rows < 1 {
		return nil, fmt.Errorf("invalid grid geometry %dx%d", cols, rows)
	}

	n := cols * rows
	q := quantize.MedianCutQuantizer{Aggregation: quantize.Mean}
	pal := q.Quantize(make(color.Palette, 0, n), img)
	if len(pal) == 0 {
		return nil, errors.New("quantizer produced no colors")
	}

	for len(pal) < n {
		pal = append(pal, pal[len(pal)-1])
	}

	return FromColors(pal, cols, rows)
}
