package palette

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Load builds a Grid from a reference file. Files with a .pal extension are
// parsed as RIFF PAL palettes and must hold exactly cols*rows entries; any
// other file is decoded as an image and sampled cell by cell.
func Load(path string, cols, rows int) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open palette %q: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Error("could not close palette file", "name", path, "error", closeErr)
		}
	}()

	if strings.EqualFold(filepath.Ext(path), ".pal") {
		pal, err := ReadRIFF(f)
		if err != nil {
			return nil, fmt.Errorf("could not load palette %q: %w", path, err)
		}
		return FromColors(pal, cols, rows)
	}

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("could not decode reference image %q: %w", path, err)
	}

	return Sample(img, cols, rows)
}

// Image renders the grid back into a reference image with square cells of
// cellSize pixels, suitable for re-sampling with the same geometry.
func (g *Grid) Image(cellSize int) *image.RGBA {
	if cellSize < 1 {
		cellSize = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, g.cols*cellSize, g.rows*cellSize))
	for i, c := range g.rgb {
		row, col := g.Cell(i)
		cell := image.Rect(col*cellSize, row*cellSize, (col+1)*cellSize, (row+1)*cellSize)
		draw.Draw(dst, cell, image.NewUniform(c), image.Point{}, draw.Src)
	}

	return dst
}

// Colors returns a copy of the grid entries as a color.Palette, row-major.
func (g *Grid) Colors() color.Palette {
	pal := make(color.Palette, len(g.rgb))
	for i, c := range g.rgb {
		pal[i] = c
	}
	return pal
}
