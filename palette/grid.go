// Package palette builds and queries the fixed color grid every capture is
// quantized against. A Grid is sampled once from a reference image (or loaded
// from a RIFF PAL file), is immutable afterwards and is safe for concurrent
// reads.
package palette

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"flaggrid/cielab"
)

var ErrEmpty = errors.New("palette grid has no cells")

// Grid is an ordered cols*rows sequence of colors in row-major order, row 0
// being the top row of the reference image. Lab values are precomputed once
// so nearest-match lookups never re-convert palette entries.
type Grid struct {
	cols, rows int
	rgb        []color.RGBA
	lab        []cielab.Lab
}

// FromColors builds a Grid from an already-assembled palette. The palette
// length must match the grid geometry exactly; source alpha is dropped.
func FromColors(pal color.Palette, cols, rows int) (*Grid, error) {
	if cols < 1 || rows < 1 {
		return nil, fmt.Errorf("invalid grid geometry %dx%d", cols, rows)
	}
	if len(pal) != cols*rows {
		return nil, fmt.Errorf("palette has %d colors, %dx%d grid needs %d", len(pal), cols, rows, cols*rows)
	}

	g := &Grid{
		cols: cols,
		rows: rows,
		rgb:  make([]color.RGBA, len(pal)),
		lab:  make([]cielab.Lab, len(pal)),
	}
	for i, col := range pal {
		c := color.NRGBAModel.Convert(col).(color.NRGBA)
		g.rgb[i] = color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xFF}
		g.lab[i] = cielab.FromRGB(c.R, c.G, c.B)
	}

	return g, nil
}

// Sample extracts a cols*rows Grid from a reference image. Each cell's color
// is the truncating per-channel average of the 3x3 pixel patch around the
// cell's center; patch coordinates are clamped to the image bounds, so border
// cells over-weight the edge pixel. Both quirks are part of the encoded
// output contract and must not change.
func Sample(img image.Image, cols, rows int) (*Grid, error) {
	if img == nil {
		return nil, errors.New("nil reference image")
	}
	if cols < 1 || rows < 1 {
		return nil, fmt.Errorf("invalid grid geometry %dx%d", cols, rows)
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 1 || h < 1 {
		return nil, fmt.Errorf("reference image has empty bounds %v", b)
	}

	cellW := float64(w) / float64(cols)
	cellH := float64(h) / float64(rows)

	pal := make(color.Palette, 0, cols*rows)
	for row := range rows {
		for col := range cols {
			cx := min(int(math.Round((float64(col)+0.5)*cellW)), w-1)
			cy := min(int(math.Round((float64(row)+0.5)*cellH)), h-1)
			pal = append(pal, averagePatch(img, cx, cy))
		}
	}

	return FromColors(pal, cols, rows)
}

func averagePatch(img image.Image, cx, cy int) color.RGBA {
	b := img.Bounds()
	var r, g, bl, count uint32
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			x := clamp(cx+dx, 0, b.Dx()-1)
			y := clamp(cy+dy, 0, b.Dy()-1)
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			r += uint32(c.R)
			g += uint32(c.G)
			bl += uint32(c.B)
			count++
		}
	}
	return color.RGBA{R: uint8(r / count), G: uint8(g / count), B: uint8(bl / count), A: 0xFF}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (g *Grid) Len() int  { return len(g.rgb) }
func (g *Grid) Cols() int { return g.cols }
func (g *Grid) Rows() int { return g.rows }

// Color returns the 8-bit RGB entry at index i.
func (g *Grid) Color(i int) color.RGBA { return g.rgb[i] }

// Index returns the index of the entry nearest to lc by Lab distance. Ties go
// to the lowest index.
func (g *Grid) Index(lc cielab.Lab) int {
	ret, bestSum := 0, math.MaxFloat64
	for i, v := range g.lab {
		sum := lc.DistanceSq(v)
		if sum < bestSum {
			if sum == 0 {
				return i
			}
			ret, bestSum = i, sum
		}
	}
	return ret
}

// IndexColor is Index for an arbitrary color.Color.
func (g *Grid) IndexColor(c color.Color) int {
	return g.Index(cielab.LabModel.Convert(c).(cielab.Lab))
}

// Cell maps an index to its (row, col) position, row 0 at the top.
func (g *Grid) Cell(i int) (row, col int) {
	return i / g.cols, i % g.cols
}

// UV maps an index to the normalized center of its cell. v is flipped so 0 is
// the bottom row, matching bottom-left-origin texture coordinates. Both
// components are strictly inside (0, 1).
func (g *Grid) UV(i int) (u, v float64) {
	row, col := g.Cell(i)
	u = (float64(col) + 0.5) / float64(g.cols)
	v = (float64(g.rows-1-row) + 0.5) / float64(g.rows)
	return u, v
}
