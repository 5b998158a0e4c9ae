// Package uvgrid quantizes an image against a palette grid and serializes the
// result as a comma-separated list of "u:v" cell-center coordinates, the text
// form consumed by texture-atlas lookups on the other side.
package uvgrid

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"flaggrid/cielab"
	"flaggrid/palette"

	"golang.org/x/image/draw"
)

var ErrInvalidImage = errors.New("invalid input image")

// Encode downsamples img to outWidth x outHeight, maps every output pixel to
// its nearest grid entry by Lab distance and emits one "u:v" token per pixel,
// two decimal digits each, joined with commas. Traversal is column-major with
// columns scanned bottom to top, so the string reads "column 0 bottom-up,
// column 1 bottom-up, ...". Pure function: identical inputs always produce
// the identical string.
func Encode(img image.Image, grid *palette.Grid, outWidth, outHeight int) (string, error) {
	if grid == nil || grid.Len() == 0 {
		return "", palette.ErrEmpty
	}
	if outWidth < 1 || outHeight < 1 {
		return "", fmt.Errorf("invalid output size %dx%d", outWidth, outHeight)
	}
	if img == nil {
		return "", fmt.Errorf("%w: nil image", ErrInvalidImage)
	}
	if b := img.Bounds(); b.Dx() < 1 || b.Dy() < 1 {
		return "", fmt.Errorf("%w: empty bounds %v", ErrInvalidImage, b)
	}

	dst := downsample(img, outWidth, outHeight)

	var sb strings.Builder
	sb.Grow(outWidth * outHeight * 10)
	for x := range outWidth {
		for y := outHeight - 1; y >= 0; y-- {
			c := dst.NRGBAAt(x, y)
			i := grid.Index(cielab.FromRGB(c.R, c.G, c.B))
			u, v := grid.UV(i)

			if sb.Len() > 0 {
				sb.WriteByte(',')
			}
			fmt.Fprintf(&sb, "%.2f:%.2f", u, v)
		}
	}

	return sb.String(), nil
}

// downsample scales img to exactly width x height with nearest-neighbor
// sampling. Hard edges stay hard: an interpolating scaler would feed the
// matcher blended colors that exist in neither region of the source.
func downsample(img image.Image, width, height int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	if src, ok := img.(*image.NRGBA); ok && src.Bounds() == dst.Bounds() {
		return src
	}
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}
