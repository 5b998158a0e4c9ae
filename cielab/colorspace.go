// based on:
// https://en.wikipedia.org/wiki/CIELAB_color_space#From_CIEXYZ_to_CIELAB
// http://www.brucelindbloom.com/index.html?Eqn_RGB_XYZ_Matrix.html

package cielab

import (
	"image/color"
	"math"
)

// Lab is a color in the CIE L*a*b* space (D65 reference white). Euclidean
// distance between two Lab values tracks perceived color difference, which is
// what nearest-palette matching relies on.
type Lab struct {
	L     float64 // perceived lightness, 0 (black) to 100 (white)
	A     float64 // how green/red the color is
	B     float64 // how blue/yellow the color is
	Alpha uint16  // alpha, carried through unmodified
}

var LabModel = color.ModelFunc(labConvert)

// D65 reference white in XYZ.
const (
	whiteX = 0.95047
	whiteY = 1.0
	whiteZ = 1.08883
)

func labConvert(c color.Color) color.Color {
	if _, ok := c.(Lab); ok {
		return c
	}

	col := linearRGBAConvert(c).(LinearRGBA)

	x := 0.4124564*col.R + 0.3575761*col.G + 0.1804375*col.B
	y := 0.2126729*col.R + 0.7151522*col.G + 0.0721750*col.B
	z := 0.0193339*col.R + 0.1191920*col.G + 0.9503041*col.B

	fx := labF(x / whiteX)
	fy := labF(y / whiteY)
	fz := labF(z / whiteZ)

	return Lab{
		L:     116*fy - 16,
		A:     500 * (fx - fy),
		B:     200 * (fy - fz),
		Alpha: col.A,
	}
}

// FromRGB converts an opaque 8-bit RGB triple. This is the hot path for
// palette matching, so it skips the color.Color interface round trip.
func FromRGB(r, g, b uint8) Lab {
	lr := toLinear(float64(r) / 255)
	lg := toLinear(float64(g) / 255)
	lb := toLinear(float64(b) / 255)

	x := 0.4124564*lr + 0.3575761*lg + 0.1804375*lb
	y := 0.2126729*lr + 0.7151522*lg + 0.0721750*lb
	z := 0.0193339*lr + 0.1191920*lg + 0.9503041*lb

	fx := labF(x / whiteX)
	fy := labF(y / whiteY)
	fz := labF(z / whiteZ)

	return Lab{
		L:     116*fy - 16,
		A:     500 * (fx - fy),
		B:     200 * (fy - fz),
		Alpha: 0xFFFF,
	}
}

const (
	epsilon = 216.0 / 24389.0 // (6/29)^3
	kappa   = 24389.0 / 27.0
)

func labF(t float64) float64 {
	if t > epsilon {
		return math.Cbrt(t)
	}
	return (kappa*t + 16) / 116
}

func labFInv(t float64) float64 {
	if t3 := t * t * t; t3 > epsilon {
		return t3
	}
	return (116*t - 16) / kappa
}

// Distance is the Euclidean distance to o across all three axes. Alpha does
// not participate.
func (lc Lab) Distance(o Lab) float64 {
	dL := lc.L - o.L
	da := lc.A - o.A
	db := lc.B - o.B
	return math.Sqrt(dL*dL + da*da + db*db)
}

// DistanceSq is Distance without the square root, for comparisons where only
// the ordering matters.
func (lc Lab) DistanceSq(o Lab) float64 {
	dL := lc.L - o.L
	da := lc.A - o.A
	db := lc.B - o.B
	return dL*dL + da*da + db*db
}

func (lc Lab) RGBA() (uint32, uint32, uint32, uint32) {
	return lc.LinearRGBA().RGBA()
}

func (lc Lab) LinearRGBA() LinearRGBA {
	fy := (lc.L + 16) / 116
	fx := fy + lc.A/500
	fz := fy - lc.B/200

	x := labFInv(fx) * whiteX
	y := labFInv(fy) * whiteY
	z := labFInv(fz) * whiteZ

	return LinearRGBA{
		R: 3.2404542*x - 1.5371385*y - 0.4985314*z,
		G: -0.9692660*x + 1.8760108*y + 0.0415560*z,
		B: 0.0556434*x - 0.2040259*y + 1.0572252*z,
		A: lc.Alpha,
	}
}
