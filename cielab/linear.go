package cielab

import (
	"image/color"
	"math"
)

type LinearRGBA struct {
	R float64
	G float64
	B float64
	A uint16
}

var LinearRGBAModel = color.ModelFunc(linearRGBAConvert)

func linearRGBAConvert(c color.Color) color.Color {
	if _, ok := c.(LinearRGBA); ok {
		return c
	}

	return sRGBToLinearRGB(color.RGBA64Model.Convert(c).(color.RGBA64))
}

func (lc LinearRGBA) RGBA() (uint32, uint32, uint32, uint32) {
	c := linearRGBToSRGB(lc.clamped())
	return uint32(c.R), uint32(c.G), uint32(c.B), uint32(c.A)
}

// clamped pins out-of-gamut channels to [0, 1]. Matching only ever converts
// sRGB inputs forward into Lab, so nothing fancier than clamping is needed on
// the way back.
func (lc LinearRGBA) clamped() LinearRGBA {
	return LinearRGBA{
		R: math.Min(math.Max(lc.R, 0), 1),
		G: math.Min(math.Max(lc.G, 0), 1),
		B: math.Min(math.Max(lc.B, 0), 1),
		A: lc.A,
	}
}

func linearRGBToSRGB(lc LinearRGBA) color.RGBA64 {
	return color.RGBA64{
		R: uint16(fromLinear(lc.R) * 65535),
		G: uint16(fromLinear(lc.G) * 65535),
		B: uint16(fromLinear(lc.B) * 65535),
		A: lc.A,
	}
}

func sRGBToLinearRGB(c color.RGBA64) LinearRGBA {
	return LinearRGBA{
		R: toLinear(float64(c.R) / 65535),
		G: toLinear(float64(c.G) / 65535),
		B: toLinear(float64(c.B) / 65535),
		A: c.A,
	}
}

func toLinear(x float64) float64 {
	if x >= 0.04045 {
		return math.Pow((x+0.055)/1.055, 2.4)
	} else {
		return x / 12.92
	}
}

const pow float64 = 1.0 / 2.4

func fromLinear(x float64) float64 {
	if x >= 0.0031308 {
		return math.Pow(x, pow)*1.055 - 0.055
	} else {
		return x * 12.92
	}
}
