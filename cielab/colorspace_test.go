package cielab

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRGBReferenceValues(t *testing.T) {
	for _, tc := range []struct {
		name    string
		r, g, b uint8
		l, a, B float64
	}{
		{name: "black", r: 0, g: 0, b: 0, l: 0, a: 0, B: 0},
		{name: "white", r: 255, g: 255, b: 255, l: 100, a: 0, B: 0},
		{name: "red", r: 255, g: 0, b: 0, l: 53.24, a: 80.09, B: 67.20},
		{name: "green", r: 0, g: 255, b: 0, l: 87.73, a: -86.18, B: 83.18},
		{name: "blue", r: 0, g: 0, b: 255, l: 32.30, a: 79.19, B: -107.86},
	} {
		t.Run(tc.name, func(t *testing.T) {
			lc := FromRGB(tc.r, tc.g, tc.b)
			assert.InDelta(t, tc.l, lc.L, 0.1)
			assert.InDelta(t, tc.a, lc.A, 0.1)
			assert.InDelta(t, tc.B, lc.B, 0.1)
		})
	}
}

func TestLabModelMatchesFromRGB(t *testing.T) {
	for _, c := range []color.NRGBA{
		{R: 0, G: 0, B: 0, A: 0xFF},
		{R: 255, G: 255, B: 255, A: 0xFF},
		{R: 12, G: 200, B: 36, A: 0xFF},
		{R: 100, G: 100, B: 101, A: 0xFF},
	} {
		got := LabModel.Convert(c).(Lab)
		want := FromRGB(c.R, c.G, c.B)
		require.InDelta(t, want.L, got.L, 1e-9)
		require.InDelta(t, want.A, got.A, 1e-9)
		require.InDelta(t, want.B, got.B, 1e-9)
	}
}

func TestDistance(t *testing.T) {
	black := FromRGB(0, 0, 0)
	white := FromRGB(255, 255, 255)

	assert.Zero(t, black.Distance(black))
	assert.InDelta(t, 100, black.Distance(white), 0.1)
	assert.Equal(t, black.Distance(white), white.Distance(black))

	// ordering by DistanceSq must match ordering by Distance
	darkGray := FromRGB(40, 40, 40)
	assert.Less(t, black.DistanceSq(darkGray), black.DistanceSq(white))
	assert.Less(t, black.Distance(darkGray), black.Distance(white))
}

func TestPerceptualOrdering(t *testing.T) {
	// two colors with the same raw-channel distance from pure blue: a darker
	// blue should be perceptually closer to blue than an equally distant red
	// shift, which raw Euclidean RGB cannot tell apart
	blue := FromRGB(0, 0, 255)
	darkerBlue := FromRGB(0, 0, 155)
	redderBlue := FromRGB(100, 0, 255)
	assert.Less(t, blue.Distance(redderBlue), blue.Distance(darkerBlue))
}

func TestRGBARoundTrip(t *testing.T) {
	for _, c := range []color.NRGBA{
		{R: 0, G: 0, B: 0, A: 0xFF},
		{R: 255, G: 255, B: 255, A: 0xFF},
		{R: 12, G: 200, B: 36, A: 0xFF},
		{R: 128, G: 64, B: 32, A: 0xFF},
	} {
		lc := FromRGB(c.R, c.G, c.B)
		r, g, b, _ := lc.RGBA()
		require.InDelta(t, c.R, r>>8, 1)
		require.InDelta(t, c.G, g>>8, 1)
		require.InDelta(t, c.B, b>>8, 1)
	}
}
