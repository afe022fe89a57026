// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"fmt"
	"image/color"
	"math"
)

const (
	// UnassignedColor is used for points before the first assignment.
	UnassignedColor = "black"
	// CentroidColor is used for centroid markers.
	CentroidColor = "red"
)

// Hue returns the display hue in degrees of cluster index out of k.
func Hue(index, k int) float64 {
	if k <= 0 {
		return 0
	}

	return float64(index) * 360 / float64(k)
}

// Color returns the CSS color of cluster index out of k.
func Color(index, k int) string {
	return fmt.Sprintf("hsl(%g, 100%%, 50%%)", Hue(index, k))
}

// RGBA returns the same color as Color for raster output.
func RGBA(index, k int) color.RGBA {
	r, g, b := hslToRGB(Hue(index, k)/360, 1, 0.5)

	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// Palette returns the CSS colors of clusters 0..k-1.
func Palette(k int) []string {
	colors := make([]string, 0, k)
	for i := range k {
		colors = append(colors, Color(i, k))
	}

	return colors
}

// hslToRGB converts HSL (all in [0,1]) to 8-bit RGB.
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}

	p := 2*l - q

	return channel(p, q, h+1.0/3.0), channel(p, q, h), channel(p, q, h-1.0/3.0)
}

func channel(p, q, t float64) uint8 {
	t -= math.Floor(t)

	var v float64

	switch {
	case t < 1.0/6.0:
		v = p + (q-p)*6*t
	case t < 1.0/2.0:
		v = q
	case t < 2.0/3.0:
		v = p + (q-p)*(2.0/3.0-t)*6
	default:
		v = p
	}

	return uint8(math.Round(v * 255))
}
