// Copyright 2017 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package gray14 reduces 14 bits Lepton intensities stored as image.Gray16
// down to 8 bits.
package gray14

import (
	"image"

	"periph.io/x/periph/conn/physic"
)

// Common TLinear resolutions, i.e. the temperature represented by one count.
const (
	CentiKelvin physic.Temperature = 10 * physic.MilliKelvin  // High resolution.
	DeciKelvin  physic.Temperature = 100 * physic.MilliKelvin // Low resolution, for hot scenes.
)

// Min returns the smallest value in the image.
//
// Returns 65535 for an empty image.
func Min(img *image.Gray16) uint16 {
	out := uint16(0xffff)
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if v := img.Gray16At(x, y).Y; v < out {
				out = v
			}
		}
	}
	return out
}

// Max returns the largest value in the image.
//
// Returns 0 for an empty image.
func Max(img *image.Gray16) uint16 {
	out := uint16(0)
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if v := img.Gray16At(x, y).Y; v > out {
				out = v
			}
		}
	}
	return out
}

// AGCLinear reduces the dynamic range of a 14 bits image down to 8 bits very
// naively without gamma.
//
// The coldest pixel maps to 0 and the hottest to 255. This is what to use when
// the camera is not radiometric.
func AGCLinear(img *image.Gray16) *image.Gray {
	b := img.Bounds()
	dst := image.NewGray(b)
	floor := Min(img)
	delta := int(Max(img)) - int(floor)
	if delta <= 0 {
		return dst
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := dst.PixOffset(b.Min.X, y)
		for x := b.Min.X; x < b.Max.X; x++ {
			v := int(img.Gray16At(x, y).Y-floor) * 255 / delta
			dst.Pix[off+x-b.Min.X] = uint8(v)
		}
	}
	return dst
}

// Radiometric maps TLinear counts onto 8 bits over the temperature interval
// [lo, hi].
//
// Each count represents perCount, usually CentiKelvin or DeciKelvin. lo maps to
// 0 and hi to 255; temperatures outside are clamped and values in between are
// truncated. The result can be converted back to a temperature with
// overlay.Temperature.
func Radiometric(img *image.Gray16, perCount, lo, hi physic.Temperature) *image.Gray {
	b := img.Bounds()
	dst := image.NewGray(b)
	if hi <= lo || perCount <= 0 {
		return dst
	}
	span := float64(hi - lo)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := dst.PixOffset(b.Min.X, y)
		for x := b.Min.X; x < b.Max.X; x++ {
			t := physic.Temperature(img.Gray16At(x, y).Y) * perCount
			dst.Pix[off+x-b.Min.X] = scale(float64(t-lo) / span)
		}
	}
	return dst
}

// Celsius converts a temperature into °C.
func Celsius(t physic.Temperature) float64 {
	return float64(t-physic.ZeroCelsius) / float64(physic.Celsius)
}

// FromCelsius converts °C into a temperature.
func FromCelsius(c float64) physic.Temperature {
	return physic.ZeroCelsius + physic.Temperature(c*float64(physic.Celsius))
}

func scale(f float64) uint8 {
	if f <= 0 {
		return 0
	}
	if f >= 1 {
		return 255
	}
	return uint8(f * 255)
}
