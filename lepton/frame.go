// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lepton

import (
	"image"
	"image/color"

	devlepton "periph.io/x/periph/devices/lepton"
	"periph.io/x/periph/devices/lepton/image14bit"

	"github.com/maruel/lepton-overlay/gray14"
)

func newFrame(r image.Rectangle) *devlepton.Frame {
	return &devlepton.Frame{Gray14: image14bit.NewGray14(r)}
}

// toGray16 copies the 14 bits intensities into dst.
func toGray16(dst *image.Gray16, src *devlepton.Frame) {
	b := dst.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.SetGray16(x, y, color.Gray16{Y: uint16(src.Intensity14At(x, y))})
		}
	}
}

// equal returns true if both frames have the same intensities.
//
// It happens when the camera sends the same frame multiple times; the Lepton
// runs at 27fps internally but only sends 9 unique frames per second.
func equal(l, r *image.Gray16) bool {
	if l.Rect != r.Rect {
		return false
	}
	for i := range l.Pix {
		if l.Pix[i] != r.Pix[i] {
			return false
		}
	}
	return true
}

// reduce converts a 14 bits frame into the 8 bits frame processed downstream.
func (o *Options) reduce(src *image.Gray16) *image.Gray {
	if o.Radiometric {
		return gray14.Radiometric(src, o.PerCount, o.Min, o.Max)
	}
	return gray14.AGCLinear(src)
}
