// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package compose

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// TextSize returns the size of s drawn at scale.
func TextSize(s string, scale int) image.Point {
	face := basicfont.Face7x13
	w := font.MeasureString(face, s).Ceil()
	return image.Pt(w*scale, face.Height*scale)
}

// DrawText draws s with its top left corner at p, scaled by an integer
// factor. Pixels falling outside dst are dropped.
func DrawText(dst draw.Image, p image.Point, s string, c color.Color, scale int) {
	if s == "" {
		return
	}
	if scale < 1 {
		scale = 1
	}
	face := basicfont.Face7x13
	sz := TextSize(s, 1)
	mask := image.NewAlpha(image.Rect(0, 0, sz.X, sz.Y))
	d := font.Drawer{
		Dst:  mask,
		Src:  image.Opaque,
		Face: face,
		Dot:  fixed.Point26_6{X: 0, Y: fixed.I(face.Ascent)},
	}
	d.DrawString(s)
	var m image.Image = mask
	if scale != 1 {
		m = imaging.Resize(mask, sz.X*scale, sz.Y*scale, imaging.NearestNeighbor)
	}
	r := image.Rectangle{Min: p, Max: p.Add(m.Bounds().Size())}
	draw.DrawMask(dst, r, image.NewUniform(c), image.Point{}, m, image.Point{}, draw.Over)
}
