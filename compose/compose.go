// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package compose draws the thermal frame and its annotations onto the
// visible frame.
package compose

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/anthonynsimon/bild/clone"
	"github.com/disintegration/imaging"

	"github.com/maruel/lepton-overlay/overlay"
)

// Hint selects the resampling filter used to scale the thermal frame.
type Hint int

// Valid Hint values.
const (
	Nearest Hint = iota
	Bilinear
	Bicubic
)

func (h Hint) String() string {
	switch h {
	case Nearest:
		return "nearest"
	case Bilinear:
		return "bilinear"
	case Bicubic:
		return "bicubic"
	default:
		return fmt.Sprintf("Hint(%d)", int(h))
	}
}

// Filter returns the imaging filter for this hint.
func (h Hint) Filter() imaging.ResampleFilter {
	switch h {
	case Bilinear:
		return imaging.Linear
	case Bicubic:
		return imaging.CatmullRom
	default:
		return imaging.NearestNeighbor
	}
}

// ParseHint parses the output of Hint.String.
func ParseHint(s string) (Hint, error) {
	for h := Nearest; h <= Bicubic; h++ {
		if h.String() == s {
			return h, nil
		}
	}
	return Nearest, fmt.Errorf("compose: unknown hint %q", s)
}

// Options controls how DrawImage blends the thermal frame.
type Options struct {
	Palette *Palette // Defaults to Grayscale.
	Alpha   *Alpha   // Defaults to opaque.
	Hint    Hint
}

// ToRGBA returns a copy of img that can be drawn on.
func ToRGBA(img image.Image) *image.RGBA {
	return clone.AsRGBA(img)
}

// DrawImage scales src to cover dst and blends it on top.
//
// Each source intensity selects both the color in the palette and the opacity
// in the alpha table.
func DrawImage(dst *image.RGBA, src *image.Gray, opts Options) {
	b := dst.Rect
	if b.Empty() || src.Rect.Empty() {
		return
	}
	pal := opts.Palette
	if pal == nil {
		pal = Grayscale()
	}
	// Gray to NRGBA leaves R == G == B; recolor the scaled frame in place.
	layer := imaging.Resize(src, b.Dx(), b.Dy(), opts.Hint.Filter())
	for i := 0; i < len(layer.Pix); i += 4 {
		v := layer.Pix[i]
		c := pal[v]
		layer.Pix[i+0] = c.R
		layer.Pix[i+1] = c.G
		layer.Pix[i+2] = c.B
		layer.Pix[i+3] = 255
		if opts.Alpha != nil {
			layer.Pix[i+3] = opts.Alpha[v]
		}
	}
	out := imaging.Overlay(dst, layer, b.Min, 1)
	draw.Draw(dst, b, out, image.Point{}, draw.Src)
}

// Colorize returns src mapped through pal at its own size.
func Colorize(src *image.Gray, pal *Palette) *image.RGBA {
	dst := image.NewRGBA(src.Rect)
	DrawImage(dst, src, Options{Palette: pal})
	return dst
}

// DrawRectangle draws the outline of r, clipped to dst.
func DrawRectangle(dst draw.Image, r image.Rectangle, c color.Color, thickness int) {
	for i := 0; i < thickness; i++ {
		o := r.Inset(i)
		if o.Empty() {
			return
		}
		hline(dst, o.Min.X, o.Max.X, o.Min.Y, c)
		hline(dst, o.Min.X, o.Max.X, o.Max.Y-1, c)
		vline(dst, o.Min.X, o.Min.Y, o.Max.Y, c)
		vline(dst, o.Max.X-1, o.Min.Y, o.Max.Y, c)
	}
}

// DrawCross draws a cross of half size size centered on p, clipped to dst.
func DrawCross(dst draw.Image, p image.Point, c color.Color, size int) {
	hline(dst, p.X-size, p.X+size+1, p.Y, c)
	vline(dst, p.X, p.Y-size, p.Y+size+1, c)
}

func hline(dst draw.Image, x0, x1, y int, c color.Color) {
	b := dst.Bounds()
	if y < b.Min.Y || y >= b.Max.Y {
		return
	}
	for x := max(x0, b.Min.X); x < min(x1, b.Max.X); x++ {
		dst.Set(x, y, c)
	}
}

func vline(dst draw.Image, x, y0, y1 int, c color.Color) {
	b := dst.Bounds()
	if x < b.Min.X || x >= b.Max.X {
		return
	}
	for y := max(y0, b.Min.Y); y < min(y1, b.Max.Y); y++ {
		dst.Set(x, y, c)
	}
}

// Style is how annotations are drawn.
type Style struct {
	Color     color.Color
	Thickness int
	CrossSize int
	TextScale int
}

// DefaultStyle draws in white with labels twice the font size.
func DefaultStyle() Style {
	return Style{Color: color.White, Thickness: 1, CrossSize: 5, TextScale: 2}
}

// GrayStyle is meant to draw directly on the thermal frame, in mid gray so
// that the annotations are visible on both cold and hot areas.
func GrayStyle() Style {
	return Style{Color: color.Gray{Y: 127}, Thickness: 1, CrossSize: 5, TextScale: 1}
}

// Annotate draws each annotation: the rectangle, the cross on the centroid
// and the label.
func Annotate(dst draw.Image, anns []overlay.Annotation, st Style) {
	for _, a := range anns {
		DrawRectangle(dst, a.Rect, st.Color, st.Thickness)
		DrawCross(dst, a.Cross, st.Color, st.CrossSize)
		DrawText(dst, a.LabelAt, a.Label, st.Color, st.TextScale)
	}
}
