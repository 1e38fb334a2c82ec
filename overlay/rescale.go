// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package overlay

import (
	"fmt"
	"image"
	"math"
)

// Scale converts thermal frame coordinates into target frame coordinates.
type Scale struct {
	X      float64
	Y      float64
	Origin image.Point     // Top-left corner of the thermal frame.
	Bounds image.Rectangle // Target frame; rescaled coordinates are clamped to it.
}

// NewScale returns the Scale mapping src onto dst.
//
// It must be recomputed whenever either frame size changes.
func NewScale(src, dst image.Rectangle) Scale {
	return Scale{
		X:      float64(dst.Dx()) / float64(src.Dx()),
		Y:      float64(dst.Dy()) / float64(src.Dy()),
		Origin: src.Min,
		Bounds: dst,
	}
}

// Inverse returns the Scale mapping back onto src.
func (s Scale) Inverse(src image.Rectangle) Scale {
	return Scale{X: 1 / s.X, Y: 1 / s.Y, Origin: s.Bounds.Min, Bounds: src}
}

// Rescale maps b into the target frame.
//
// Every coordinate is made relative to the thermal origin, multiplied by its
// scale factor then truncated toward zero, not rounded, and offset by the
// target origin. The rectangle is then clamped to the target bounds and the
// centroid clamped into the rectangle. Pixels is left untouched.
//
// Returns ErrOutOfBounds if nothing of the rectangle is left after clamping.
func Rescale(b Blob, s Scale) (Blob, error) {
	o, d := s.Origin, s.Bounds.Min
	out := Blob{
		X:      trunc(b.X-o.X, s.X) + d.X,
		Y:      trunc(b.Y-o.Y, s.Y) + d.Y,
		W:      trunc(b.W, s.X),
		H:      trunc(b.H, s.Y),
		CX:     trunc(b.CX-o.X, s.X) + d.X,
		CY:     trunc(b.CY-o.Y, s.Y) + d.Y,
		Pixels: b.Pixels,
	}
	out.X, out.W = clampSpan(out.X, out.W, s.Bounds.Min.X, s.Bounds.Max.X)
	out.Y, out.H = clampSpan(out.Y, out.H, s.Bounds.Min.Y, s.Bounds.Max.Y)
	if out.W <= 0 || out.H <= 0 {
		return Blob{}, fmt.Errorf("%w: %s scaled by (%g, %g) in %s", ErrOutOfBounds, b.Rect(), s.X, s.Y, s.Bounds)
	}
	out.CX = clamp(out.CX, out.X, out.X+out.W-1)
	out.CY = clamp(out.CY, out.Y, out.Y+out.H-1)
	return out, nil
}

// trunc scales v and truncates toward zero.
func trunc(v int, f float64) int {
	return int(math.Trunc(float64(v) * f))
}

// clampSpan clamps [start, start+length) into [lo, limit).
func clampSpan(start, length, lo, limit int) (int, int) {
	if start < lo {
		length -= lo - start
		start = lo
	}
	if start >= limit {
		return start, 0
	}
	if start+length > limit {
		length = limit - start
	}
	return start, length
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
