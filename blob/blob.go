// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package blob finds hotspots in a thermal frame.
//
// A blob is a connected group of pixels matching a threshold set. Components
// is a pure Go implementation; package blob/cv implements the same Finder on
// top of OpenCV and is only built with the opencv build tag.
package blob

import (
	"image"

	"github.com/maruel/lepton-overlay/overlay"
)

// Options controls which blobs are reported.
type Options struct {
	// Pixels is the minimum number of matching pixels of a blob.
	Pixels int
	// Area is the minimum bounding rectangle area of a blob.
	Area int
	// Merge merges blobs whose bounding rectangles overlap.
	Merge bool
	// Margin grows the bounding rectangles by this many pixels when testing for
	// overlap. Only used when Merge is set.
	Margin int
}

// DefaultOptions returns the options used for a frame of bounds b: a blob must
// cover at least 1% of the frame, and overlapping blobs are merged.
func DefaultOptions(b image.Rectangle) Options {
	s := b.Dx() * b.Dy() / 100
	return Options{Pixels: s, Area: s, Merge: true}
}

// Finder finds blobs in a frame.
//
// The same thresholds must be passed to overlay.Pipeline so that what is
// measured is what was detected.
type Finder interface {
	Find(f *image.Gray, th overlay.Thresholds, opts Options) ([]overlay.Blob, error)
}

// Filter returns the blobs passing the Pixels and Area minimums, in order.
func Filter(blobs []overlay.Blob, opts Options) []overlay.Blob {
	out := blobs[:0:0]
	for _, b := range blobs {
		if b.Pixels < opts.Pixels || b.Area() < opts.Area {
			continue
		}
		out = append(out, b)
	}
	return out
}

// Merge merges the blobs whose bounding rectangles, grown by margin, overlap.
//
// A merged blob takes the union of the rectangles, the sum of the pixels and
// the pixel-weighted centroid. It keeps the position of the first blob of the
// group in the output. Merging repeats until no two blobs overlap.
func Merge(blobs []overlay.Blob, margin int) []overlay.Blob {
	out := append([]overlay.Blob(nil), blobs...)
	for changed := true; changed; {
		changed = false
		for i := 0; i < len(out); i++ {
			for j := i + 1; j < len(out); j++ {
				if !grow(out[i].Rect(), margin).Overlaps(out[j].Rect()) {
					continue
				}
				out[i] = union(out[i], out[j])
				out = append(out[:j], out[j+1:]...)
				changed = true
				j--
			}
		}
	}
	return out
}

func grow(r image.Rectangle, margin int) image.Rectangle {
	return image.Rectangle{Min: r.Min.Sub(image.Pt(margin, margin)), Max: r.Max.Add(image.Pt(margin, margin))}
}

func union(a, b overlay.Blob) overlay.Blob {
	r := a.Rect().Union(b.Rect())
	out := overlay.Blob{X: r.Min.X, Y: r.Min.Y, W: r.Dx(), H: r.Dy(), Pixels: a.Pixels + b.Pixels}
	if out.Pixels == 0 {
		// Unknown weights.
		out.CX = (a.CX + b.CX) / 2
		out.CY = (a.CY + b.CY) / 2
		return out
	}
	out.CX = (a.CX*a.Pixels + b.CX*b.Pixels) / out.Pixels
	out.CY = (a.CY*a.Pixels + b.CY*b.Pixels) / out.Pixels
	return out
}

// Post applies Filter then Merge as specified by opts.
//
// Filtering happens before merging so that noise doesn't join real blobs, then
// again after so that the merged blobs honor the minimums too.
func Post(blobs []overlay.Blob, opts Options) []overlay.Blob {
	out := Filter(blobs, opts)
	if opts.Merge {
		out = Filter(Merge(out, opts.Margin), opts)
	}
	return out
}

// AutoThreshold returns a threshold selecting the hottest fraction of the
// frame, e.g. 0.05 selects approximately the hottest 5% of the pixels.
//
// It is useful when the scene temperature is unknown.
func AutoThreshold(f *image.Gray, fraction float64) overlay.Threshold {
	var hist [256]int
	n := 0
	b := f.Rect
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := f.PixOffset(b.Min.X, y)
		for _, v := range f.Pix[off : off+b.Dx()] {
			hist[v]++
			n++
		}
	}
	want := int(fraction * float64(n))
	sum := 0
	for i := 255; i > 0; i-- {
		sum += hist[i]
		if sum >= want {
			return overlay.Threshold{Lo: uint8(i), Hi: 255}
		}
	}
	return overlay.Threshold{Lo: 0, Hi: 255}
}
