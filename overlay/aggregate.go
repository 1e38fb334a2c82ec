// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package overlay

import (
	"fmt"
	"image"
)

// Mean returns the mean intensity of the pixels within rect that match th.
//
// rect is intersected with the frame bounds first. Returns ErrEmptyRegion if
// no pixel qualifies.
func Mean(f *image.Gray, rect image.Rectangle, th Thresholds) (float64, error) {
	rect = rect.Intersect(f.Rect)
	sum := uint64(0)
	n := uint64(0)
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		off := f.PixOffset(rect.Min.X, y)
		for _, v := range f.Pix[off : off+rect.Dx()] {
			if th.Match(v) {
				sum += uint64(v)
				n++
			}
		}
	}
	if n == 0 {
		return 0, fmt.Errorf("%w: %s", ErrEmptyRegion, rect)
	}
	return float64(sum) / float64(n), nil
}

// Aggregate estimates the temperature of each blob.
//
// It returns exactly one Reading per blob, in the same order. Overlapping or
// duplicate blobs are passed through as is. A blob with no qualifying pixel
// has its Err set to an error wrapping ErrEmptyRegion.
func Aggregate(f *image.Gray, blobs []Blob, th Thresholds, r Range) []Reading {
	out := make([]Reading, len(blobs))
	for i, b := range blobs {
		out[i].Blob = b
		m, err := Mean(f, b.Rect(), th)
		if err != nil {
			out[i].Err = err
			continue
		}
		out[i].Celsius = Temperature(m, r)
	}
	return out
}
