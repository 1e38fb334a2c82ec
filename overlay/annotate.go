// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package overlay

import (
	"fmt"
	"image"
)

// LabelOffset is where the temperature label is drawn relative to the
// rectangle top-left corner.
var LabelOffset = image.Pt(4, 1)

// Label formats a temperature as drawn on screen.
func Label(celsius float64) string {
	return fmt.Sprintf("%.2f C", celsius)
}

// Annotate converts already rescaled readings into annotations.
//
// Readings with Err set are skipped.
func Annotate(readings []Reading) []Annotation {
	out := make([]Annotation, 0, len(readings))
	for _, r := range readings {
		if r.Err != nil {
			continue
		}
		rect := r.Blob.Rect()
		out = append(out, Annotation{
			Rect:    rect,
			Cross:   r.Blob.Centroid(),
			Label:   Label(r.Celsius),
			LabelAt: rect.Min.Add(LabelOffset),
			Celsius: r.Celsius,
		})
	}
	return out
}
