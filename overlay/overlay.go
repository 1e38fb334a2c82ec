// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package overlay maps thermal hotspots onto a visible-light frame.
//
// A thermal frame is an 8 bits grayscale image where each intensity linearly
// represents a temperature within a configured Range. Hotspots are found by an
// external blob finder; this package measures each of them, rescales their
// geometry into the visible frame and produces the annotations to draw.
//
// Nothing in this package retains state across frames besides the Range and
// Thresholds given to New.
package overlay

import (
	"errors"
	"fmt"
	"image"
)

// Errors returned by this package. Compare with errors.Is().
var (
	// ErrInvalidRange is returned when a Range has Min >= Max.
	ErrInvalidRange = errors.New("invalid temperature range")
	// ErrInvalidThreshold is returned when a Threshold has Lo > Hi or when no
	// threshold is specified.
	ErrInvalidThreshold = errors.New("invalid threshold")
	// ErrEmptyRegion is returned when a blob contains no pixel matching the
	// thresholds, so its mean is undefined.
	ErrEmptyRegion = errors.New("no pixel in region matches thresholds")
	// ErrOutOfBounds is returned when a rescaled blob has no area left after
	// being clamped to the target frame.
	ErrOutOfBounds = errors.New("region out of target bounds")
)

// Range is the closed interval of temperatures in °C mapped to intensities
// [0, 255].
type Range struct {
	Min float64
	Max float64
}

// Validate returns ErrInvalidRange if Min >= Max.
func (r Range) Validate() error {
	// Written as a negation so NaN is rejected too.
	if !(r.Min < r.Max) {
		return fmt.Errorf("%w: [%g, %g]", ErrInvalidRange, r.Min, r.Max)
	}
	return nil
}

func (r Range) String() string {
	return fmt.Sprintf("[%.2f C, %.2f C]", r.Min, r.Max)
}

// Threshold is an inclusive grayscale interval.
type Threshold struct {
	Lo uint8
	Hi uint8
}

// Contains returns true if v is within [Lo, Hi].
func (t Threshold) Contains(v uint8) bool {
	return v >= t.Lo && v <= t.Hi
}

// Thresholds is a set of intervals. A pixel qualifies if any interval
// contains it.
//
// The same set must be used for detection and for measurement so that what is
// measured is what was detected.
type Thresholds []Threshold

// Match returns true if v is contained in any of the intervals.
func (t Thresholds) Match(v uint8) bool {
	for _, i := range t {
		if i.Contains(v) {
			return true
		}
	}
	return false
}

// Validate returns ErrInvalidThreshold if the set is empty or an interval is
// inverted.
func (t Thresholds) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("%w: none specified", ErrInvalidThreshold)
	}
	for _, i := range t {
		if i.Lo > i.Hi {
			return fmt.Errorf("%w: (%d, %d)", ErrInvalidThreshold, i.Lo, i.Hi)
		}
	}
	return nil
}

// Blob is a hotspot as reported by a blob finder.
//
// X, Y, W, H describe the bounding rectangle and CX, CY the centroid, all in
// the coordinate space of the frame the blob was found in.
type Blob struct {
	X, Y, W, H int
	CX, CY     int
	Pixels     int // Number of pixels matching the thresholds; 0 if unknown.
}

// Rect returns the bounding rectangle.
func (b Blob) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.W, b.Y+b.H)
}

// Centroid returns the centroid.
func (b Blob) Centroid() image.Point {
	return image.Pt(b.CX, b.CY)
}

// Area returns the bounding rectangle area.
func (b Blob) Area() int {
	return b.W * b.H
}

// Reading is a blob with its estimated temperature.
//
// Err is set when the temperature could not be estimated or when the blob
// could not be rescaled; Celsius is then meaningless.
type Reading struct {
	Blob    Blob
	Celsius float64
	Err     error
}

// Annotation is what is drawn for one hotspot, in target frame coordinates.
type Annotation struct {
	Rect    image.Rectangle `json:"rect"`
	Cross   image.Point     `json:"cross"`
	Label   string          `json:"label"`
	LabelAt image.Point     `json:"label_at"`
	Celsius float64         `json:"celsius"`
}
