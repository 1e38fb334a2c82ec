// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package overlay

import (
	"errors"
	"image"

	log "github.com/sirupsen/logrus"
)

// Pipeline runs Aggregate, Rescale and Annotate for each frame pair.
//
// It is safe for concurrent use since it is immutable.
type Pipeline struct {
	r  Range
	th Thresholds
}

// New returns a Pipeline for the temperature range and threshold set.
//
// The returned error wraps ErrInvalidRange or ErrInvalidThreshold. It must be
// treated as fatal: no frame can be processed with an invalid configuration.
func New(r Range, th Thresholds) (*Pipeline, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if err := th.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{r: r, th: append(Thresholds(nil), th...)}, nil
}

// Range returns the configured temperature range.
func (p *Pipeline) Range() Range {
	return p.r
}

// Thresholds returns a copy of the configured thresholds.
func (p *Pipeline) Thresholds() Thresholds {
	return append(Thresholds(nil), p.th...)
}

// Result is the outcome of processing one frame pair.
type Result struct {
	Scale       Scale
	Readings    []Reading    // One per input blob, in thermal coordinates.
	Annotations []Annotation // In target coordinates; dropped blobs excluded.
	Empty       int          // Blobs dropped with ErrEmptyRegion.
	OutOfBounds int          // Blobs dropped with ErrOutOfBounds.
}

// Dropped returns the number of blobs without annotation.
func (r *Result) Dropped() int {
	return r.Empty + r.OutOfBounds
}

// Process measures blobs found in thermal and annotates them for a target
// frame of bounds target.
//
// Per-blob failures are not returned; they are logged, counted in Result and
// the blob is skipped. An error is only returned when either frame is empty.
func (p *Pipeline) Process(thermal *image.Gray, target image.Rectangle, blobs []Blob) (*Result, error) {
	if thermal == nil || thermal.Rect.Empty() {
		return nil, errors.New("overlay: empty thermal frame")
	}
	if target.Empty() {
		return nil, errors.New("overlay: empty target frame")
	}
	res := &Result{
		Scale:    NewScale(thermal.Rect, target),
		Readings: Aggregate(thermal, blobs, p.th, p.r),
	}
	scaled := make([]Reading, 0, len(res.Readings))
	for i := range res.Readings {
		r := &res.Readings[i]
		if r.Err != nil {
			res.Empty++
			log.Debugf("overlay: dropping blob %d: %v", i, r.Err)
			continue
		}
		b, err := Rescale(r.Blob, res.Scale)
		if err != nil {
			r.Err = err
			res.OutOfBounds++
			log.Debugf("overlay: dropping blob %d: %v", i, err)
			continue
		}
		scaled = append(scaled, Reading{Blob: b, Celsius: r.Celsius})
	}
	res.Annotations = Annotate(scaled)
	return res, nil
}
