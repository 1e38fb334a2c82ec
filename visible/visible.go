// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package visible provides visible-light frame sources.
//
// Still is pure Go. Cameras are in package visible/cv, which needs OpenCV and
// is only built with the opencv build tag.
package visible

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// ErrClosed is returned by Acquire once the source is closed.
var ErrClosed = errors.New("visible: source closed")

// Still returns the same image at each Acquire.
//
// It stands in for a camera when aligning the overlay on a known scene.
type Still struct {
	img *image.NRGBA
}

// Load loads an image file as a Still.
func Load(path string) (*Still, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("visible: %w", err)
	}
	return NewStill(img), nil
}

// NewStill returns a Still for img.
func NewStill(img image.Image) *Still {
	return &Still{img: imaging.Clone(img)}
}

func (s *Still) Bounds() image.Rectangle {
	return s.img.Rect
}

// Acquire returns a copy of the image, so the caller can draw on it.
func (s *Still) Acquire(blocking bool) (image.Image, error) {
	return imaging.Clone(s.img), nil
}

func (s *Still) Close() error {
	return nil
}
