// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

//go:build opencv

// Package cv captures visible-light frames through OpenCV.
package cv

import (
	"errors"
	"fmt"
	"image"
	"strconv"
	"sync"

	"gocv.io/x/gocv"

	"github.com/maruel/lepton-overlay/visible"
)

// Camera reads frames from a video device, stream or file through OpenCV.
type Camera struct {
	mu  sync.Mutex
	cap *gocv.VideoCapture
	mat gocv.Mat
	b   image.Rectangle
}

// Open opens a video capture.
//
// name is either a device index ("0") or anything OpenCV can open: a file
// path or a stream URL. A non-zero width and height is requested from the
// device; it may pick another resolution.
func Open(name string, width, height int) (*Camera, error) {
	var dev interface{} = name
	if i, err := strconv.Atoi(name); err == nil {
		dev = i
	}
	vc, err := gocv.OpenVideoCapture(dev)
	if err != nil {
		return nil, fmt.Errorf("visible: %w", err)
	}
	if width != 0 && height != 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(width))
		vc.Set(gocv.VideoCaptureFrameHeight, float64(height))
	}
	// Only keep the latest frame so reads are not lagging.
	vc.Set(gocv.VideoCaptureBufferSize, 1)
	c := &Camera{cap: vc, mat: gocv.NewMat()}
	if ok := vc.Read(&c.mat); !ok || c.mat.Empty() {
		c.Close()
		return nil, fmt.Errorf("visible: could not read first frame from %q", name)
	}
	c.b = image.Rect(0, 0, c.mat.Cols(), c.mat.Rows())
	return c, nil
}

// Bounds returns the frame bounds as measured on the first frame.
func (c *Camera) Bounds() image.Rectangle {
	return c.b
}

// Acquire returns the next frame.
//
// The capture is always blocking; blocking is accepted to fit the thermal
// source interface.
func (c *Camera) Acquire(blocking bool) (image.Image, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cap == nil {
		return nil, visible.ErrClosed
	}
	if ok := c.cap.Read(&c.mat); !ok || c.mat.Empty() {
		return nil, errors.New("visible: read failed")
	}
	img, err := c.mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("visible: %w", err)
	}
	return img, nil
}

func (c *Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cap == nil {
		return nil
	}
	err := c.cap.Close()
	c.cap = nil
	c.mat.Close()
	return err
}
