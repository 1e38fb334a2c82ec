// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

//go:build opencv

// Package cv implements blob.Finder with OpenCV.
package cv

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/maruel/lepton-overlay/blob"
	"github.com/maruel/lepton-overlay/overlay"
)

// Finder finds blobs as the external contours of the thresholded frame.
//
// Holes inside a contour are part of the blob's rectangle but their pixels
// are not counted.
type Finder struct{}

// Find implements blob.Finder.
func (Finder) Find(f *image.Gray, th overlay.Thresholds, opts blob.Options) ([]overlay.Blob, error) {
	if err := th.Validate(); err != nil {
		return nil, err
	}
	src, err := gocv.ImageGrayToMatGray(f)
	if err != nil {
		return nil, fmt.Errorf("cv: %w", err)
	}
	defer src.Close()
	mask := Mask(src, th)
	defer mask.Close()

	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxNone)
	defer contours.Close()
	off := f.Rect.Min
	blobs := make([]overlay.Blob, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		r := gocv.BoundingRect(contours.At(i))
		if r.Empty() {
			continue
		}
		region := mask.Region(r)
		n := gocv.CountNonZero(region)
		m := gocv.Moments(region, true)
		region.Close()
		b := overlay.Blob{X: r.Min.X + off.X, Y: r.Min.Y + off.Y, W: r.Dx(), H: r.Dy(), Pixels: n}
		if m["m00"] != 0 {
			b.CX = b.X + int(m["m10"]/m["m00"])
			b.CY = b.Y + int(m["m01"]/m["m00"])
		} else {
			b.CX = b.X + b.W/2
			b.CY = b.Y + b.H/2
		}
		blobs = append(blobs, b)
	}
	return blob.Post(blobs, opts), nil
}

// Mask returns a binary mask of the pixels of src matching any of th.
//
// The caller must close the returned Mat.
func Mask(src gocv.Mat, th overlay.Thresholds) gocv.Mat {
	mask := gocv.NewMat()
	tmp := gocv.NewMat()
	defer tmp.Close()
	for i, t := range th {
		lo := gocv.NewScalar(float64(t.Lo), 0, 0, 0)
		hi := gocv.NewScalar(float64(t.Hi), 0, 0, 0)
		if i == 0 {
			gocv.InRangeWithScalar(src, lo, hi, &mask)
			continue
		}
		gocv.InRangeWithScalar(src, lo, hi, &tmp)
		gocv.BitwiseOr(mask, tmp, &mask)
	}
	return mask
}
