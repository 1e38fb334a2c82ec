// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

//go:build opencv

package cv

import (
	"image"
	"testing"

	"gocv.io/x/gocv"

	"github.com/maruel/lepton-overlay/blob"
	"github.com/maruel/lepton-overlay/overlay"
)

func TestFinder(t *testing.T) {
	f := image.NewGray(image.Rect(0, 0, 40, 30))
	fill(f, image.Rect(2, 2, 6, 6), 250)
	fill(f, image.Rect(20, 10, 30, 20), 220)
	fill(f, image.Rect(35, 25, 36, 26), 255)
	th := overlay.Thresholds{{Lo: 200, Hi: 255}}
	blobs, err := Finder{}.Find(f, th, blob.Options{Pixels: 4})
	if err != nil {
		t.Fatal(err)
	}
	if len(blobs) != 2 {
		t.Fatal(blobs)
	}
	// Contour order is an OpenCV detail; compare with the pure Go finder.
	want, err := blob.Components{}.Find(f, th, blob.Options{Pixels: 4})
	if err != nil {
		t.Fatal(err)
	}
	for _, w := range want {
		found := false
		for _, b := range blobs {
			if b.Rect() == w.Rect() && b.Pixels == w.Pixels {
				found = true
				if d := b.CX - w.CX; d < -1 || d > 1 {
					t.Errorf("centroid %v vs %v", b, w)
				}
			}
		}
		if !found {
			t.Errorf("missing %v in %v", w, blobs)
		}
	}
}

func TestMask(t *testing.T) {
	f := image.NewGray(image.Rect(0, 0, 4, 1))
	copy(f.Pix, []uint8{10, 50, 150, 250})
	src, err := gocv.ImageGrayToMatGray(f)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()
	m := Mask(src, overlay.Thresholds{{Lo: 0, Hi: 20}, {Lo: 200, Hi: 255}})
	defer m.Close()
	if n := gocv.CountNonZero(m); n != 2 {
		t.Fatal(n)
	}
}

func TestFinder_InvalidThreshold(t *testing.T) {
	if _, err := (Finder{}).Find(image.NewGray(image.Rect(0, 0, 2, 2)), overlay.Thresholds{{Lo: 2, Hi: 1}}, blob.Options{}); err == nil {
		t.Fatal("expected error")
	}
}

func fill(f *image.Gray, r image.Rectangle, v uint8) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			f.Pix[f.PixOffset(x, y)] = v
		}
	}
}
