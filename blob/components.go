// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package blob

import (
	"image"

	"github.com/maruel/lepton-overlay/overlay"
)

// Components is a Finder labeling 8-connected components.
type Components struct{}

// Find implements Finder.
//
// Blobs are returned in raster order of their first pixel.
func (Components) Find(f *image.Gray, th overlay.Thresholds, opts Options) ([]overlay.Blob, error) {
	if err := th.Validate(); err != nil {
		return nil, err
	}
	b := f.Rect
	w, h := b.Dx(), b.Dy()
	visited := make([]bool, w*h)
	match := func(x, y int) bool {
		return th.Match(f.Pix[f.PixOffset(b.Min.X+x, b.Min.Y+y)])
	}
	var blobs []overlay.Blob
	var stack []image.Point
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if visited[y*w+x] || !match(x, y) {
				continue
			}
			minX, minY, maxX, maxY := x, y, x, y
			sumX, sumY, n := 0, 0, 0
			stack = append(stack[:0], image.Pt(x, y))
			visited[y*w+x] = true
			for len(stack) != 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				n++
				sumX += p.X
				sumY += p.Y
				minX, maxX = min(minX, p.X), max(maxX, p.X)
				minY, maxY = min(minY, p.Y), max(maxY, p.Y)
				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						nx, ny := p.X+dx, p.Y+dy
						if nx < 0 || nx >= w || ny < 0 || ny >= h || visited[ny*w+nx] || !match(nx, ny) {
							continue
						}
						visited[ny*w+nx] = true
						stack = append(stack, image.Pt(nx, ny))
					}
				}
			}
			blobs = append(blobs, overlay.Blob{
				X: b.Min.X + minX, Y: b.Min.Y + minY,
				W: maxX - minX + 1, H: maxY - minY + 1,
				CX: b.Min.X + sumX/n, CY: b.Min.Y + sumY/n,
				Pixels: n,
			})
		}
	}
	return Post(blobs, opts), nil
}
