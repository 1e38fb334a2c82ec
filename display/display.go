// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package display writes composited frames to their final destination: an
// image file or a web page streaming over a websocket.
package display

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	"github.com/maruel/lepton-overlay/compose"
)

// Hint is how a frame is fit into the display.
type Hint struct {
	// Width and Height of the display. When either is 0, frames are written
	// at their own size.
	Width  int
	Height int
	Filter compose.Hint
	// Center centers the frame, otherwise it is drawn at the top left.
	Center bool
	// KeepAspect scales both axes by the same factor, otherwise the frame is
	// stretched to fill the display.
	KeepAspect bool
}

// Sink is a display.
type Sink interface {
	Write(img image.Image, h Hint) error
}

// Fit returns img fitted into the display described by h.
//
// The area not covered by the frame is black.
func Fit(img image.Image, h Hint) image.Image {
	if h.Width <= 0 || h.Height <= 0 {
		return img
	}
	b := img.Bounds()
	if b.Empty() {
		return imaging.New(h.Width, h.Height, color.Black)
	}
	w, ht := h.Width, h.Height
	if h.KeepAspect {
		sx := float64(h.Width) / float64(b.Dx())
		sy := float64(h.Height) / float64(b.Dy())
		s := min(sx, sy)
		w = max(1, int(float64(b.Dx())*s))
		ht = max(1, int(float64(b.Dy())*s))
	}
	scaled := imaging.Resize(img, w, ht, h.Filter.Filter())
	if w == h.Width && ht == h.Height {
		return scaled
	}
	bg := imaging.New(h.Width, h.Height, color.Black)
	if h.Center {
		return imaging.PasteCenter(bg, scaled)
	}
	return imaging.Paste(bg, scaled, image.Point{})
}

// FileSink rewrites an image file at each frame.
//
// The file is replaced atomically so a reader never sees a partial image.
type FileSink struct {
	Path    string
	Quality int // JPEG and WebP quality, 1-100.
}

// Write implements Sink.
func (f *FileSink) Write(img image.Image, h Hint) error {
	img = Fit(img, h)
	tmp, err := os.CreateTemp(filepath.Dir(f.Path), "."+filepath.Base(f.Path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if err := f.encode(tmp, img); err != nil {
		tmp.Close()
		return fmt.Errorf("display: %s: %w", f.Path, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.Path)
}

func (f *FileSink) encode(w *os.File, img image.Image) error {
	q := f.Quality
	if q <= 0 || q > 100 {
		q = 85
	}
	if strings.EqualFold(filepath.Ext(f.Path), ".webp") {
		return webp.Encode(w, img, &webp.Options{Quality: float32(q)})
	}
	format, err := imaging.FormatFromFilename(f.Path)
	if err != nil {
		return err
	}
	return imaging.Encode(w, img, format, imaging.JPEGQuality(q))
}
