// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package overlay

import (
	"errors"
	"image"
	"image/color"
	"math/rand"
	"reflect"
	"testing"
)

var defaultRange = Range{Min: 20, Max: 40}

func TestTemperature_endpoints(t *testing.T) {
	if v := Temperature(255, defaultRange); v != 40 {
		t.Fatal(v)
	}
	if v := Temperature(0, defaultRange); v != 20 {
		t.Fatal(v)
	}
	// Ranges that do not round trip nicely in float64.
	for _, r := range []Range{{0.1, 0.3}, {-40.7, 120.3}, {1e-9, 3e-9}, {-0.3, -0.1}} {
		if v := Temperature(0, r); v != r.Min {
			t.Fatalf("%s: %g", r, v)
		}
		if v := Temperature(255, r); v != r.Max {
			t.Fatalf("%s: %g", r, v)
		}
	}
}

func TestTemperature_monotonic(t *testing.T) {
	for _, r := range []Range{defaultRange, {0.1, 0.3}, {-40.7, 120.3}} {
		prev := Temperature(0, r)
		for i := 1; i <= 255*16; i++ {
			v := Temperature(float64(i)/16, r)
			if v < prev {
				t.Fatalf("%s: %g < %g at %d/16", r, v, prev, i)
			}
			prev = v
		}
	}
}

func TestTemperature_extrapolate(t *testing.T) {
	if v := Temperature(-255, defaultRange); v != 0 {
		t.Fatal(v)
	}
	if v := Temperature(510, defaultRange); v != 60 {
		t.Fatal(v)
	}
}

func TestRange_Validate(t *testing.T) {
	if err := defaultRange.Validate(); err != nil {
		t.Fatal(err)
	}
	for _, r := range []Range{{40, 20}, {20, 20}} {
		if err := r.Validate(); !errors.Is(err, ErrInvalidRange) {
			t.Fatalf("%s: %v", r, err)
		}
	}
}

func TestThresholds_Validate(t *testing.T) {
	if err := (Thresholds{{200, 255}}).Validate(); err != nil {
		t.Fatal(err)
	}
	if err := (Thresholds{}).Validate(); !errors.Is(err, ErrInvalidThreshold) {
		t.Fatal(err)
	}
	if err := (Thresholds{{10, 20}, {30, 5}}).Validate(); !errors.Is(err, ErrInvalidThreshold) {
		t.Fatal(err)
	}
}

func TestThresholds_Match(t *testing.T) {
	th := Thresholds{{10, 20}, {200, 255}}
	data := []struct {
		v    uint8
		want bool
	}{
		{0, false}, {10, true}, {20, true}, {21, false}, {199, false}, {200, true}, {255, true},
	}
	for _, line := range data {
		if got := th.Match(line.v); got != line.want {
			t.Errorf("Match(%d): got %t, want %t", line.v, got, line.want)
		}
	}
}

func TestMean(t *testing.T) {
	f := image.NewGray(image.Rect(0, 0, 8, 8))
	f.SetGray(2, 2, grayOf(200))
	f.SetGray(3, 2, grayOf(250))
	f.SetGray(3, 3, grayOf(100)) // Below threshold.
	m, err := Mean(f, image.Rect(0, 0, 4, 4), Thresholds{{200, 255}})
	if err != nil {
		t.Fatal(err)
	}
	if m != 225 {
		t.Fatal(m)
	}
	// Partially outside the frame.
	if m, err = Mean(f, image.Rect(3, -10, 100, 3), Thresholds{{200, 255}}); err != nil || m != 250 {
		t.Fatal(m, err)
	}
	if _, err = Mean(f, image.Rect(100, 100, 110, 110), Thresholds{{0, 255}}); !errors.Is(err, ErrEmptyRegion) {
		t.Fatal(err)
	}
}

func TestMean_subImage(t *testing.T) {
	f := image.NewGray(image.Rect(0, 0, 8, 8))
	f.SetGray(5, 5, grayOf(210))
	sub := f.SubImage(image.Rect(4, 4, 8, 8)).(*image.Gray)
	m, err := Mean(sub, image.Rect(0, 0, 8, 8), Thresholds{{200, 255}})
	if err != nil || m != 210 {
		t.Fatal(m, err)
	}
}

func TestAggregate(t *testing.T) {
	f := image.NewGray(image.Rect(0, 0, 80, 60))
	fill(f, image.Rect(10, 10, 14, 14), 255)
	fill(f, image.Rect(40, 40, 44, 44), 100)
	blobs := []Blob{
		{X: 10, Y: 10, W: 4, H: 4, CX: 12, CY: 12},
		{X: 40, Y: 40, W: 4, H: 4, CX: 42, CY: 42},
		{X: 10, Y: 10, W: 4, H: 4, CX: 12, CY: 12},
	}
	got := Aggregate(f, blobs, Thresholds{{200, 255}}, defaultRange)
	if len(got) != 3 {
		t.Fatal(got)
	}
	if got[0].Err != nil || got[0].Celsius != 40 || got[0].Blob != blobs[0] {
		t.Fatalf("%#v", got[0])
	}
	if !errors.Is(got[1].Err, ErrEmptyRegion) {
		t.Fatalf("%#v", got[1])
	}
	// Duplicates are passed through.
	if got[2].Err != nil || got[2].Celsius != 40 {
		t.Fatalf("%#v", got[2])
	}
}

func TestRescale(t *testing.T) {
	s := NewScale(image.Rect(0, 0, 80, 60), image.Rect(0, 0, 640, 480))
	if s.X != 8 || s.Y != 8 {
		t.Fatal(s)
	}
	got, err := Rescale(Blob{X: 10, Y: 10, W: 4, H: 4, CX: 12, CY: 12, Pixels: 16}, s)
	if err != nil {
		t.Fatal(err)
	}
	want := Blob{X: 80, Y: 80, W: 32, H: 32, CX: 96, CY: 96, Pixels: 16}
	if got != want {
		t.Fatalf("got %#v, want %#v", got, want)
	}
}

func TestRescale_truncate(t *testing.T) {
	// A 3.5 ratio exercises truncation.
	s := Scale{X: 3.5, Y: 3.5, Bounds: image.Rect(0, 0, 1000, 1000)}
	got, err := Rescale(Blob{X: 7, Y: 5, W: 5, H: 3, CX: 9, CY: 6}, s)
	if err != nil {
		t.Fatal(err)
	}
	want := Blob{X: 24, Y: 17, W: 17, H: 10, CX: 31, CY: 21}
	if got != want {
		t.Fatalf("got %#v, want %#v", got, want)
	}
}

func TestRescale_clamp(t *testing.T) {
	s := Scale{X: 2, Y: 2, Bounds: image.Rect(0, 0, 100, 50)}
	got, err := Rescale(Blob{X: 45, Y: 20, W: 10, H: 10, CX: 54, CY: 29}, s)
	if err != nil {
		t.Fatal(err)
	}
	want := Blob{X: 90, Y: 40, W: 10, H: 10, CX: 99, CY: 49}
	if got != want {
		t.Fatalf("got %#v, want %#v", got, want)
	}
	got, err = Rescale(Blob{X: -5, Y: -5, W: 10, H: 10, CX: -1, CY: 0}, s)
	if err != nil {
		t.Fatal(err)
	}
	want = Blob{X: 0, Y: 0, W: 10, H: 10, CX: 0, CY: 0}
	if got != want {
		t.Fatalf("got %#v, want %#v", got, want)
	}
}

func TestRescale_outOfBounds(t *testing.T) {
	s := Scale{X: 2, Y: 2, Bounds: image.Rect(0, 0, 100, 50)}
	for _, b := range []Blob{{X: 60, Y: 0, W: 4, H: 4}, {X: 0, Y: 0, W: 0, H: 4}, {X: -10, Y: 0, W: 4, H: 4}} {
		if _, err := Rescale(b, s); !errors.Is(err, ErrOutOfBounds) {
			t.Fatalf("%#v: %v", b, err)
		}
	}
}

func TestRescale_origin(t *testing.T) {
	// Thermal sub-image at (80, 60) onto a target at (100, 10).
	s := NewScale(image.Rect(80, 60, 160, 120), image.Rect(100, 10, 740, 490))
	got, err := Rescale(Blob{X: 90, Y: 70, W: 4, H: 4, CX: 92, CY: 72}, s)
	if err != nil {
		t.Fatal(err)
	}
	want := Blob{X: 180, Y: 90, W: 32, H: 32, CX: 196, CY: 106}
	if got != want {
		t.Fatalf("got %#v, want %#v", got, want)
	}
	// Left of the target.
	got, err = Rescale(Blob{X: 78, Y: 70, W: 4, H: 4, CX: 79, CY: 72}, s)
	if err != nil {
		t.Fatal(err)
	}
	if got.X != 100 || got.W != 16 || got.CX != 100 {
		t.Fatalf("%#v", got)
	}
	back, err := Rescale(want, s.Inverse(image.Rect(80, 60, 160, 120)))
	if err != nil {
		t.Fatal(err)
	}
	if back.Rect() != image.Rect(90, 70, 94, 74) {
		t.Fatal(back.Rect())
	}
}

func TestRescale_roundTrip(t *testing.T) {
	src := image.Rect(0, 0, 80, 60)
	targets := []image.Rectangle{
		image.Rect(0, 0, 640, 480),
		image.Rect(0, 0, 800, 480),
		image.Rect(0, 0, 280, 210),
		image.Rect(0, 0, 854, 480),
	}
	rnd := rand.New(rand.NewSource(0))
	for _, dst := range targets {
		s := NewScale(src, dst)
		inv := s.Inverse(src)
		for i := 0; i < 1000; i++ {
			b := Blob{X: rnd.Intn(70), Y: rnd.Intn(50)}
			// A 1 pixel wide blob may truncate to nothing on the way back.
			b.W = 2 + rnd.Intn(80-b.X-1)
			b.H = 2 + rnd.Intn(60-b.Y-1)
			b.CX = b.X + rnd.Intn(b.W)
			b.CY = b.Y + rnd.Intn(b.H)
			up, err := Rescale(b, s)
			if err != nil {
				t.Fatal(err)
			}
			if up.X < 0 || up.Y < 0 || up.W <= 0 || up.H <= 0 || up.X+up.W > dst.Dx() || up.Y+up.H > dst.Dy() {
				t.Fatalf("%s: %#v out of bounds", dst, up)
			}
			down, err := Rescale(up, inv)
			if err != nil {
				t.Fatal(err)
			}
			for _, d := range [][2]int{{b.X, down.X}, {b.Y, down.Y}, {b.W, down.W}, {b.H, down.H}} {
				if diff := d[0] - d[1]; diff < -1 || diff > 1 {
					t.Fatalf("%s: %#v -> %#v -> %#v", dst, b, up, down)
				}
			}
		}
	}
}

func TestAnnotate(t *testing.T) {
	got := Annotate([]Reading{
		{Blob: Blob{X: 80, Y: 80, W: 32, H: 32, CX: 96, CY: 95}, Celsius: 36.666},
		{Blob: Blob{X: 1, Y: 1, W: 1, H: 1}, Err: ErrEmptyRegion},
	})
	want := []Annotation{{
		Rect:    image.Rect(80, 80, 112, 112),
		Cross:   image.Pt(96, 95),
		Label:   "36.67 C",
		LabelAt: image.Pt(84, 81),
		Celsius: 36.666,
	}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v, want %#v", got, want)
	}
}

func TestNew(t *testing.T) {
	if _, err := New(Range{40, 20}, Thresholds{{200, 255}}); !errors.Is(err, ErrInvalidRange) {
		t.Fatal(err)
	}
	if _, err := New(defaultRange, nil); !errors.Is(err, ErrInvalidThreshold) {
		t.Fatal(err)
	}
}

func TestPipeline_Process(t *testing.T) {
	p, err := New(defaultRange, Thresholds{{200, 255}})
	if err != nil {
		t.Fatal(err)
	}
	f := image.NewGray(image.Rect(0, 0, 80, 60))
	fill(f, image.Rect(10, 10, 14, 14), 255)
	blobs := []Blob{
		{X: 10, Y: 10, W: 4, H: 4, CX: 12, CY: 12},
		{X: 30, Y: 30, W: 4, H: 4, CX: 32, CY: 32}, // Cold.
	}
	res, err := p.Process(f, image.Rect(0, 0, 640, 480), blobs)
	if err != nil {
		t.Fatal(err)
	}
	if res.Empty != 1 || res.OutOfBounds != 0 || res.Dropped() != 1 {
		t.Fatalf("%#v", res)
	}
	want := []Annotation{{
		Rect:    image.Rect(80, 80, 112, 112),
		Cross:   image.Pt(96, 96),
		Label:   "40.00 C",
		LabelAt: image.Pt(84, 81),
		Celsius: 40,
	}}
	if !reflect.DeepEqual(res.Annotations, want) {
		t.Fatalf("got %#v, want %#v", res.Annotations, want)
	}
	// Same inputs, same outputs.
	res2, err := p.Process(f, image.Rect(0, 0, 640, 480), blobs)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(res.Annotations, res2.Annotations) {
		t.Fatal("not deterministic")
	}
}

func TestPipeline_Process_subImage(t *testing.T) {
	p, err := New(defaultRange, Thresholds{{200, 255}})
	if err != nil {
		t.Fatal(err)
	}
	full := image.NewGray(image.Rect(0, 0, 160, 120))
	fill(full, image.Rect(90, 70, 94, 74), 255)
	f := full.SubImage(image.Rect(80, 60, 160, 120)).(*image.Gray)
	res, err := p.Process(f, image.Rect(0, 0, 640, 480), []Blob{{X: 90, Y: 70, W: 4, H: 4, CX: 92, CY: 72}})
	if err != nil {
		t.Fatal(err)
	}
	if res.Dropped() != 0 || len(res.Annotations) != 1 {
		t.Fatalf("%#v", res)
	}
	if a := res.Annotations[0]; a.Rect != image.Rect(80, 80, 112, 112) || a.Cross != image.Pt(96, 96) || a.Celsius != 40 {
		t.Fatalf("%#v", a)
	}
}

func TestPipeline_Process_empty(t *testing.T) {
	p, err := New(defaultRange, Thresholds{{200, 255}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Process(nil, image.Rect(0, 0, 1, 1), nil); err == nil {
		t.Fatal("expected failure")
	}
	if _, err := p.Process(image.NewGray(image.Rect(0, 0, 1, 1)), image.Rectangle{}, nil); err == nil {
		t.Fatal("expected failure")
	}
	res, err := p.Process(image.NewGray(image.Rect(0, 0, 1, 1)), image.Rect(0, 0, 1, 1), nil)
	if err != nil || len(res.Annotations) != 0 {
		t.Fatal(res, err)
	}
}

//

func fill(f *image.Gray, r image.Rectangle, v uint8) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			f.SetGray(x, y, grayOf(v))
		}
	}
}

func grayOf(v uint8) color.Gray {
	return color.Gray{Y: v}
}
