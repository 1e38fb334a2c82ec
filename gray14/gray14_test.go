// Copyright 2017 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gray14

import (
	"image"
	"image/color"
	"testing"

	"periph.io/x/periph/conn/physic"
)

func TestMin(t *testing.T) {
	i := image.NewGray16(image.Rect(0, 0, 0, 0))
	if m := Min(i); m != 65535 {
		t.Fatal(m)
	}
	i = image.NewGray16(image.Rect(0, 0, 2, 1))
	i.SetGray16(0, 0, color.Gray16{Y: 8000})
	i.SetGray16(1, 0, color.Gray16{Y: 8200})
	if m := Min(i); m != 8000 {
		t.Fatal(m)
	}
	if m := Max(i); m != 8200 {
		t.Fatal(m)
	}
}

func TestAGCLinear(t *testing.T) {
	i := image.NewGray16(image.Rect(0, 0, 3, 1))
	i.SetGray16(0, 0, color.Gray16{Y: 8000})
	i.SetGray16(1, 0, color.Gray16{Y: 8100})
	i.SetGray16(2, 0, color.Gray16{Y: 8200})
	d := AGCLinear(i)
	if d.Pix[0] != 0 || d.Pix[1] != 127 || d.Pix[2] != 255 {
		t.Fatal(d.Pix)
	}
	// Flat image.
	d = AGCLinear(image.NewGray16(image.Rect(0, 0, 3, 1)))
	if d.Pix[0] != 0 {
		t.Fatal(d.Pix)
	}
}

func TestRadiometric(t *testing.T) {
	lo := FromCelsius(20)
	hi := FromCelsius(40)
	i := image.NewGray16(image.Rect(0, 0, 5, 1))
	// In centi-Kelvin.
	for x, v := range []uint16{27315, 29315, 30315, 31315, 40000} {
		i.SetGray16(x, 0, color.Gray16{Y: v})
	}
	d := Radiometric(i, CentiKelvin, lo, hi)
	want := []uint8{0, 0, 127, 255, 255}
	for x, v := range want {
		if d.Pix[x] != v {
			t.Fatalf("%d: got %d, want %d", x, d.Pix[x], v)
		}
	}
}

func TestCelsius(t *testing.T) {
	if c := Celsius(physic.ZeroCelsius); c != 0 {
		t.Fatal(c)
	}
	if c := Celsius(FromCelsius(36.5)); c < 36.4999 || c > 36.5001 {
		t.Fatal(c)
	}
}
