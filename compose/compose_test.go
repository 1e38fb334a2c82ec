// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package compose

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/maruel/lepton-overlay/overlay"
)

func TestPalettes(t *testing.T) {
	for _, name := range PaletteNames() {
		p, err := PaletteByName(name)
		if err != nil {
			t.Fatal(err)
		}
		for i, c := range p {
			if c.A != 255 {
				t.Fatalf("%s[%d] = %v", name, i, c)
			}
		}
	}
	if _, err := PaletteByName("sepia"); err == nil {
		t.Fatal("expected error")
	}
	g := Grayscale()
	if g[0] != (color.RGBA{A: 255}) || g[255] != (color.RGBA{255, 255, 255, 255}) {
		t.Fatal(g[0], g[255])
	}
	i := Ironbow()
	if i[0] != (color.RGBA{A: 255}) {
		t.Fatal(i[0])
	}
	// Hot is brighter than cold.
	if lum(i[250]) <= lum(i[5]) {
		t.Fatal(i[5], i[250])
	}
	r := Rainbow()
	if r[0].B != 255 || r[0].R != 0 || r[255].R != 255 || r[255].B != 0 {
		t.Fatal(r[0], r[255])
	}
}

func TestQuadraticAlpha(t *testing.T) {
	a := QuadraticAlpha()
	if a[0] != 0 || a[255] != 255 || a[128] != 64 {
		t.Fatal(a[0], a[128], a[255])
	}
	for i := 1; i < len(a); i++ {
		if a[i] < a[i-1] {
			t.Fatalf("not monotonic at %d", i)
		}
	}
	if c := ConstantAlpha(7); c[0] != 7 || c[255] != 7 {
		t.Fatal(c)
	}
}

func TestHint(t *testing.T) {
	for h := Nearest; h <= Bicubic; h++ {
		got, err := ParseHint(h.String())
		if err != nil || got != h {
			t.Fatal(h, got, err)
		}
	}
	if _, err := ParseHint("lanczos"); err == nil {
		t.Fatal("expected error")
	}
}

func TestDrawImage(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 2, 1))
	src.Pix[0] = 0
	src.Pix[1] = 255
	dst := image.NewRGBA(image.Rect(0, 0, 8, 4))
	draw.Draw(dst, dst.Rect, image.NewUniform(color.RGBA{100, 100, 100, 255}), image.Point{}, draw.Src)
	DrawImage(dst, src, Options{Alpha: QuadraticAlpha(), Hint: Nearest})
	// Cold is transparent, hot is opaque white.
	if c := dst.RGBAAt(1, 1); c != (color.RGBA{100, 100, 100, 255}) {
		t.Fatal(c)
	}
	if c := dst.RGBAAt(6, 2); c != (color.RGBA{255, 255, 255, 255}) {
		t.Fatal(c)
	}
	// Opaque by default.
	DrawImage(dst, src, Options{Palette: Grayscale()})
	if c := dst.RGBAAt(0, 0); c != (color.RGBA{0, 0, 0, 255}) {
		t.Fatal(c)
	}
}

func TestDrawImage_subImage(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 2, 1))
	src.Pix[1] = 255
	dst := image.NewRGBA(image.Rect(0, 0, 8, 4))
	draw.Draw(dst, dst.Rect, image.NewUniform(color.RGBA{100, 100, 100, 255}), image.Point{}, draw.Src)
	sub := dst.SubImage(image.Rect(4, 0, 8, 4)).(*image.RGBA)
	DrawImage(sub, src, Options{Palette: Grayscale(), Hint: Nearest})
	for _, l := range []struct {
		p    image.Point
		want color.RGBA
	}{
		{image.Pt(3, 0), color.RGBA{100, 100, 100, 255}},
		{image.Pt(4, 0), color.RGBA{0, 0, 0, 255}},
		{image.Pt(7, 3), color.RGBA{255, 255, 255, 255}},
	} {
		if c := dst.RGBAAt(l.p.X, l.p.Y); c != l.want {
			t.Fatal(l.p, c)
		}
	}
}

func TestColorize(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 3, 3))
	src.Pix[4] = 255
	dst := Colorize(src, Ironbow())
	if dst.Rect != src.Rect {
		t.Fatal(dst.Rect)
	}
	if c := dst.RGBAAt(1, 1); c != Ironbow()[255] {
		t.Fatal(c)
	}
}

func TestDrawRectangle(t *testing.T) {
	dst := image.NewGray(image.Rect(0, 0, 10, 10))
	DrawRectangle(dst, image.Rect(2, 2, 6, 5), color.White, 1)
	if n := count(dst); n != 10 {
		t.Fatal(n)
	}
	if dst.GrayAt(3, 3).Y != 0 || dst.GrayAt(5, 4).Y != 255 || dst.GrayAt(2, 2).Y != 255 {
		t.Fatal("unexpected outline")
	}
	// Clipped.
	dst = image.NewGray(image.Rect(0, 0, 4, 4))
	DrawRectangle(dst, image.Rect(-2, -2, 2, 2), color.White, 1)
	if n := count(dst); n != 3 {
		t.Fatal(n)
	}
}

func TestDrawCross(t *testing.T) {
	dst := image.NewGray(image.Rect(0, 0, 20, 20))
	DrawCross(dst, image.Pt(10, 10), color.White, 5)
	if n := count(dst); n != 21 {
		t.Fatal(n)
	}
	dst = image.NewGray(image.Rect(0, 0, 20, 20))
	DrawCross(dst, image.Pt(0, 0), color.White, 5)
	if n := count(dst); n != 11 {
		t.Fatal(n)
	}
}

func TestDrawText(t *testing.T) {
	if s := TextSize("30.00 C", 2); s != image.Pt(98, 26) {
		t.Fatal(s)
	}
	dst := image.NewGray(image.Rect(0, 0, 120, 40))
	DrawText(dst, image.Pt(4, 1), "30.00 C", color.White, 2)
	n := count(dst)
	if n == 0 {
		t.Fatal("nothing drawn")
	}
	b := bounds(dst)
	if !b.In(image.Rect(4, 1, 4+98, 1+26)) {
		t.Fatal(b)
	}
	small := image.NewGray(dst.Rect)
	DrawText(small, image.Pt(4, 1), "30.00 C", color.White, 1)
	if m := count(small); m*4 != n {
		t.Fatalf("scale 2 should quadruple the pixels: %d vs %d", m, n)
	}
	// Partially outside.
	DrawText(small, image.Pt(110, 35), "30.00 C", color.White, 2)
}

func TestAnnotate(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 160, 120))
	anns := []overlay.Annotation{{
		Rect:    image.Rect(80, 80, 112, 112),
		Cross:   image.Pt(96, 96),
		Label:   overlay.Label(30),
		LabelAt: image.Pt(84, 81),
	}}
	Annotate(dst, anns, DefaultStyle())
	if c := dst.RGBAAt(80, 80); c != (color.RGBA{255, 255, 255, 255}) {
		t.Fatal(c)
	}
	if c := dst.RGBAAt(96, 96); c != (color.RGBA{255, 255, 255, 255}) {
		t.Fatal(c)
	}
	g := image.NewGray(image.Rect(0, 0, 160, 120))
	Annotate(g, anns, GrayStyle())
	if g.GrayAt(80, 80).Y != 127 {
		t.Fatal(g.GrayAt(80, 80))
	}
}

func TestToRGBA(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 2, 2))
	src.Pix[3] = 200
	dst := ToRGBA(src)
	if c := dst.RGBAAt(1, 1); c != (color.RGBA{200, 200, 200, 255}) {
		t.Fatal(c)
	}
}

func lum(c color.RGBA) int {
	return int(c.R) + int(c.G) + int(c.B)
}

func count(g *image.Gray) int {
	n := 0
	for _, v := range g.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}

func bounds(g *image.Gray) image.Rectangle {
	var r image.Rectangle
	for y := g.Rect.Min.Y; y < g.Rect.Max.Y; y++ {
		for x := g.Rect.Min.X; x < g.Rect.Max.X; x++ {
			if g.GrayAt(x, y).Y != 0 {
				r = r.Union(image.Rect(x, y, x+1, y+1))
			}
		}
	}
	return r
}
