// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package compose

import (
	"fmt"
	"image/color"
	"math"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
)

// Palette maps an 8 bits intensity to a color.
type Palette [256]color.RGBA

// Alpha maps an 8 bits intensity to an opacity.
type Alpha [256]uint8

// gradient builds a palette interpolating in CIE L*a*b* between evenly spaced
// stops.
func gradient(stops ...string) *Palette {
	c := make([]colorful.Color, len(stops))
	for i, s := range stops {
		var err error
		if c[i], err = colorful.Hex(s); err != nil {
			panic(err)
		}
	}
	p := &Palette{}
	n := float64(len(c) - 1)
	for i := range p {
		pos := float64(i) / 255 * n
		j := int(pos)
		if j >= len(c)-1 {
			j = len(c) - 2
		}
		r, g, b := c[j].BlendLab(c[j+1], pos-float64(j)).Clamped().RGB255()
		p[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return p
}

// Grayscale returns the identity palette.
func Grayscale() *Palette {
	p := &Palette{}
	for i := range p {
		p[i] = color.RGBA{R: uint8(i), G: uint8(i), B: uint8(i), A: 255}
	}
	return p
}

// Ironbow returns the palette commonly used by thermal cameras: cold is
// black and blue, hot is yellow and white.
func Ironbow() *Palette {
	return gradient("#000000", "#1e0064", "#780096", "#c8285a", "#f07814", "#ffc800", "#ffffe6")
}

// Rainbow returns a palette going from blue (cold) to red (hot).
func Rainbow() *Palette {
	p := &Palette{}
	for i := range p {
		r, g, b := colorful.Hsv(240*(1-float64(i)/255), 1, 1).Clamped().RGB255()
		p[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return p
}

var palettes = map[string]func() *Palette{
	"grayscale": Grayscale,
	"ironbow":   Ironbow,
	"rainbow":   Rainbow,
}

// PaletteByName returns one of the palettes listed by PaletteNames.
func PaletteByName(name string) (*Palette, error) {
	f, ok := palettes[name]
	if !ok {
		return nil, fmt.Errorf("compose: unknown palette %q; try one of %v", name, PaletteNames())
	}
	return f(), nil
}

// PaletteNames returns the valid palette names, sorted.
func PaletteNames() []string {
	out := make([]string, 0, len(palettes))
	for k := range palettes {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// QuadraticAlpha makes cold pixels transparent and hot pixels opaque with
// a[i] = (i/255)² * 255, so the visible scene shows through the background.
func QuadraticAlpha() *Alpha {
	a := &Alpha{}
	for i := range a {
		a[i] = uint8(math.Pow(float64(i)/255, 2) * 255)
	}
	return a
}

// ConstantAlpha returns the same opacity for every intensity.
func ConstantAlpha(v uint8) *Alpha {
	a := &Alpha{}
	for i := range a {
		a[i] = v
	}
	return a
}
