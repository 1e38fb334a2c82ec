// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package leptontest implements a fake Lepton implementation.
//
// The fake outputs radiometric TLinear frames in centi-Kelvin: a 20°C
// background with a few warm blobs slowly wandering around, so hotspots can be
// found without a device.
package leptontest

import (
	"image"
	"math"
	"math/rand"
	"sync"
	"time"

	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/devices/lepton"
	"periph.io/x/periph/devices/lepton/cci"
	"periph.io/x/periph/devices/lepton/image14bit"
)

// Background is the temperature of the scene outside the hotspots, in
// centi-Kelvin.
const Background = 29315

// LeptonFake is a fake for lepton.Dev.
type LeptonFake struct {
	// Interval is the time between frames. Defaults to ~9Hz.
	Interval time.Duration
	// Static disables the hotspots movement, so every frame is identical.
	Static bool

	mu     sync.Mutex
	noise  *noise
	frames uint32
	start  time.Time
	halted bool
}

// New returns a mock for lepton.Dev.
func New() (*LeptonFake, error) {
	return &LeptonFake{Interval: 111 * time.Millisecond, noise: makeNoise(), start: time.Now().UTC()}, nil
}

// NextFrame renders the next frame.
func (l *LeptonFake) NextFrame(img *lepton.Frame) error {
	l.mu.Lock()
	d := l.Interval
	l.mu.Unlock()
	if d != 0 {
		time.Sleep(d)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.frames++
	img.Metadata.FrameCount = l.frames
	img.Metadata.SinceStartup = time.Since(l.start)
	img.Metadata.Temp = physic.ZeroCelsius + 30*physic.Celsius
	if !l.Static {
		l.noise.update()
	}
	l.noise.render(img)
	return nil
}

func (l *LeptonFake) Bounds() image.Rectangle {
	return image.Rect(0, 0, 80, 60)
}

// Halt implements conn.Resource.
func (l *LeptonFake) Halt() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.halted = true
	return nil
}

// Halted returns true once Halt was called.
func (l *LeptonFake) Halted() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.halted
}

func (l *LeptonFake) String() string {
	return "LeptonFake"
}

func (l *LeptonFake) GetStatus() (*cci.Status, error) {
	return &cci.Status{}, nil
}

func (l *LeptonFake) GetSerial() (uint64, error) {
	return 0x1234, nil
}

func (l *LeptonFake) GetUptime() (time.Duration, error) {
	return time.Now().UTC().Sub(l.start), nil
}

func (l *LeptonFake) GetTemp() (physic.Temperature, error) {
	return physic.Celsius*30 + physic.ZeroCelsius, nil
}

func (l *LeptonFake) GetTempHousing() (physic.Temperature, error) {
	return physic.Celsius*28 + physic.ZeroCelsius, nil
}

func (l *LeptonFake) GetShutterPos() (cci.ShutterPos, error) {
	return cci.ShutterPosIdle, nil
}

func (l *LeptonFake) GetFFCModeControl() (*cci.FFCMode, error) {
	return &cci.FFCMode{}, nil
}

func (l *LeptonFake) RunFFC() error {
	return nil
}

//

type vector struct {
	intensity float64 // Peak temperature above Background, in centi-Kelvin.
	radius    float64
	x         float64
	y         float64
}

// noise is cheezy but gets us going for testing without a device.
type noise struct {
	rand    *rand.Rand
	vectors []vector
}

func makeNoise() *noise {
	n := &noise{rand: rand.New(rand.NewSource(0))}
	n.vectors = make([]vector, 3)
	for i := range n.vectors {
		// Between 32°C and 40°C at the center.
		n.vectors[i].intensity = 1200 + n.rand.Float64()*800
		n.vectors[i].radius = 2 + n.rand.Float64()*2
		n.vectors[i].x = 10 + float64(i)*25 + n.rand.Float64()*10
		n.vectors[i].y = 15 + n.rand.Float64()*30
	}
	return n
}

func (n *noise) update() {
	for i := range n.vectors {
		n.vectors[i].intensity += n.rand.NormFloat64() * 5
		n.vectors[i].x = math.Min(math.Max(n.vectors[i].x+n.rand.NormFloat64()*0.2, 0), 79)
		n.vectors[i].y = math.Min(math.Max(n.vectors[i].y+n.rand.NormFloat64()*0.2, 0), 59)
	}
}

func (n *noise) render(f *lepton.Frame) {
	avg := int64(0)
	for y := 0; y < 60; y++ {
		fy := float64(y)
		for x := 0; x < 80; x++ {
			fx := float64(x)
			value := float64(Background)
			for _, vect := range n.vectors {
				d2 := (vect.x-fx)*(vect.x-fx) + (vect.y-fy)*(vect.y-fy)
				value += vect.intensity * math.Exp(-d2/(2*vect.radius*vect.radius))
			}
			f.SetIntensity14(x, y, image14bit.Intensity14(value))
			avg += int64(value)
		}
	}
	f.Metadata.AvgValue = uint16(avg / (80 * 60))
}
