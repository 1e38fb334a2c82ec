// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package lepton captures 8 bits thermal frames from a FLIR Lepton.
//
// The device itself is driven by periph.io; this package keeps it busy in a
// background goroutine so that the most recent frame is always available
// without blocking the caller.
package lepton

import (
	"errors"
	"fmt"
	"image"
	"time"

	"periph.io/x/periph/conn/physic"
	devlepton "periph.io/x/periph/devices/lepton"

	"github.com/maruel/lepton-overlay/gray14"
)

// Camera reads frames from a FLIR Lepton. This interface can be mocked, see
// package leptontest.
type Camera interface {
	NextFrame(f *devlepton.Frame) error
	Bounds() image.Rectangle
	Halt() error
}

// Reporter is implemented by cameras that can describe themselves.
type Reporter interface {
	GetSerial() (uint64, error)
	GetTemp() (physic.Temperature, error)
	GetTempHousing() (physic.Temperature, error)
}

// Errors returned by Source.Acquire.
var (
	// ErrNoFrame is returned by a non-blocking Acquire before the first frame
	// was ever captured.
	ErrNoFrame = errors.New("lepton: no frame captured yet")
	// ErrClosed is returned once the Source is closed.
	ErrClosed = errors.New("lepton: source closed")
)

// Options controls how 14 bits frames are reduced to 8 bits.
type Options struct {
	// Radiometric maps [Min, Max] linearly onto [0, 255]. Requires the camera to
	// output TLinear counts. When false, the frame is naively stretched between
	// its coldest and hottest pixels.
	Radiometric bool
	Min         physic.Temperature
	Max         physic.Temperature
	// PerCount is the temperature of one TLinear count. Defaults to
	// gray14.CentiKelvin.
	PerCount physic.Temperature
	// Retry is how long to wait after a failed read, to let the VoSPI stream
	// resynchronize. Defaults to 200ms.
	Retry time.Duration
}

func (o *Options) validate() error {
	if o.PerCount == 0 {
		o.PerCount = gray14.CentiKelvin
	}
	if o.Retry == 0 {
		o.Retry = 200 * time.Millisecond
	}
	if o.Radiometric && o.Min >= o.Max {
		return fmt.Errorf("lepton: invalid range [%s, %s]", o.Min, o.Max)
	}
	return nil
}

// Stats is the frame acquisition statistics since the Source was created.
type Stats struct {
	LastFail        error
	GoodFrames      int
	DuplicateFrames int
	TransferFails   int
	Acquired        int
}

func (s *Stats) String() string {
	return fmt.Sprintf("%d frames %d duped %d fail %d acquired", s.GoodFrames, s.DuplicateFrames, s.TransferFails, s.Acquired)
}
