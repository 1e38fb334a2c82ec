// Copyright 2017 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lepton

import (
	"fmt"
	"io"
	"time"

	"periph.io/x/periph/conn/i2c"
	"periph.io/x/periph/conn/i2c/i2creg"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/devices/lepton/cci"
	"periph.io/x/periph/host"
)

// Querier is the camera's command and control interface, implemented by
// cci.Dev and leptontest.LeptonFake.
type Querier interface {
	GetStatus() (*cci.Status, error)
	GetSerial() (uint64, error)
	GetUptime() (time.Duration, error)
	GetTemp() (physic.Temperature, error)
	GetTempHousing() (physic.Temperature, error)
	GetShutterPos() (cci.ShutterPos, error)
	GetFFCModeControl() (*cci.FFCMode, error)
	RunFFC() error
}

// CCI is the command and control interface of a Lepton, without the video
// stream.
type CCI struct {
	*cci.Dev
	bus i2c.BusCloser
}

// OpenCCI opens the Lepton command interface on the named I²C bus.
func OpenCCI(i2cName string, i2cHz int64) (*CCI, error) {
	if _, err := host.Init(); err != nil {
		return nil, err
	}
	bus, err := i2creg.Open(i2cName)
	if err != nil {
		return nil, err
	}
	if i2cHz != 0 {
		if err := bus.SetSpeed(physic.Frequency(i2cHz) * physic.Hertz); err != nil {
			bus.Close()
			return nil, err
		}
	}
	dev, err := cci.New(bus)
	if err != nil {
		bus.Close()
		return nil, err
	}
	return &CCI{Dev: dev, bus: bus}, nil
}

// Close closes the I²C bus.
func (c *CCI) Close() error {
	return c.bus.Close()
}

// Query prints the internal state of the camera to w.
func Query(w io.Writer, q Querier) error {
	status, err := q.GetStatus()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Status.CameraStatus: %s\n", status.CameraStatus)
	fmt.Fprintf(w, "Status.CommandCount: %d\n", status.CommandCount)
	serial, err := q.GetSerial()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Serial:              0x%x\n", serial)
	uptime, err := q.GetUptime()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Uptime:              %s\n", uptime)
	temp, err := q.GetTemp()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Temp:                %s\n", temp)
	if temp, err = q.GetTempHousing(); err != nil {
		return err
	}
	fmt.Fprintf(w, "Temp housing:        %s\n", temp)
	pos, err := q.GetShutterPos()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "ShutterPos:          %s\n", pos)
	mode, err := q.GetFFCModeControl()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "FFCMode.FFCShutterMode:          %s\n", mode.FFCShutterMode)
	fmt.Fprintf(w, "FFCMode.ShutterTempLockoutState: %s\n", mode.ShutterTempLockoutState)
	fmt.Fprintf(w, "FFCMode.VideoFreezeDuringFFC:    %t\n", mode.VideoFreezeDuringFFC)
	fmt.Fprintf(w, "FFCMode.FFCDesired:              %t\n", mode.FFCDesired)
	fmt.Fprintf(w, "FFCMode.ElapsedTimeSinceLastFFC: %s\n", mode.ElapsedTimeSinceLastFFC)
	fmt.Fprintf(w, "FFCMode.DesiredFFCPeriod:        %s\n", mode.DesiredFFCPeriod)
	fmt.Fprintf(w, "FFCMode.ExplicitCommandToOpen:   %t\n", mode.ExplicitCommandToOpen)
	fmt.Fprintf(w, "FFCMode.DesiredFFCTempDelta:     %s\n", mode.DesiredFFCTempDelta)
	fmt.Fprintf(w, "FFCMode.ImminentDelay:           %d\n", mode.ImminentDelay)
	return nil
}
