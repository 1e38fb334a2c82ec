// Copyright 2017 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lepton

import (
	"fmt"

	"periph.io/x/periph/conn/i2c"
	"periph.io/x/periph/conn/i2c/i2creg"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/conn/spi"
	"periph.io/x/periph/conn/spi/spireg"
	devlepton "periph.io/x/periph/devices/lepton"
	"periph.io/x/periph/host"

	log "github.com/sirupsen/logrus"
)

// Device is a FLIR Lepton connected over SPI and I²C.
type Device struct {
	*devlepton.Dev
	spiBus spi.PortCloser
	i2cBus i2c.BusCloser
}

// Open initializes the host drivers and opens the Lepton on the named buses.
//
// Empty names select the first bus available. A zero speed keeps the bus
// default. Max rate supported by the Lepton SPI port is 20MHz; a lower rate is
// less likely to get electromagnetic interference.
func Open(spiName, i2cName string, spiHz, i2cHz int64) (*Device, error) {
	if _, err := host.Init(); err != nil {
		return nil, err
	}
	d := &Device{}
	var err error
	if d.spiBus, err = spireg.Open(spiName); err != nil {
		return nil, err
	}
	if spiHz != 0 {
		if err = d.spiBus.LimitSpeed(physic.Frequency(spiHz) * physic.Hertz); err != nil {
			d.Close()
			return nil, err
		}
	}
	if d.i2cBus, err = i2creg.Open(i2cName); err != nil {
		d.Close()
		return nil, err
	}
	if i2cHz != 0 {
		if err = d.i2cBus.SetSpeed(physic.Frequency(i2cHz) * physic.Hertz); err != nil {
			d.Close()
			return nil, err
		}
	}
	if d.Dev, err = devlepton.New(d.spiBus, d.i2cBus); err != nil {
		d.Close()
		return nil, fmt.Errorf("%s\nIf testing without hardware, use -fake to simulate a camera", err)
	}
	return d, nil
}

// Close closes both buses. It doesn't halt the camera; Source.Close does.
func (d *Device) Close() error {
	var err error
	if d.i2cBus != nil {
		err = d.i2cBus.Close()
		d.i2cBus = nil
	}
	if d.spiBus != nil {
		if err2 := d.spiBus.Close(); err == nil {
			err = err2
		}
		d.spiBus = nil
	}
	return err
}

// Describe logs what the camera reports about itself.
//
// Cameras not implementing Reporter only get their resolution logged.
func Describe(cam Camera, opts Options) {
	b := cam.Bounds()
	log.Infof("Lepton Res (%dx%d)", b.Dx(), b.Dy())
	if opts.Radiometric {
		log.Infof("Radiometry: mapping [%s, %s] onto [0, 255]", opts.Min, opts.Max)
	} else {
		log.Info("Radiometry: disabled, using linear AGC")
	}
	r, ok := cam.(Reporter)
	if !ok {
		return
	}
	if serial, err := r.GetSerial(); err == nil {
		log.Infof("Serial: 0x%x", serial)
	}
	if t, err := r.GetTemp(); err == nil {
		log.Infof("Temp: %s", t)
	}
	if t, err := r.GetTempHousing(); err == nil {
		log.Infof("Temp housing: %s", t)
	}
}
