// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package app creates the capability handles described by a configuration
// and wires them into a loop.Loop.
package app

import (
	"fmt"
	"image"
	"io"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/maruel/lepton-overlay/blob"
	"github.com/maruel/lepton-overlay/compose"
	"github.com/maruel/lepton-overlay/config"
	"github.com/maruel/lepton-overlay/display"
	"github.com/maruel/lepton-overlay/gray14"
	"github.com/maruel/lepton-overlay/history"
	"github.com/maruel/lepton-overlay/lepton"
	"github.com/maruel/lepton-overlay/leptontest"
	"github.com/maruel/lepton-overlay/loop"
	"github.com/maruel/lepton-overlay/overlay"
	"github.com/maruel/lepton-overlay/publish"
	"github.com/maruel/lepton-overlay/visible"
)

// App owns every handle created from the configuration.
type App struct {
	Loop    *loop.Loop
	Thermal *lepton.Source
	Server  *display.Server    // nil when display.port is 0.
	History *history.Store     // nil when history is disabled.
	Publish *publish.Publisher // nil when mqtt is disabled.

	cfg     *config.Config
	closers []io.Closer
}

// New opens everything cfg describes. On failure, what was opened is closed.
func New(cfg *config.Config) (a *App, err error) {
	a = &App{cfg: cfg}
	defer func() {
		if err != nil {
			a.Close()
			a = nil
		}
	}()

	cam, err := a.openCamera()
	if err != nil {
		return a, err
	}
	opts := thermalOptions(&cfg.Thermal)
	lepton.Describe(cam, opts)
	if a.Thermal, err = lepton.New(cam, opts); err != nil {
		return a, err
	}
	a.closers = append(a.closers, a.Thermal)

	vis, err := a.openVisible()
	if err != nil {
		return a, err
	}

	th, err := cfg.Thresholds()
	if err != nil {
		return a, err
	}
	if cfg.Detect.Auto > 0 {
		if th, err = a.autoThreshold(cfg.Detect.Auto); err != nil {
			return a, err
		}
	}
	p, err := overlay.New(cfg.Range(), th)
	if err != nil {
		return a, err
	}

	co, st, err := composeOptions(cfg, vis == nil)
	if err != nil {
		return a, err
	}
	filter, err := compose.ParseHint(cfg.Display.Filter)
	if err != nil {
		return a, err
	}

	fd, err := finder(cfg.Detect.Finder)
	if err != nil {
		return a, err
	}

	a.Loop = &loop.Loop{
		Thermal:  a.Thermal,
		Finder:   fd,
		Detect:   detectOptions(&cfg.Detect, a.Thermal.Bounds()),
		Pipeline: p,
		Compose:  co,
		Style:    st,
		Hint: display.Hint{
			Width:      cfg.Display.Width,
			Height:     cfg.Display.Height,
			Filter:     filter,
			Center:     cfg.Display.Center,
			KeepAspect: cfg.Display.Keep,
		},
	}
	if vis != nil {
		a.Loop.Visible = vis
	}
	if cfg.Display.File != "" {
		a.Loop.Sinks = append(a.Loop.Sinks, &display.FileSink{Path: cfg.Display.File, Quality: cfg.Display.Quality})
	}
	if cfg.History.Enabled {
		if a.History, err = history.Open(cfg.History.File); err != nil {
			return a, err
		}
		a.closers = append(a.closers, a.History)
		a.Loop.Observers = append(a.Loop.Observers, a.History)
	}
	if cfg.MQTT.Enabled {
		if a.Publish, err = publish.New(cfg.MQTT); err != nil {
			return a, err
		}
		a.closers = append(a.closers, a.Publish)
		a.Loop.Observers = append(a.Loop.Observers, a.Publish)
	}
	if cfg.Display.Port != 0 {
		var h display.History
		if a.History != nil {
			h = a.History
		}
		a.Server = display.NewServer(h)
		if _, err = a.Server.Start(cfg.Display.Port); err != nil {
			return a, err
		}
		a.closers = append(a.closers, a.Server)
		a.Loop.Sinks = append(a.Loop.Sinks, a.Server)
		a.Loop.Observers = append(a.Loop.Observers, a.Server)
	}
	return a, nil
}

// Run runs the loop until done is closed, pruning the history in the
// background.
func (a *App) Run(done <-chan struct{}) error {
	if a.History != nil && a.cfg.History.Retention > 0 {
		go a.prune(done)
	}
	return a.Loop.Run(done)
}

// Close closes the handles in reverse order of creation.
func (a *App) Close() error {
	var err error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err2 := a.closers[i].Close(); err2 != nil && err == nil {
			err = err2
		}
	}
	a.closers = nil
	return err
}

func (a *App) openCamera() (lepton.Camera, error) {
	t := &a.cfg.Thermal
	if t.Fake {
		return leptontest.New()
	}
	dev, err := lepton.Open(t.SPI, t.I2C, t.SPIHz, t.I2CHz)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, dev)
	return dev, nil
}

// source is a visible frame source owning a resource.
type source interface {
	loop.Source
	io.Closer
	Bounds() image.Rectangle
}

// openVisible returns nil in thermal only mode.
func (a *App) openVisible() (loop.Source, error) {
	v := &a.cfg.Visible
	switch {
	case v.Device != "":
		c, err := openDevice(v.Device, v.Width, v.Height)
		if err != nil {
			return nil, fmt.Errorf("visible.device %q: %w", v.Device, err)
		}
		a.closers = append(a.closers, c)
		log.Infof("Visible Res (%dx%d)", c.Bounds().Dx(), c.Bounds().Dy())
		return c, nil
	case v.File != "":
		s, err := visible.Load(v.File)
		if err != nil {
			return nil, err
		}
		log.Infof("Visible still %s (%dx%d)", v.File, s.Bounds().Dx(), s.Bounds().Dy())
		return s, nil
	default:
		log.Info("No visible source, annotating the thermal frame")
		return nil, nil
	}
}

func (a *App) autoThreshold(fraction float64) (overlay.Thresholds, error) {
	img, err := a.Thermal.Acquire(true)
	if err != nil {
		return nil, err
	}
	g, ok := img.(*image.Gray)
	if !ok {
		return nil, fmt.Errorf("unexpected thermal frame %T", img)
	}
	t := blob.AutoThreshold(g, fraction)
	log.Infof("Auto threshold: (%d, %d)", t.Lo, t.Hi)
	return overlay.Thresholds{t}, nil
}

func (a *App) prune(done <-chan struct{}) {
	tick := time.NewTicker(time.Minute)
	defer tick.Stop()
	for {
		select {
		case <-done:
			return
		case now := <-tick.C:
			n, err := a.History.Prune(now.Add(-a.cfg.History.Retention))
			if err != nil {
				log.Warnf("history: %v", err)
			} else if n != 0 {
				log.Debugf("history: pruned %d hotspots", n)
			}
		}
	}
}

func thermalOptions(t *config.ThermalConfig) lepton.Options {
	o := lepton.Options{
		Radiometric: t.Radiometric,
		Min:         gray14.FromCelsius(t.MinC),
		Max:         gray14.FromCelsius(t.MaxC),
		PerCount:    gray14.CentiKelvin,
	}
	if t.Resolution == "deci" {
		o.PerCount = gray14.DeciKelvin
	}
	return o
}

func detectOptions(d *config.DetectConfig, b image.Rectangle) blob.Options {
	o := blob.DefaultOptions(b)
	if d.Pixels != 0 {
		o.Pixels = d.Pixels
	}
	if d.Area != 0 {
		o.Area = d.Area
	}
	o.Merge = d.Merge
	o.Margin = d.Margin
	return o
}

func finder(name string) (blob.Finder, error) {
	if name == "opencv" {
		return opencvFinder()
	}
	return blob.Components{}, nil
}

func composeOptions(cfg *config.Config, thermalOnly bool) (compose.Options, compose.Style, error) {
	pal, err := compose.PaletteByName(cfg.Compose.Palette)
	if err != nil {
		return compose.Options{}, compose.Style{}, err
	}
	hint, err := compose.ParseHint(cfg.Compose.Hint)
	if err != nil {
		return compose.Options{}, compose.Style{}, err
	}
	o := compose.Options{Palette: pal, Hint: hint}
	if cfg.Compose.Alpha == "quadratic" {
		o.Alpha = compose.QuadraticAlpha()
	}
	st := compose.DefaultStyle()
	if thermalOnly && cfg.Compose.Palette == "grayscale" {
		st = compose.GrayStyle()
	}
	if cfg.Compose.TextScale > 0 {
		st.TextScale = cfg.Compose.TextScale
	}
	if cfg.Compose.Thickness > 0 {
		st.Thickness = cfg.Compose.Thickness
	}
	return o, st, nil
}
