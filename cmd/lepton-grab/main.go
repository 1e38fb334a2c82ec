// Copyright 2017 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// lepton-grab captures a single annotated frame and prints its hotspots.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/maruel/lepton-overlay/config"
	"github.com/maruel/lepton-overlay/internal/app"
	"github.com/maruel/lepton-overlay/internal/logger"
)

func mainImpl() error {
	def, err := config.DefaultPath()
	if err != nil {
		return err
	}
	configPath := flag.String("config", def, "configuration file")
	fake := flag.Bool("fake", false, "use a fake thermal camera")
	thermal := flag.Bool("thermal", false, "annotate the thermal frame even if a visible camera is configured")
	meta := flag.Bool("meta", false, "print capture statistics")
	verbose := flag.Bool("v", false, "verbose mode")
	flag.Parse()

	if flag.NArg() != 1 {
		return errors.New("supply path to the image to save; .png, .jpg or .webp")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if !*verbose {
		cfg.Log.Level = "warning"
	}
	closer, err := logger.Init(cfg.Log, *verbose)
	if err != nil {
		return err
	}
	defer closer.Close()
	cfg.Thermal.Fake = cfg.Thermal.Fake || *fake
	if *thermal {
		cfg.Visible = config.VisibleConfig{}
	}
	cfg.Display.File = flag.Arg(0)
	cfg.Display.Port = 0
	cfg.MQTT.Enabled = false
	cfg.History.Enabled = false

	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	// Wait for a first frame so the non-blocking read in Step succeeds.
	if _, err := a.Thermal.Acquire(true); err != nil {
		return err
	}
	f, err := a.Loop.Step()
	if err != nil {
		return err
	}
	for _, an := range f.Result.Annotations {
		fmt.Printf("%-9s %s centroid %s\n", an.Label, an.Rect, an.Cross)
	}
	if *meta {
		st := a.Thermal.Stats()
		fmt.Printf("Thermal: %s\n", &st)
		ls := a.Loop.Stats()
		fmt.Printf("Loop:    %s\n", &ls)
		fmt.Printf("Scale:   %gx%g\n", f.Result.Scale.X, f.Result.Scale.Y)
	}
	return nil
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "\nlepton-grab: %s.\n", err)
		os.Exit(1)
	}
}
