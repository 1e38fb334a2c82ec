// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// lepton-overlay finds the hotspots seen by a FLIR Lepton and draws them over
// the frames of a visible-light camera.
//
// The configuration is reloaded when its file changes.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"runtime/pprof"

	"github.com/maruel/interrupt"
	log "github.com/sirupsen/logrus"

	"github.com/maruel/lepton-overlay/config"
	"github.com/maruel/lepton-overlay/internal/app"
	"github.com/maruel/lepton-overlay/internal/logger"
)

// run runs one configuration until the config file changes or Ctrl-C.
func run(cfg *config.Config, path string) error {
	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	a.Loop.StatsOut = os.Stdout
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := watchFile(path); err != nil {
			log.Warnf("Not watching %s: %v", path, err)
			<-interrupt.Channel
		}
	}()
	return a.Run(done)
}

func load(path string, fake, verbose bool, prev io.Closer) (*config.Config, io.Closer, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, prev, err
	}
	if fake {
		cfg.Thermal.Fake = true
	}
	closer, err := logger.Init(cfg.Log, verbose)
	if prev != nil {
		prev.Close()
	}
	return cfg, closer, err
}

func mainImpl() error {
	def, err := config.DefaultPath()
	if err != nil {
		return err
	}
	configPath := flag.String("config", def, "configuration file")
	writeConfig := flag.Bool("writeConfig", false, "write the default config file and exit")
	fake := flag.Bool("fake", false, "use a fake thermal camera")
	verbose := flag.Bool("v", false, "verbose mode")
	cpuprofile := flag.String("cpuprofile", "", "dump CPU profile in file")
	flag.Parse()

	if len(flag.Args()) != 0 {
		return fmt.Errorf("unexpected argument: %s", flag.Args())
	}
	if *writeConfig {
		return config.Write(*configPath)
	}

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			return err
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	interrupt.HandleCtrlC()

	cfg, closer, err := load(*configPath, *fake, *verbose, nil)
	if closer != nil {
		defer func() { closer.Close() }()
	}
	if err != nil {
		return err
	}
	for {
		if err := run(cfg, *configPath); err != nil {
			return err
		}
		for !interrupt.IsSet() {
			log.Infof("Reloading %s", *configPath)
			cfg, closer, err = load(*configPath, *fake, *verbose, closer)
			if err == nil {
				break
			}
			// Wait for the file to be fixed.
			log.Errorf("Invalid config: %v", err)
			if err := watchFile(*configPath); err != nil {
				return err
			}
		}
		if interrupt.IsSet() {
			return nil
		}
	}
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "\nlepton-overlay: %s.\n", err)
		os.Exit(1)
	}
}
