// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package logger configures the global logrus logger.
package logger

import (
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/maruel/lepton-overlay/config"
)

// Init sets the level, format and outputs of the global logger.
//
// verbose forces the debug level. The returned io.Closer closes the log file,
// if any.
func Init(cfg config.LogConfig, verbose bool) (io.Closer, error) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		log.Warnf("Invalid log level '%s', defaulting to 'info': %v", cfg.Level, err)
		level = log.InfoLevel
	}
	if verbose {
		level = log.DebugLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	// The stats line is printed on stdout, logs go to stderr.
	writers := []io.Writer{os.Stderr}
	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0750); err != nil {
			return closer, err
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0660)
		if err != nil {
			return closer, err
		}
		writers = append(writers, f)
		closer = f
	}
	log.SetOutput(io.MultiWriter(writers...))
	log.Debugf("Logger initialized at level %s", level)
	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error {
	return nil
}
