// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

//go:build !opencv

package app

import (
	"errors"

	"github.com/maruel/lepton-overlay/blob"
)

// errNoOpenCV is returned when the configuration needs OpenCV but the binary
// was built without the opencv tag.
var errNoOpenCV = errors.New("built without OpenCV; rebuild with -tags opencv")

func openDevice(name string, width, height int) (source, error) {
	return nil, errNoOpenCV
}

func opencvFinder() (blob.Finder, error) {
	return nil, errNoOpenCV
}
