// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

//go:build opencv

package app

import (
	"github.com/maruel/lepton-overlay/blob"
	blobcv "github.com/maruel/lepton-overlay/blob/cv"
	viscv "github.com/maruel/lepton-overlay/visible/cv"
)

func openDevice(name string, width, height int) (source, error) {
	c, err := viscv.Open(name, width, height)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func opencvFinder() (blob.Finder, error) {
	return blobcv.Finder{}, nil
}
