// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

//go:build !opencv

package app

import (
	"errors"
	"testing"
)

func TestNew_NoOpenCV(t *testing.T) {
	cfg := fakeConfig(t)
	cfg.Detect.Finder = "opencv"
	if _, err := New(cfg); !errors.Is(err, errNoOpenCV) {
		t.Fatal(err)
	}
	cfg = fakeConfig(t)
	cfg.Visible.Device = "0"
	if _, err := New(cfg); !errors.Is(err, errNoOpenCV) {
		t.Fatal(err)
	}
}
