// Copyright 2017 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lepton

import (
	"bytes"
	"strings"
	"testing"

	"github.com/maruel/lepton-overlay/leptontest"
)

func TestQuery(t *testing.T) {
	cam, _ := leptontest.New()
	var buf bytes.Buffer
	if err := Query(&buf, cam); err != nil {
		t.Fatal(err)
	}
	s := buf.String()
	for _, want := range []string{"Serial:              0x1234\n", "Temp:                30°C\n", "Temp housing:        28°C\n"} {
		if !strings.Contains(s, want) {
			t.Fatalf("missing %q in:\n%s", want, s)
		}
	}
}
