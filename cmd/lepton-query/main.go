// Copyright 2017 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// lepton-query uses the Lepton I²C interface to query its internal state.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/maruel/lepton-overlay/lepton"
	"github.com/maruel/lepton-overlay/leptontest"
)

func mainImpl() error {
	i2cName := flag.String("i2c", "", "I²C bus to use")
	i2cHz := flag.Int64("hz", 0, "I²C bus speed")
	ffc := flag.Bool("ffc", false, "trigger FFC")
	fake := flag.Bool("fake", false, "query a fake camera")
	flag.Parse()

	if len(flag.Args()) != 0 {
		return fmt.Errorf("unexpected argument: %s", flag.Args())
	}

	var q lepton.Querier
	if *fake {
		f, err := leptontest.New()
		if err != nil {
			return err
		}
		q = f
	} else {
		dev, err := lepton.OpenCCI(*i2cName, *i2cHz)
		if err != nil {
			return err
		}
		defer dev.Close()
		q = dev
	}
	if err := lepton.Query(os.Stdout, q); err != nil {
		return err
	}
	if *ffc {
		return q.RunFFC()
	}
	return nil
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "\nlepton-query: %s.\n", err)
		os.Exit(1)
	}
}
