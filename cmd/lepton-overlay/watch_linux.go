// Copyright 2016 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"

	"github.com/maruel/interrupt"
	fsnotify "gopkg.in/fsnotify.v1"
)

// watchFile returns when fileName is modified, created or on Ctrl-C.
//
// The directory is watched instead of the file since editors usually replace
// the file.
func watchFile(fileName string) error {
	var mod0 os.FileInfo
	if fi, err := os.Stat(fileName); err == nil {
		mod0 = fi
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err = watcher.Add(filepath.Dir(fileName)); err != nil {
		return err
	}
	for {
		select {
		case <-interrupt.Channel:
			return nil
		case err = <-watcher.Errors:
			return err
		case e := <-watcher.Events:
			if filepath.Clean(e.Name) != filepath.Clean(fileName) {
				continue
			}
			fi, err := os.Stat(fileName)
			if err != nil {
				// Being replaced.
				continue
			}
			if mod0 == nil || !fi.ModTime().Equal(mod0.ModTime()) || fi.Size() != mod0.Size() {
				return nil
			}
		}
	}
}
