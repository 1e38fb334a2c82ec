// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lepton

import (
	"image"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Source continuously reads frames from a Camera.
//
// The camera must be read continuously otherwise the VoSPI stream loses sync,
// so reading happens in a background goroutine and Acquire returns the most
// recently completed frame.
type Source struct {
	cam  Camera
	opts Options
	done chan struct{}
	wg   sync.WaitGroup

	mu     sync.Mutex
	cond   *sync.Cond
	front  *image.Gray // Most recent completed frame; nil until the first one.
	seq    uint64      // Incremented at each new front buffer.
	last   uint64      // seq of the last frame returned by Acquire.
	stats  Stats
	closed bool
}

// New starts capturing from cam.
//
// Close must be called to stop the capture; it halts cam.
func New(cam Camera, opts Options) (*Source, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	s := &Source{cam: cam, opts: opts, done: make(chan struct{})}
	s.cond = sync.NewCond(&s.mu)
	s.wg.Add(1)
	go s.run()
	return s, nil
}

// Bounds returns the camera frame bounds.
func (s *Source) Bounds() image.Rectangle {
	return s.cam.Bounds()
}

// Acquire returns a frame owned by the caller.
//
// When blocking, it waits for a frame that was not previously returned. When
// not blocking, it returns the most recently completed frame right away, which
// may be the same one as the previous call or lag behind real time by one
// capture interval. It returns ErrNoFrame if no frame was ever captured.
func (s *Source) Acquire(blocking bool) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if blocking {
		for !s.closed && (s.front == nil || s.seq == s.last) {
			s.cond.Wait()
		}
	}
	if s.closed {
		return nil, ErrClosed
	}
	if s.front == nil {
		return nil, ErrNoFrame
	}
	s.last = s.seq
	s.stats.Acquired++
	out := image.NewGray(s.front.Rect)
	copy(out.Pix, s.front.Pix)
	return out, nil
}

// Stats returns a snapshot of the acquisition statistics.
func (s *Source) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Close stops the capture and halts the camera.
func (s *Source) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.done)
	s.cond.Broadcast()
	s.mu.Unlock()
	s.wg.Wait()
	return s.cam.Halt()
}

func (s *Source) run() {
	defer s.wg.Done()
	b := s.cam.Bounds()
	frame := newFrame(b)
	prev := image.NewGray16(b)
	cur := image.NewGray16(b)
	first := true
	for {
		select {
		case <-s.done:
			return
		default:
		}
		if err := s.cam.NextFrame(frame); err != nil {
			s.mu.Lock()
			s.stats.TransferFails++
			if s.stats.LastFail == nil {
				log.Warnf("lepton: I/O fail: %s", err)
			}
			s.stats.LastFail = err
			s.mu.Unlock()
			select {
			case <-s.done:
				return
			case <-time.After(s.opts.Retry):
			}
			continue
		}
		toGray16(cur, frame)
		if !first && equal(prev, cur) {
			// It also happens if the scene is 100% static without noise.
			s.mu.Lock()
			s.stats.DuplicateFrames++
			s.stats.LastFail = nil
			s.mu.Unlock()
			continue
		}
		img := s.opts.reduce(cur)
		prev, cur = cur, prev
		first = false
		s.mu.Lock()
		s.front = img
		s.seq++
		s.stats.GoodFrames++
		s.stats.LastFail = nil
		s.cond.Broadcast()
		s.mu.Unlock()
	}
}
