// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package loop runs the capture, measure, composite and display cycle.
package loop

import (
	"fmt"
	"image"
	"image/draw"
	"io"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/maruel/lepton-overlay/blob"
	"github.com/maruel/lepton-overlay/compose"
	"github.com/maruel/lepton-overlay/display"
	"github.com/maruel/lepton-overlay/overlay"
)

// Source is a frame source. Implemented by lepton.Source and the visible
// sources.
type Source interface {
	Acquire(blocking bool) (image.Image, error)
}

// Observer is notified of the annotations of each frame. Implemented by
// publish.Publisher, history.Store and display.Server.
type Observer interface {
	Observe(seq uint64, t time.Time, anns []overlay.Annotation) error
}

// Stats is the loop statistics.
type Stats struct {
	Frames       int
	Hotspots     int
	Dropped      int
	ThermalFails int
	VisibleFails int
	SinkFails    int
}

func (s Stats) String() string {
	return fmt.Sprintf("%d frames %d hotspots %d dropped %d thermal fail %d visible fail %d sink fail", s.Frames, s.Hotspots, s.Dropped, s.ThermalFails, s.VisibleFails, s.SinkFails)
}

// Loop holds the capability handles used at each frame.
//
// The handles are owned by the caller; Loop doesn't close them.
type Loop struct {
	Thermal Source
	// Visible is the frame to annotate. When nil, the thermal frame itself is
	// annotated.
	Visible   Source
	Finder    blob.Finder
	Detect    blob.Options
	Pipeline  *overlay.Pipeline
	Compose   compose.Options
	Style     compose.Style
	Sinks     []display.Sink
	Hint      display.Hint
	Observers []Observer
	// StatsOut receives a stats line every second. Can be nil.
	StatsOut io.Writer

	seq   uint64
	stats Stats
}

// Frame is the outcome of one Step.
type Frame struct {
	Seq    uint64
	Image  *image.RGBA
	Result *overlay.Result
}

// Stats returns the statistics.
func (l *Loop) Stats() Stats {
	return l.stats
}

// Step processes one frame: a blocking read of the visible frame, a
// non-blocking read of the most recent thermal frame, hotspot measurement,
// composition and display. In thermal only mode, the thermal read is blocking.
//
// Sink and observer failures are logged and don't fail the step.
func (l *Loop) Step() (*Frame, error) {
	var dst *image.RGBA
	if l.Visible != nil {
		img, err := l.Visible.Acquire(true)
		if err != nil {
			l.stats.VisibleFails++
			return nil, err
		}
		dst = compose.ToRGBA(img)
	}
	// Without visible frame to pace the loop, wait for a new thermal frame.
	t, err := l.Thermal.Acquire(l.Visible == nil)
	if err != nil {
		l.stats.ThermalFails++
		return nil, err
	}
	thermal := toGray(t)
	blobs, err := l.Finder.Find(thermal, l.Pipeline.Thresholds(), l.Detect)
	if err != nil {
		return nil, err
	}
	if dst != nil {
		compose.DrawImage(dst, thermal, l.Compose)
	} else {
		dst = compose.Colorize(thermal, l.Compose.Palette)
	}
	res, err := l.Pipeline.Process(thermal, dst.Rect, blobs)
	if err != nil {
		return nil, err
	}
	compose.Annotate(dst, res.Annotations, l.Style)
	l.seq++
	l.stats.Frames++
	l.stats.Hotspots += len(res.Annotations)
	l.stats.Dropped += res.Dropped()
	// Observers first so a sink streaming the frame sends its annotations.
	now := time.Now()
	for _, o := range l.Observers {
		if err := o.Observe(l.seq, now, res.Annotations); err != nil {
			log.Warnf("observer: %v", err)
		}
	}
	for _, s := range l.Sinks {
		if err := s.Write(dst, l.Hint); err != nil {
			l.stats.SinkFails++
			log.Warnf("display: %v", err)
		}
	}
	return &Frame{Seq: l.seq, Image: dst, Result: res}, nil
}

// Run kickstarts the thermal capture then calls Step until done is closed.
//
// Only the kickstart failure is returned; Step failures are logged and the
// frame is skipped.
func (l *Loop) Run(done <-chan struct{}) error {
	// Wait for a first thermal frame so that non-blocking reads always have a
	// frame to return.
	if _, err := l.Thermal.Acquire(true); err != nil {
		return fmt.Errorf("thermal: %w", err)
	}
	tick := time.NewTicker(time.Second)
	defer tick.Stop()
	start, frames := time.Now(), 0
	var lastErr error
	for {
		select {
		case <-done:
			if l.StatsOut != nil {
				fmt.Fprint(l.StatsOut, "\n")
			}
			return nil
		case now := <-tick.C:
			if l.StatsOut != nil {
				fps := float64(l.stats.Frames-frames) / now.Sub(start).Seconds()
				fmt.Fprintf(l.StatsOut, "\r%.1f fps %s", fps, &l.stats)
			}
			start, frames = now, l.stats.Frames
		default:
		}
		if _, err := l.Step(); err != nil {
			// Only log when the error changes, a disconnected camera would
			// otherwise flood the log.
			if lastErr == nil || err.Error() != lastErr.Error() {
				log.Warnf("skipping frame: %v", err)
			}
			lastErr = err
			select {
			case <-done:
			case <-time.After(100 * time.Millisecond):
			}
			continue
		}
		lastErr = nil
	}
}

// toGray returns img as an 8 bits grayscale frame.
func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	g := image.NewGray(b)
	draw.Draw(g, b, img, b.Min, draw.Src)
	return g
}
