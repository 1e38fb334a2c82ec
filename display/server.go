// Copyright 2015 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package display

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"image"
	"image/png"
	"net"
	"net/http"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/maruel/interrupt"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	log "github.com/sirupsen/logrus"
	"golang.org/x/net/websocket"
	"gorm.io/gorm"

	"github.com/maruel/lepton-overlay/history"
	"github.com/maruel/lepton-overlay/overlay"
)

// History queries the recorded hotspots. Implemented by history.Store.
type History interface {
	Recent(limit int) ([]history.Hotspot, error)
	Hottest(since time.Time) (*history.Hotspot, error)
}

// Server serves the latest frame over HTTP and streams the frames over a
// websocket.
type Server struct {
	engine *gin.Engine
	hist   History
	start  time.Time
	srv    *http.Server
	quit   chan struct{}

	mu     sync.Mutex
	cond   *sync.Cond
	img    image.Image
	frames uint64 // Incremented at each Write.
	seq    uint64 // Last observed thermal frame.
	anns   []overlay.Annotation
	md     metadata // Annotations observed before img was written.
	closed bool
}

// NewServer returns a Server. hist may be nil.
func NewServer(hist History) *Server {
	s := &Server{hist: hist, start: time.Now(), quit: make(chan struct{})}
	s.cond = sync.NewCond(&s.mu)
	s.engine = gin.New()
	s.engine.Use(gin.Recovery(), logRequests, cors.Default())
	s.engine.GET("/", s.root)
	s.engine.GET("/favicon.ico", s.still)
	s.engine.GET("/still.png", s.still)
	s.engine.GET("/stream", gin.WrapH(websocket.Handler(s.stream)))
	api := s.engine.Group("/api")
	api.GET("/status", s.status)
	api.GET("/hotspots", s.hotspots)
	api.GET("/hottest", s.hottest)
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start listens on port in the background. Use 0 to select a free port.
func (s *Server) Start(port int) (net.Addr, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, err
	}
	s.srv = &http.Server{Handler: s.engine}
	log.Infof("Listening on %s", ln.Addr())
	go func() {
		if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Errorf("http: %v", err)
		}
	}()
	go func() {
		select {
		case <-interrupt.Channel:
		case <-s.quit:
			return
		}
		s.mu.Lock()
		s.cond.Broadcast()
		s.mu.Unlock()
	}()
	return ln.Addr(), nil
}

// Write implements Sink.
//
// The frame is streamed along the annotations last passed to Observe, so
// Observe must be called first for each frame.
func (s *Server) Write(img image.Image, h Hint) error {
	img = Fit(img, h)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.img = img
	s.frames++
	s.md = metadata{Frame: s.frames, Seq: s.seq, Annotations: s.anns}
	s.cond.Broadcast()
	return nil
}

// Observe records the annotations of thermal frame seq, reported in /api/status
// and streamed along the frames.
func (s *Server) Observe(seq uint64, t time.Time, anns []overlay.Annotation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq = seq
	s.anns = append(s.anns[:0:0], anns...)
	return nil
}

// Close stops the HTTP server and the streams.
func (s *Server) Close() error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.quit)
	}
	s.cond.Broadcast()
	s.mu.Unlock()
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

func (s *Server) done() bool {
	return s.closed || interrupt.IsSet()
}

var rootTmpl = template.Must(template.New("root").Parse(`<!DOCTYPE html>
<html>
<head>
	<title>lepton-overlay</title>
	<style>
		img { max-width: 100%; height: auto; }
		#labels { font-family: monospace; }
	</style>
	<script>
	function connect() {
		var proto = location.protocol === "https:" ? "wss://" : "ws://";
		var ws = new WebSocket(proto + location.host + "/stream");
		ws.onmessage = function(e) {
			var kind = e.data[0], data = e.data.substring(1);
			if (kind === "I") {
				document.getElementById("live").src = "data:image/png;base64," + data;
			} else if (kind === "M") {
				var m = JSON.parse(data), t = [];
				(m.annotations || []).forEach(function(a) { t.push(a.label); });
				document.getElementById("labels").textContent = t.join("  ");
			}
		};
		ws.onclose = function() { setTimeout(connect, 1000); };
	}
	</script>
</head>
<body onload="connect()">
	<img id="live" src="/still.png"><br>
	<div id="labels"></div>
	Up since {{.}}
</body>
</html>`))

func (s *Server) root(c *gin.Context) {
	c.Header("Content-Type", "text/html")
	if err := rootTmpl.Execute(c.Writer, s.start.Format(time.RFC3339)); err != nil {
		c.String(http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) still(c *gin.Context) {
	s.mu.Lock()
	img := s.img
	s.mu.Unlock()
	if img == nil {
		c.String(http.StatusServiceUnavailable, "no frame yet")
		return
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	c.Header("Cache-Control", "no-store, no-cache, must-revalidate")
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

// Status is the reply of /api/status.
type Status struct {
	Frames      uint64               `json:"frames"`
	Seq         uint64               `json:"seq"`
	Annotations []overlay.Annotation `json:"annotations"`
	Uptime      string               `json:"uptime"`
	GoRoutines  int                  `json:"go_routines"`
	CPUUsage    float64              `json:"cpu_usage"`
	MemoryUsage float64              `json:"memory_usage"`
}

func (s *Server) status(c *gin.Context) {
	s.mu.Lock()
	st := Status{
		Frames:      s.frames,
		Seq:         s.seq,
		Annotations: append([]overlay.Annotation{}, s.anns...),
	}
	s.mu.Unlock()
	st.Uptime = time.Since(s.start).Round(time.Second).String()
	st.GoRoutines = runtime.NumGoroutine()
	// Since the previous call.
	if p, err := cpu.Percent(0, false); err == nil && len(p) != 0 {
		st.CPUUsage = p[0]
	} else if err != nil {
		log.Debugf("cpu: %v", err)
	}
	if v, err := mem.VirtualMemory(); err == nil {
		st.MemoryUsage = v.UsedPercent
	}
	c.JSON(http.StatusOK, st)
}

func (s *Server) hotspots(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}
	if s.hist == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "history is disabled"})
		return
	}
	h, err := s.hist.Recent(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"hotspots": h})
}

// hottest returns the hottest hotspot recorded within the "since" duration,
// one hour by default.
func (s *Server) hottest(c *gin.Context) {
	d, err := time.ParseDuration(c.DefaultQuery("since", "1h"))
	if err != nil || d <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid since"})
		return
	}
	if s.hist == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "history is disabled"})
		return
	}
	h, err := s.hist.Hottest(time.Now().Add(-d))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no hotspot"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h)
}

// metadata is sent after each image on the stream.
type metadata struct {
	Frame       uint64               `json:"frame"`
	Seq         uint64               `json:"seq"`
	Annotations []overlay.Annotation `json:"annotations"`
}

// stream sends each new frame as a base64 PNG in an "I" message followed by
// its annotations as JSON in an "M" message.
func (s *Server) stream(w *websocket.Conn) {
	log.Debugf("websocket from %s", w.Request().RemoteAddr)
	defer w.Close()
	buf := &bytes.Buffer{}
	s.mu.Lock()
	defer s.mu.Unlock()
	last := s.frames
	for {
		for !s.done() && last == s.frames {
			s.cond.Wait()
		}
		if s.done() {
			return
		}
		last = s.frames
		img := s.img
		md := s.md
		s.mu.Unlock()
		// Do the actual I/O without the lock.
		err := writeFrame(w, buf, img, &md)
		s.mu.Lock()
		if err != nil {
			log.Debugf("websocket err: %s", err)
			return
		}
	}
}

func writeFrame(w *websocket.Conn, buf *bytes.Buffer, img image.Image, md *metadata) error {
	// Frame I is for Image.
	buf.Reset()
	buf.WriteString("I")
	encoder := base64.NewEncoder(base64.StdEncoding, buf)
	if err := png.Encode(encoder, img); err != nil {
		return err
	}
	encoder.Close()
	if _, err := w.Write(buf.Bytes()); err != nil {
		return err
	}
	// Frame M is for Metadata.
	buf.Reset()
	buf.WriteString("M")
	if err := json.NewEncoder(buf).Encode(md); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// logRequests logs each HTTP request at debug level.
func logRequests(c *gin.Context) {
	start := time.Now()
	c.Next()
	log.Debugf("%s - %3d %6db %4s %s %s", c.ClientIP(), c.Writer.Status(), c.Writer.Size(), c.Request.Method, c.Request.RequestURI, time.Since(start).Round(time.Millisecond))
}
