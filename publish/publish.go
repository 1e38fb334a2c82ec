// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package publish sends the hotspots to an MQTT broker as JSON events.
package publish

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/maruel/lepton-overlay/config"
	"github.com/maruel/lepton-overlay/overlay"
)

// NewClientFunc creates the MQTT client. Overridden in tests.
var NewClientFunc = mqtt.NewClient

// Hotspot is one hotspot in an Event.
type Hotspot struct {
	X       int     `json:"x"`
	Y       int     `json:"y"`
	W       int     `json:"w"`
	H       int     `json:"h"`
	CX      int     `json:"cx"`
	CY      int     `json:"cy"`
	Celsius float64 `json:"celsius"`
}

// Event is the payload published for a frame.
type Event struct {
	Frame    uint64    `json:"frame"`
	Time     time.Time `json:"time"`
	Hottest  *float64  `json:"hottest,omitempty"`
	Hotspots []Hotspot `json:"hotspots"`
}

// NewEvent converts the annotations of a frame into an Event.
func NewEvent(seq uint64, t time.Time, anns []overlay.Annotation) *Event {
	e := &Event{Frame: seq, Time: t, Hotspots: make([]Hotspot, len(anns))}
	for i, a := range anns {
		e.Hotspots[i] = Hotspot{
			X: a.Rect.Min.X, Y: a.Rect.Min.Y, W: a.Rect.Dx(), H: a.Rect.Dy(),
			CX: a.Cross.X, CY: a.Cross.Y,
			Celsius: a.Celsius,
		}
		if e.Hottest == nil || a.Celsius > *e.Hottest {
			c := a.Celsius
			e.Hottest = &c
		}
	}
	return e
}

// Publisher publishes at most one Event per interval.
type Publisher struct {
	cfg    config.MQTTConfig
	client mqtt.Client

	mu   sync.Mutex
	last time.Time
}

// New connects to the broker.
func New(cfg config.MQTTConfig) (*Publisher, error) {
	if cfg.Topic == "" {
		return nil, errors.New("publish: topic is required")
	}
	brokerURL := fmt.Sprintf("tcp://%s:%d", cfg.Broker, cfg.Port)
	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warnf("MQTT connection lost: %v", err)
	})
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(time.Minute)
	p := &Publisher{cfg: cfg, client: NewClientFunc(opts)}
	log.Infof("Connecting to MQTT broker %s", brokerURL)
	if token := p.client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("publish: failed to connect to %s: %w", brokerURL, token.Error())
	}
	return p, nil
}

// Observe publishes the annotations of frame seq, unless an event was
// published less than the configured interval ago.
//
// Frames without hotspot are published too, so subscribers see hotspots
// disappear.
func (p *Publisher) Observe(seq uint64, t time.Time, anns []overlay.Annotation) error {
	p.mu.Lock()
	if !p.last.IsZero() && t.Sub(p.last) < p.cfg.Interval {
		p.mu.Unlock()
		return nil
	}
	p.last = t
	p.mu.Unlock()
	payload, err := json.Marshal(NewEvent(seq, t, anns))
	if err != nil {
		return err
	}
	token := p.client.Publish(p.cfg.Topic, 0, false, payload)
	if !token.WaitTimeout(time.Second) {
		return fmt.Errorf("publish: timed out publishing to %s", p.cfg.Topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// Close disconnects from the broker.
func (p *Publisher) Close() error {
	if p.client.IsConnected() {
		p.client.Disconnect(250)
	}
	return nil
}
