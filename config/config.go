// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package config loads the lepton-overlay configuration.
//
// The configuration is a YAML file; every key has a default and can be
// overridden with an environment variable prefixed with LEPTON_, e.g.
// LEPTON_THERMAL_FAKE=true.
package config

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/maruel/lepton-overlay/compose"
	"github.com/maruel/lepton-overlay/overlay"
)

// Config is the whole configuration.
type Config struct {
	Thermal ThermalConfig `mapstructure:"thermal"`
	Visible VisibleConfig `mapstructure:"visible"`
	Detect  DetectConfig  `mapstructure:"detect"`
	Compose ComposeConfig `mapstructure:"compose"`
	Display DisplayConfig `mapstructure:"display"`
	MQTT    MQTTConfig    `mapstructure:"mqtt"`
	History HistoryConfig `mapstructure:"history"`
	Log     LogConfig     `mapstructure:"log"`
}

// ThermalConfig is the Lepton camera.
type ThermalConfig struct {
	SPI   string `mapstructure:"spi"`
	I2C   string `mapstructure:"i2c"`
	SPIHz int64  `mapstructure:"spi_hz"`
	I2CHz int64  `mapstructure:"i2c_hz"`
	Fake  bool   `mapstructure:"fake"`
	// Radiometric maps [MinC, MaxC] onto the 8 bits frame. When false, the
	// frame is stretched between its coldest and hottest pixels and the
	// reported temperatures are relative.
	Radiometric bool    `mapstructure:"radiometric"`
	MinC        float64 `mapstructure:"min_c"`
	MaxC        float64 `mapstructure:"max_c"`
	// Resolution of one TLinear count: "centi" or "deci" Kelvin.
	Resolution string `mapstructure:"resolution"`
}

// VisibleConfig is the visible-light camera. When neither Device nor File is
// set, the annotations are drawn on the thermal frame itself.
type VisibleConfig struct {
	Device string `mapstructure:"device"`
	File   string `mapstructure:"file"`
	Width  int    `mapstructure:"width"`
	Height int    `mapstructure:"height"`
}

// ThresholdConfig is an inclusive grayscale interval.
type ThresholdConfig struct {
	Lo int `mapstructure:"lo"`
	Hi int `mapstructure:"hi"`
}

// DetectConfig is the blob finder.
type DetectConfig struct {
	// Finder is "components" or "opencv".
	Finder     string            `mapstructure:"finder"`
	Thresholds []ThresholdConfig `mapstructure:"thresholds"`
	// Pixels and Area default to 1% of the thermal frame when 0.
	Pixels int  `mapstructure:"pixels"`
	Area   int  `mapstructure:"area"`
	Merge  bool `mapstructure:"merge"`
	Margin int  `mapstructure:"margin"`
	// Auto replaces Thresholds with one selecting this fraction of the hottest
	// pixels of the first frame. 0 disables.
	Auto float64 `mapstructure:"auto"`
}

// ComposeConfig is how the thermal frame is blended on the visible one.
type ComposeConfig struct {
	Palette string `mapstructure:"palette"`
	// Alpha is "quadratic" or "opaque".
	Alpha     string `mapstructure:"alpha"`
	Hint      string `mapstructure:"hint"`
	TextScale int    `mapstructure:"text_scale"`
	Thickness int    `mapstructure:"thickness"`
}

// DisplayConfig is where the composited frames go.
type DisplayConfig struct {
	// File is rewritten at each frame when set. The extension selects the
	// format: .png, .jpg or .webp.
	File    string `mapstructure:"file"`
	Quality int    `mapstructure:"quality"`
	Width   int    `mapstructure:"width"`
	Height  int    `mapstructure:"height"`
	Filter  string `mapstructure:"filter"`
	Center  bool   `mapstructure:"center"`
	Keep    bool   `mapstructure:"keep_aspect"`
	// Port is the HTTP port to stream on; 0 disables.
	Port int `mapstructure:"port"`
}

// MQTTConfig is the hotspot telemetry.
type MQTTConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Broker   string        `mapstructure:"broker"`
	Port     int           `mapstructure:"port"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	ClientID string        `mapstructure:"client_id"`
	Topic    string        `mapstructure:"topic"`
	Interval time.Duration `mapstructure:"interval"`
}

// HistoryConfig is the hotspot database.
type HistoryConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	File      string        `mapstructure:"file"`
	Retention time.Duration `mapstructure:"retention"`
}

// LogConfig is the logging setup.
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// DefaultPath returns ~/.config/lepton/overlay.yaml.
func DefaultPath() (string, error) {
	usr, err := user.Current()
	if err != nil {
		return "", err
	}
	return filepath.Join(usr.HomeDir, ".config", "lepton", "overlay.yaml"), nil
}

// Load loads the configuration at path, if present, on top of the defaults.
//
// The returned configuration is validated.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	if path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			log.Warnf("Config file %s does not exist, using defaults", path)
		} else {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		}
	}
	v.SetEnvPrefix("LEPTON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Write writes the default configuration to path, creating its directory.
func Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	v := viper.New()
	setDefaults(v)
	return v.WriteConfigAs(path)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("thermal.spi", "")
	v.SetDefault("thermal.i2c", "")
	v.SetDefault("thermal.spi_hz", 20000000)
	v.SetDefault("thermal.i2c_hz", 0)
	v.SetDefault("thermal.fake", false)
	v.SetDefault("thermal.radiometric", true)
	v.SetDefault("thermal.min_c", 20.)
	v.SetDefault("thermal.max_c", 40.)
	v.SetDefault("thermal.resolution", "centi")

	v.SetDefault("visible.device", "")
	v.SetDefault("visible.file", "")
	v.SetDefault("visible.width", 800)
	v.SetDefault("visible.height", 480)

	v.SetDefault("detect.finder", "components")
	v.SetDefault("detect.thresholds", []map[string]interface{}{{"lo": 200, "hi": 255}})
	v.SetDefault("detect.pixels", 0)
	v.SetDefault("detect.area", 0)
	v.SetDefault("detect.merge", true)
	v.SetDefault("detect.margin", 0)
	v.SetDefault("detect.auto", 0.)

	v.SetDefault("compose.palette", "ironbow")
	v.SetDefault("compose.alpha", "quadratic")
	v.SetDefault("compose.hint", "bicubic")
	v.SetDefault("compose.text_scale", 2)
	v.SetDefault("compose.thickness", 1)

	v.SetDefault("display.file", "")
	v.SetDefault("display.quality", 85)
	v.SetDefault("display.width", 0)
	v.SetDefault("display.height", 0)
	v.SetDefault("display.filter", "bilinear")
	v.SetDefault("display.center", true)
	v.SetDefault("display.keep_aspect", true)
	v.SetDefault("display.port", 8010)

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "localhost")
	v.SetDefault("mqtt.port", 1883)
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.client_id", "lepton-overlay")
	v.SetDefault("mqtt.topic", "lepton/hotspots")
	v.SetDefault("mqtt.interval", "1s")

	v.SetDefault("history.enabled", false)
	v.SetDefault("history.file", "lepton-overlay.db")
	v.SetDefault("history.retention", "24h")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
}

// Validate returns an error if the configuration can't be used.
func (c *Config) Validate() error {
	if err := c.Range().Validate(); err != nil {
		return err
	}
	if _, err := c.Thresholds(); err != nil {
		return err
	}
	switch c.Thermal.Resolution {
	case "centi", "deci":
	default:
		return fmt.Errorf("thermal.resolution: want centi or deci, got %q", c.Thermal.Resolution)
	}
	switch c.Detect.Finder {
	case "components", "opencv":
	default:
		return fmt.Errorf("detect.finder: want components or opencv, got %q", c.Detect.Finder)
	}
	if c.Detect.Auto < 0 || c.Detect.Auto > 1 {
		return fmt.Errorf("detect.auto: must be within [0, 1], got %g", c.Detect.Auto)
	}
	if c.Visible.Device != "" && c.Visible.File != "" {
		return errors.New("visible: device and file are mutually exclusive")
	}
	if _, err := compose.PaletteByName(c.Compose.Palette); err != nil {
		return err
	}
	switch c.Compose.Alpha {
	case "quadratic", "opaque":
	default:
		return fmt.Errorf("compose.alpha: want quadratic or opaque, got %q", c.Compose.Alpha)
	}
	if _, err := compose.ParseHint(c.Compose.Hint); err != nil {
		return err
	}
	if _, err := compose.ParseHint(c.Display.Filter); err != nil {
		return err
	}
	if c.MQTT.Enabled && c.MQTT.Topic == "" {
		return errors.New("mqtt.topic: required when mqtt is enabled")
	}
	return nil
}

// Range returns the thermal temperature range.
func (c *Config) Range() overlay.Range {
	return overlay.Range{Min: c.Thermal.MinC, Max: c.Thermal.MaxC}
}

// Thresholds returns the detection thresholds.
func (c *Config) Thresholds() (overlay.Thresholds, error) {
	out := make(overlay.Thresholds, 0, len(c.Detect.Thresholds))
	for _, t := range c.Detect.Thresholds {
		if t.Lo < 0 || t.Lo > 255 || t.Hi < 0 || t.Hi > 255 {
			return nil, fmt.Errorf("%w: (%d, %d) out of [0, 255]", overlay.ErrInvalidThreshold, t.Lo, t.Hi)
		}
		if t.Lo > t.Hi {
			return nil, fmt.Errorf("%w: (%d, %d)", overlay.ErrInvalidThreshold, t.Lo, t.Hi)
		}
		out = append(out, overlay.Threshold{Lo: uint8(t.Lo), Hi: uint8(t.Hi)})
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}
