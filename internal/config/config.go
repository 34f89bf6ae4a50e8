// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all application configuration values.
type Config struct {
	// LogLevel is the level of logs to output (debug|info|warn|error)
	LogLevel string `env:"LOG_LEVEL" default:"info"`

	// Transport selects the frame bus: "mqtt" or "nats"
	Transport      string `env:"TRANSPORT" default:"mqtt"`
	MQTTBroker     string `env:"MQTT_BROKER" default:"tcp://localhost:1883"`
	NATSURL        string `env:"NATS_URL" default:"nats://localhost:4222"`
	ClientIDPrefix string `env:"CLIENT_ID_PREFIX" default:"geonet-beacon"`

	// Topics
	TopicBeacon string `env:"TOPIC_BEACON" default:"geonet/shb"`
	TopicDCC    string `env:"TOPIC_DCC" default:"geonet/dcc"`

	// GNAddress is this station's GeoNetworking address, "xx:xx:xx:xx:xx:xx:xx:xx"
	GNAddress string `env:"GN_ADDRESS" default:"94:00:00:00:00:00:00:01"`

	// GPS
	GPSSerialPort string `env:"GPS_SERIAL_PORT" default:"/dev/serial0"`
	GPSBaudRate   int    `env:"GPS_BAUD_RATE" default:"9600"`
	UseMockGPS    bool   `env:"USE_MOCK_GPS" default:"false"`

	// AccuracyHDOP is the largest HDOP for which the position accuracy flag is set
	AccuracyHDOP float64 `env:"ACCURACY_HDOP" default:"2.0"`

	// Timing, milliseconds
	BeaconIntervalMS  int `env:"BEACON_INTERVAL_MS" default:"100"`
	DCCMaxAgeMS       int `env:"DCC_MAX_AGE_MS" default:"1000"`
	NeighborMaxAgeMS  int `env:"NEIGHBOR_MAX_AGE_MS" default:"5000"`
	DisplayIntervalMS int `env:"DISPLAY_UPDATE_INTERVAL" default:"500"`

	// Web Server
	WebServerPort int `env:"WEB_SERVER_PORT" default:"8080"`

	// Display
	DisplayLeftI2CAddr  uint16 `env:"DISPLAY_LEFT_I2C_ADDR" default:"60"`
	DisplayRightI2CAddr uint16 `env:"DISPLAY_RIGHT_I2C_ADDR" default:"61"`
}

// Package-level singleton. InitGlobal sets it once, Get reads it.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads a KEY=VALUE configuration file and returns a Config struct.
// Variables set in the process environment override the file. An empty
// path loads defaults plus the environment.
func Load(configPath string) (*Config, error) {
	values := map[string]string{}
	if configPath != "" {
		fileValues, err := godotenv.Read(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		values = fileValues
	}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			values[k] = v
		}
	}
	return parse(values)
}

func parse(values map[string]string) (*Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](env.Options{
		Environment:         values,
		DefaultValueTagName: "default",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate checks that all values are usable.
func (c *Config) validate() error {
	switch c.Transport {
	case "mqtt":
		if c.MQTTBroker == "" {
			return fmt.Errorf("MQTT_BROKER is required")
		}
	case "nats":
		if c.NATSURL == "" {
			return fmt.Errorf("NATS_URL is required")
		}
	default:
		return fmt.Errorf("TRANSPORT must be mqtt or nats, got %q", c.Transport)
	}
	if c.TopicBeacon == "" {
		return fmt.Errorf("TOPIC_BEACON is required")
	}
	if c.BeaconIntervalMS <= 0 {
		return fmt.Errorf("BEACON_INTERVAL_MS must be positive, got %d", c.BeaconIntervalMS)
	}
	if c.NeighborMaxAgeMS <= 0 {
		return fmt.Errorf("NEIGHBOR_MAX_AGE_MS must be positive, got %d", c.NeighborMaxAgeMS)
	}
	if c.DisplayIntervalMS <= 0 {
		return fmt.Errorf("DISPLAY_UPDATE_INTERVAL must be positive, got %d", c.DisplayIntervalMS)
	}
	if c.GPSBaudRate <= 0 {
		return fmt.Errorf("GPS_BAUD_RATE must be positive, got %d", c.GPSBaudRate)
	}
	if c.AccuracyHDOP < 0 {
		return fmt.Errorf("ACCURACY_HDOP must not be negative, got %v", c.AccuracyHDOP)
	}
	return nil
}

func (c *Config) BeaconInterval() time.Duration {
	return time.Duration(c.BeaconIntervalMS) * time.Millisecond
}

func (c *Config) DCCMaxAge() time.Duration {
	return time.Duration(c.DCCMaxAgeMS) * time.Millisecond
}

func (c *Config) NeighborMaxAge() time.Duration {
	return time.Duration(c.NeighborMaxAgeMS) * time.Millisecond
}

func (c *Config) DisplayInterval() time.Duration {
	return time.Duration(c.DisplayIntervalMS) * time.Millisecond
}

// InitGlobal initializes the global configuration from file.
// Only the first call has an effect.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
