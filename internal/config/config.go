// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2023 mochi-mqtt, mochi-co
// SPDX-FileContributor: mochi-co

// Package config parses gateway configuration from JSON or YAML bytes into
// a Config ready to hand to cmd/mqttgatewayd.
package config

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	badgerstore "github.com/mqttgatewayd/server/internal/retained/badger"
	boltstore "github.com/mqttgatewayd/server/internal/retained/bolt"
	pebblestore "github.com/mqttgatewayd/server/internal/retained/pebble"
)

// config defines the structure of configuration data to be parsed from a
// config source.
type config struct {
	Listeners ListenersConfig `yaml:"listeners" json:"listeners"`
	Retained  RetainedConfig  `yaml:"retained" json:"retained"`
	Session   SessionConfig   `yaml:"session" json:"session"`
	LogLevel  string          `yaml:"log_level" json:"log_level"`
}

// Config is the parsed, validated configuration handed to the gateway
// daemon's entry point.
type Config struct {
	Listeners ListenersConfig
	Retained  RetainedConfig
	Session   SessionConfig
	LogLevel  string
}

// ListenersConfig holds the addresses the gateway binds. An empty address
// leaves the corresponding listener disabled.
type ListenersConfig struct {
	TCP       string `yaml:"tcp" json:"tcp"`
	Websocket string `yaml:"websocket" json:"websocket"`
}

// RetainedConfig selects exactly one of the three retained-message store
// backends. Exactly one of Badger, Bolt or Pebble must be non-nil.
type RetainedConfig struct {
	Badger *BadgerConfig `yaml:"badger" json:"badger"`
	Bolt   *BoltConfig   `yaml:"bolt" json:"bolt"`
	Pebble *PebbleConfig `yaml:"pebble" json:"pebble"`
}

// BadgerConfig configures the badger-backed retained store.
type BadgerConfig struct {
	Path           string  `yaml:"path" json:"path"`
	GcDiscardRatio float64 `yaml:"gc_discard_ratio" json:"gc_discard_ratio"`
	GcInterval     int64   `yaml:"gc_interval" json:"gc_interval"`
}

// ToOptions converts this configuration into badgerstore.Options.
func (c *BadgerConfig) ToOptions() *badgerstore.Options {
	return &badgerstore.Options{
		Path:           c.Path,
		GcDiscardRatio: c.GcDiscardRatio,
		GcInterval:     c.GcInterval,
	}
}

// BoltConfig configures the bbolt-backed retained store.
type BoltConfig struct {
	Path   string `yaml:"path" json:"path"`
	Bucket string `yaml:"bucket" json:"bucket"`
}

// ToOptions converts this configuration into boltstore.Options.
func (c *BoltConfig) ToOptions() *boltstore.Options {
	return &boltstore.Options{Path: c.Path, Bucket: c.Bucket}
}

// PebbleConfig configures the pebble-backed retained store.
type PebbleConfig struct {
	Path string `yaml:"path" json:"path"`
	Mode string `yaml:"mode" json:"mode"`
}

// ToOptions converts this configuration into pebblestore.Options.
func (c *PebbleConfig) ToOptions() *pebblestore.Options {
	return &pebblestore.Options{Path: c.Path, Mode: c.Mode}
}

// SessionConfig configures the redis-backed session store.
type SessionConfig struct {
	Addr      string `yaml:"addr" json:"addr"`
	KeyPrefix string `yaml:"key_prefix" json:"key_prefix"`
}

// FromBytes unmarshals a byte slice of JSON or YAML config data, the same
// sniff-by-first-byte convention the upstream hook configs used, into a
// validated Config.
func FromBytes(b []byte) (*Config, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("config: empty configuration")
	}

	c := new(config)
	if b[0] == '{' {
		if err := json.Unmarshal(b, c); err != nil {
			return nil, err
		}
	} else {
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, err
		}
	}

	out := &Config{
		Listeners: c.Listeners,
		Retained:  c.Retained,
		Session:   c.Session,
		LogLevel:  c.LogLevel,
	}

	if err := out.validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// validate checks the invariants FromBytes callers rely on: at least one
// listener, exactly one retained backend, and a session address.
func (c *Config) validate() error {
	if c.Listeners.TCP == "" && c.Listeners.Websocket == "" {
		return fmt.Errorf("config: at least one of listeners.tcp or listeners.websocket is required")
	}

	n := 0
	if c.Retained.Badger != nil {
		n++
	}
	if c.Retained.Bolt != nil {
		n++
	}
	if c.Retained.Pebble != nil {
		n++
	}
	if n != 1 {
		return fmt.Errorf("config: exactly one of retained.badger, retained.bolt or retained.pebble is required, got %d", n)
	}

	if c.Session.Addr == "" {
		return fmt.Errorf("config: session.addr is required")
	}

	return nil
}
