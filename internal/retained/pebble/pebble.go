// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2022 mochi-mqtt, mochi-co
// SPDX-FileContributor: werbenhu

// Package pebble adapts CockroachDB's Pebble engine as a retained-message
// store backend.
package pebble

import (
	pebbledb "github.com/cockroachdb/pebble"

	"github.com/mqttgatewayd/server/internal/retained"
	"github.com/mqttgatewayd/server/packets"
)

const defaultDbFile = ".pebble"

const (
	NoSync = "NoSync"
	Sync   = "Sync"
)

// Options contains configuration settings for the pebble DB instance.
type Options struct {
	Options *pebbledb.Options
	Mode    string `yaml:"mode" json:"mode"`
	Path    string `yaml:"path" json:"path"`
}

// Store is a retained.Store backed by Pebble.
type Store struct {
	db        *pebbledb.DB
	writeOpts *pebbledb.WriteOptions
}

// Open opens (or creates) the pebble DB instance named by opts.
func Open(opts *Options) (*Store, error) {
	if opts == nil {
		opts = new(Options)
	}
	if opts.Path == "" {
		opts.Path = defaultDbFile
	}

	db, err := pebbledb.Open(opts.Path, opts.Options)
	if err != nil {
		return nil, err
	}

	writeOpts := pebbledb.Sync
	if opts.Mode == NoSync {
		writeOpts = pebbledb.NoSync
	}

	return &Store{db: db, writeOpts: writeOpts}, nil
}

// Close closes the pebble instance.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) key(topic string) []byte {
	return []byte(retained.Key(topic))
}

// Set persists the retained Publish for topic, overwriting any prior entry.
func (s *Store) Set(topic string, m *packets.Publish) error {
	data, err := retained.Marshal(topic, m)
	if err != nil {
		return err
	}
	return s.db.Set(s.key(topic), data, s.writeOpts)
}

// Get returns the retained Publish for topic, if any.
func (s *Store) Get(topic string) (*packets.Publish, bool, error) {
	data, closer, err := s.db.Get(s.key(topic))
	if err == pebbledb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer closer.Close()

	m, err := retained.Unmarshal(data)
	if err != nil {
		return nil, false, err
	}
	return m, true, nil
}

// Delete removes the retained Publish for topic, if any.
func (s *Store) Delete(topic string) error {
	return s.db.Delete(s.key(topic), s.writeOpts)
}
