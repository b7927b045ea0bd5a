// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2022 mochi-mqtt, mochi-co
// SPDX-FileContributor: mochi-co, gsagula, werbenhu

// Package badger adapts BadgerDB as a retained-message store backend.
package badger

import (
	"errors"
	"fmt"
	"strings"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/mqttgatewayd/server/internal/retained"
	"github.com/mqttgatewayd/server/packets"
)

const (
	defaultDbFile         = ".badger"
	defaultGcInterval     = 5 * 60
	defaultGcDiscardRatio = 0.5
)

// Options contains configuration settings for the BadgerDB instance.
type Options struct {
	Options        *badgerdb.Options
	Path           string  `yaml:"path" json:"path"`
	GcDiscardRatio float64 `yaml:"gc_discard_ratio" json:"gc_discard_ratio"`
	GcInterval     int64   `yaml:"gc_interval" json:"gc_interval"`
}

// Store is a retained.Store backed by a BadgerDB file.
type Store struct {
	config   *Options
	gcTicker *time.Ticker
	db       *badgerdb.DB
}

// Open opens (or creates) the BadgerDB instance named by opts and starts
// its background value-log garbage collection loop.
func Open(opts *Options) (*Store, error) {
	if opts == nil {
		opts = new(Options)
	}
	if opts.Path == "" {
		opts.Path = defaultDbFile
	}
	if opts.GcInterval == 0 {
		opts.GcInterval = defaultGcInterval
	}
	if opts.GcDiscardRatio <= 0.0 || opts.GcDiscardRatio >= 1.0 {
		opts.GcDiscardRatio = defaultGcDiscardRatio
	}

	s := &Store{config: opts}
	if opts.Options == nil {
		defaultOpts := badgerdb.DefaultOptions(opts.Path)
		opts.Options = &defaultOpts
	}
	opts.Options.Logger = s

	db, err := badgerdb.Open(*opts.Options)
	if err != nil {
		return nil, err
	}
	s.db = db

	s.gcTicker = time.NewTicker(time.Duration(opts.GcInterval) * time.Second)
	go s.gcLoop()

	return s, nil
}

// gcLoop periodically reclaims space in the value log files.
// Refer to: https://dgraph.io/docs/badger/get-started/#garbage-collection
func (s *Store) gcLoop() {
	for range s.gcTicker.C {
	again:
		if err := s.db.RunValueLogGC(s.config.GcDiscardRatio); err == nil {
			goto again
		}
	}
}

// Close stops the gc loop and closes the badger instance.
func (s *Store) Close() error {
	if s.gcTicker != nil {
		s.gcTicker.Stop()
	}
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
	return s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(s.key(topic), data)
	})
}

// Get returns the retained Publish for topic, if any.
func (s *Store) Get(topic string) (*packets.Publish, bool, error) {
	var data []byte
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(s.key(topic))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	m, err := retained.Unmarshal(data)
	if err != nil {
		return nil, false, err
	}
	return m, true, nil
}

// Delete removes the retained Publish for topic, if any.
func (s *Store) Delete(topic string) error {
	return s.db.Update(func(txn *badgerdb.Txn) error {
		err := txn.Delete(s.key(topic))
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

// Errorf satisfies the badger interface for an error logger.
func (s *Store) Errorf(m string, v ...any) {
	_ = fmt.Sprintf(strings.ToLower(strings.Trim(m, "\n")), v...)
}

// Warningf satisfies the badger interface for a warning logger.
func (s *Store) Warningf(m string, v ...any) {}

// Infof satisfies the badger interface for an info logger.
func (s *Store) Infof(m string, v ...any) {}

// Debugf satisfies the badger interface for a debug logger.
func (s *Store) Debugf(m string, v ...any) {}
