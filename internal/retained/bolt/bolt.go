// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2022 mochi-mqtt, mochi-co
// SPDX-FileContributor: mochi-co, werbenhu

// Package bolt adapts bbolt as a retained-message store backend. Provided
// for historical compatibility; prefer the badger or pebble backends for
// new deployments.
package bolt

import (
	"errors"
	"time"

	"go.etcd.io/bbolt"

	"github.com/mqttgatewayd/server/internal/retained"
	"github.com/mqttgatewayd/server/packets"
)

var (
	ErrBucketNotFound = errors.New("bucket not found")
	ErrKeyNotFound    = errors.New("key not found")
)

const (
	defaultDbFile  = ".bolt"
	defaultTimeout = 250 * time.Millisecond
	defaultBucket  = "mochi"
)

// Options contains configuration settings for the bolt instance.
type Options struct {
	Options *bbolt.Options
	Bucket  string `yaml:"bucket" json:"bucket"`
	Path    string `yaml:"path" json:"path"`
}

// Store is a retained.Store backed by bbolt.
type Store struct {
	db     *bbolt.DB
	bucket []byte
}

// Open opens (or creates) the bolt instance named by opts.
func Open(opts *Options) (*Store, error) {
	if opts == nil {
		opts = new(Options)
	}
	if opts.Path == "" {
		opts.Path = defaultDbFile
	}
	if opts.Bucket == "" {
		opts.Bucket = defaultBucket
	}

	boltOpts := opts.Options
	if boltOpts == nil {
		boltOpts = &bbolt.Options{Timeout: defaultTimeout}
	}

	db, err := bbolt.Open(opts.Path, 0600, boltOpts)
	if err != nil {
		return nil, err
	}

	s := &Store{db: db, bucket: []byte(opts.Bucket)}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(s.bucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the bolt instance.
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
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return ErrBucketNotFound
		}
		return b.Put(s.key(topic), data)
	})
}

// Get returns the retained Publish for topic, if any.
func (s *Store) Get(topic string) (*packets.Publish, bool, error) {
	var data []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return ErrBucketNotFound
		}
		v := b.Get(s.key(topic))
		if v == nil {
			return nil
		}
		data = make([]byte, len(v))
		copy(data, v)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if data == nil {
		return nil, false, nil
	}

	m, err := retained.Unmarshal(data)
	if err != nil {
		return nil, false, err
	}
	return m, true, nil
}

// Delete removes the retained Publish for topic, if any.
func (s *Store) Delete(topic string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return ErrBucketNotFound
		}
		return b.Delete(s.key(topic))
	})
}
