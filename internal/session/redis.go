// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2022 mochi-co
// SPDX-FileContributor: mochi-co

// Package session tracks, per client id, the packet identifiers currently
// outstanding for QoS 1/2 delivery and whether a prior session exists for
// the ConnectAck session-present bit — the plain-value bookkeeping a
// gateway needs around the codec, adapted from hooks/storage/redis.
package session

import (
	"context"
	"fmt"

	redis "github.com/go-redis/redis/v8"
)

// defaultAddr is the default address to the redis service.
const defaultAddr = "localhost:6379"

// defaultKeyPrefix identifies keys this package owns in a shared Redis
// instance.
const defaultKeyPrefix = "mqttgatewayd-session-"

// Options configures the connection to the backing Redis instance.
type Options struct {
	KeyPrefix string
	Options   *redis.Options
}

// Store is a session.Store backed by Redis.
type Store struct {
	prefix string
	db     *redis.Client
}

// Open connects to the Redis instance named by opts.
func Open(ctx context.Context, opts *Options) (*Store, error) {
	if opts == nil {
		opts = &Options{Options: &redis.Options{Addr: defaultAddr}}
	}
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = defaultKeyPrefix
	}

	db := redis.NewClient(opts.Options)
	if _, err := db.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("session: failed to ping redis: %w", err)
	}

	return &Store{prefix: opts.KeyPrefix, db: db}, nil
}

// Close disconnects from Redis.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) presentKey(clientID string) string {
	return s.prefix + "present:" + clientID
}

func (s *Store) inflightKey(clientID string) string {
	return s.prefix + "inflight:" + clientID
}

// MarkPresent records that clientID has an active session, so a future
// Connect with CleanSession false reports SessionPresent true in the
// ConnectAck.
func (s *Store) MarkPresent(ctx context.Context, clientID string) error {
	return s.db.Set(ctx, s.presentKey(clientID), 1, 0).Err()
}

// SessionPresent reports whether clientID has a session recorded, per the
// ConnectAck.SessionPresent semantics of decodeConnAck.
func (s *Store) SessionPresent(ctx context.Context, clientID string) (bool, error) {
	n, err := s.db.Exists(ctx, s.presentKey(clientID)).Result()
	if err != nil {
		return false, fmt.Errorf("session: failed to check presence: %w", err)
	}
	return n > 0, nil
}

// ClearSession removes clientID's recorded session and any outstanding
// packet identifiers, as happens on a CleanSession Connect.
func (s *Store) ClearSession(ctx context.Context, clientID string) error {
	if err := s.db.Del(ctx, s.presentKey(clientID)).Err(); err != nil {
		return fmt.Errorf("session: failed to clear presence: %w", err)
	}
	if err := s.db.Del(ctx, s.inflightKey(clientID)).Err(); err != nil {
		return fmt.Errorf("session: failed to clear inflight set: %w", err)
	}
	return nil
}

// AddInflight records packetID as outstanding for clientID. It reports
// false if packetID was already outstanding, so a caller can detect a
// PUBLISH duplicate carrying a reused identifier.
func (s *Store) AddInflight(ctx context.Context, clientID string, packetID uint16) (bool, error) {
	n, err := s.db.SAdd(ctx, s.inflightKey(clientID), packetID).Result()
	if err != nil {
		return false, fmt.Errorf("session: failed to add inflight id: %w", err)
	}
	return n > 0, nil
}

// RemoveInflight clears packetID once its QoS handshake completes
// (PUBACK for QoS 1, PUBCOMP for QoS 2).
func (s *Store) RemoveInflight(ctx context.Context, clientID string, packetID uint16) error {
	if err := s.db.SRem(ctx, s.inflightKey(clientID), packetID).Err(); err != nil {
		return fmt.Errorf("session: failed to remove inflight id: %w", err)
	}
	return nil
}

// Inflight returns the packet identifiers currently outstanding for
// clientID.
func (s *Store) Inflight(ctx context.Context, clientID string) ([]uint16, error) {
	members, err := s.db.SMembers(ctx, s.inflightKey(clientID)).Result()
	if err != nil {
		return nil, fmt.Errorf("session: failed to list inflight ids: %w", err)
	}

	ids := make([]uint16, 0, len(members))
	for _, m := range members {
		var id uint16
		if _, err := fmt.Sscanf(m, "%d", &id); err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
