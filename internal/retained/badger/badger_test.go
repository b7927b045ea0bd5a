// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2022 mochi-mqtt, mochi-co
// SPDX-FileContributor: mochi-co

package badger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mqttgatewayd/server/packets"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(&Options{Path: filepath.Join(t.TempDir(), "retained.badger")})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return s
}

func TestStoreSetGetDelete(t *testing.T) {
	s := openTestStore(t)

	_, ok, err := s.Get("a/b")
	require.NoError(t, err)
	require.False(t, ok)

	m := &packets.Publish{Topic: "a/b", QoS: qosPtr(1), Payload: []byte("hi")}
	require.NoError(t, s.Set("a/b", m))

	got, ok, err := s.Get("a/b")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "a/b", got.Topic)
	require.Equal(t, []byte("hi"), got.Payload)
	require.NotNil(t, got.QoS)
	require.Equal(t, packets.QoS(1), *got.QoS)
	require.True(t, got.Retain)

	require.NoError(t, s.Delete("a/b"))
	_, ok, err = s.Get("a/b")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStoreOverwrite(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Set("a/b", &packets.Publish{Topic: "a/b", Payload: []byte("one")}))
	require.NoError(t, s.Set("a/b", &packets.Publish{Topic: "a/b", Payload: []byte("two")}))

	got, ok, err := s.Get("a/b")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("two"), got.Payload)
}

func qosPtr(b byte) *packets.QoS {
	q := packets.QoS(b)
	return &q
}
