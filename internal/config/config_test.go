// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2023 mochi-mqtt, mochi-co
// SPDX-FileContributor: mochi-co

package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var yamlBytes = []byte(`
listeners:
  tcp: ":1883"
  websocket: ":1882"
retained:
  badger:
    path: "/var/lib/mqttgatewayd/retained.badger"
session:
  addr: "localhost:6379"
log_level: "debug"
`)

var jsonBytes = []byte(`{
  "listeners": {"tcp": ":1883", "websocket": ":1882"},
  "retained": {"badger": {"path": "/var/lib/mqttgatewayd/retained.badger"}},
  "session": {"addr": "localhost:6379"},
  "log_level": "debug"
}`)

func TestFromBytesYAML(t *testing.T) {
	c, err := FromBytes(yamlBytes)
	require.NoError(t, err)
	require.Equal(t, ":1883", c.Listeners.TCP)
	require.Equal(t, ":1882", c.Listeners.Websocket)
	require.NotNil(t, c.Retained.Badger)
	require.Equal(t, "/var/lib/mqttgatewayd/retained.badger", c.Retained.Badger.Path)
	require.Equal(t, "localhost:6379", c.Session.Addr)
	require.Equal(t, "debug", c.LogLevel)
}

func TestFromBytesJSON(t *testing.T) {
	c, err := FromBytes(jsonBytes)
	require.NoError(t, err)
	require.Equal(t, ":1883", c.Listeners.TCP)
	require.NotNil(t, c.Retained.Badger)
	require.Equal(t, "localhost:6379", c.Session.Addr)
}

func TestFromBytesRejectsEmptyInput(t *testing.T) {
	_, err := FromBytes(nil)
	require.Error(t, err)
}

func TestFromBytesRejectsNoListeners(t *testing.T) {
	_, err := FromBytes([]byte(`{
  "retained": {"badger": {"path": "x"}},
  "session": {"addr": "localhost:6379"}
}`))
	require.ErrorContains(t, err, "listeners")
}

func TestFromBytesRejectsMultipleRetainedBackends(t *testing.T) {
	_, err := FromBytes([]byte(`{
  "listeners": {"tcp": ":1883"},
  "retained": {"badger": {"path": "x"}, "bolt": {"path": "y"}},
  "session": {"addr": "localhost:6379"}
}`))
	require.ErrorContains(t, err, "exactly one")
}

func TestFromBytesRejectsNoRetainedBackend(t *testing.T) {
	_, err := FromBytes([]byte(`{
  "listeners": {"tcp": ":1883"},
  "session": {"addr": "localhost:6379"}
}`))
	require.ErrorContains(t, err, "exactly one")
}

func TestFromBytesRejectsMissingSessionAddr(t *testing.T) {
	_, err := FromBytes([]byte(`{
  "listeners": {"tcp": ":1883"},
  "retained": {"badger": {"path": "x"}}
}`))
	require.ErrorContains(t, err, "session.addr")
}
