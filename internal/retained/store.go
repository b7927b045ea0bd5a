// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2022 mochi-mqtt, mochi-co
// SPDX-FileContributor: mochi-co

// Package retained defines the storage contract for retained Publish
// messages, grounded on hooks/storage's key-value conventions.
package retained

import (
	"encoding/json"
	"errors"

	"github.com/mqttgatewayd/server/packets"
)

// KeyPrefix namespaces retained-message keys in a shared key-value space,
// carried over from storage.RetainedKey.
const KeyPrefix = "RET_"

// ErrNotOpen indicates the backing database was not open for reading.
var ErrNotOpen = errors.New("retained store: db file not open")

// Store persists the single retained Publish for each topic. Set stores
// whatever Publish it is given, including one with an empty Payload;
// clearing a topic's entry is done with Delete, which is what the MQTT
// convention for a retained Publish with an empty Payload calls for.
type Store interface {
	Set(topic string, m *packets.Publish) error
	Get(topic string) (*packets.Publish, bool, error)
	Delete(topic string) error
	Close() error
}

// record is the wire shape persisted for a retained message. It carries
// only the fields a Publish needs to be reconstructed; QoS is stored as a
// nullable byte using the same encoding the codec itself rejects values
// outside of (0x00, 0x01, 0x02).
type record struct {
	Topic     string  `json:"topic"`
	Payload   []byte  `json:"payload"`
	QoS       *byte   `json:"qos,omitempty"`
	Duplicate bool    `json:"duplicate,omitempty"`
}

// Marshal serializes a retained Publish for topic to its storage encoding.
// Backends call this rather than encoding a packets.Publish directly, so
// all three share one wire format.
func Marshal(topic string, m *packets.Publish) ([]byte, error) {
	r := record{Topic: topic, Payload: m.Payload, Duplicate: m.Duplicate}
	if m.QoS != nil {
		b := byte(*m.QoS)
		r.QoS = &b
	}
	return json.Marshal(r)
}

// Unmarshal reverses Marshal.
func Unmarshal(data []byte) (*packets.Publish, error) {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	m := &packets.Publish{
		Topic:     r.Topic,
		Payload:   r.Payload,
		Duplicate: r.Duplicate,
		Retain:    true,
	}
	if r.QoS != nil {
		qos := packets.QoS(*r.QoS)
		m.QoS = &qos
	}
	return m, nil
}

// Key returns the storage key for topic's retained entry.
func Key(topic string) string {
	return KeyPrefix + topic
}
