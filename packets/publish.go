// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2022 mochi-mqtt, mochi-co
// SPDX-FileContributor: mochi-co

package packets

import "bytes"

// Publish carries application data on a topic. QoS nil means at-most-once
// and carries no packet identifier; QoS present always carries one.
type Publish struct {
	Duplicate bool
	Retain    bool
	Topic     string
	QoS       *QoS
	PacketID  uint16 // meaningful only when QoS != nil
	Payload   []byte
}

func (*Publish) Type() byte { return publishTag }
func (*Publish) isMessage() {}

func decodePublish(buf []byte, flags byte) (Message, error) {
	duplicate := flags&0x08 != 0
	retain := flags&0x01 != 0
	qosBits := (flags & 0x06) >> 1

	offset := 0
	topic, offset, err := decodeString(buf, offset)
	if err != nil {
		return nil, err
	}

	m := &Publish{
		Duplicate: duplicate,
		Retain:    retain,
		Topic:     topic,
	}

	switch qosBits {
	case 0b00:
		// no packet identifier
	case 0b01:
		m.QoS = qos(AtLeastOnce)
	case 0b10:
		m.QoS = qos(ExactlyOnce)
	default:
		return nil, malformed("[MQTT] reserved header flags: invalid publish qos 0b11")
	}

	if m.QoS != nil {
		m.PacketID, offset, err = decodeUint16(buf, offset)
		if err != nil {
			return nil, err
		}
	}

	if offset > len(buf) {
		return nil, malformed("remaining length exhausted before payload")
	}
	m.Payload = make([]byte, len(buf)-offset)
	copy(m.Payload, buf[offset:])

	return m, nil
}

func encodePublish(buf *bytes.Buffer, m *Publish) error {
	var body bytes.Buffer
	body.Write(encodeString(m.Topic))

	var qosBits byte
	if m.QoS != nil {
		switch *m.QoS {
		case AtLeastOnce:
			qosBits = 0b01
		case ExactlyOnce:
			qosBits = 0b10
		}
		body.Write(encodeUint16(m.PacketID))
	}
	body.Write(m.Payload)

	flags := (encodeBool(m.Duplicate) << 3) | (qosBits << 1) | encodeBool(m.Retain)

	fh := FixedHeader{Type: publishTag, Remaining: body.Len()}
	fh.encode(buf, flags)
	buf.Write(body.Bytes())
	return nil
}
