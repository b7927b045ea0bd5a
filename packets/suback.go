// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2022 mochi-mqtt, mochi-co
// SPDX-FileContributor: mochi-co

package packets

import "bytes"

// SubscribeResult is the server's answer to one filter in a Subscribe.
// Refused is mutually exclusive with QoS: a refused filter carries no
// QoS; an accepted filter carries a granted QoS using the same
// nullable representation as Subscription.QoS (nil means at-most-once).
type SubscribeResult struct {
	Refused bool
	QoS     *QoS
}

// SubscribeAck answers a Subscribe, one result per requested filter, in
// the same order.
type SubscribeAck struct {
	PacketID uint16
	Results  []SubscribeResult
}

func (*SubscribeAck) Type() byte { return subAckTag }
func (*SubscribeAck) isMessage() {}

const subAckFailureCode = 0x80

func decodeSubAck(buf []byte, flags byte) (Message, error) {
	if flags != 0 {
		return nil, malformed("reserved header flags non-zero for SUBACK")
	}

	pid, offset, err := decodeUint16(buf, 0)
	if err != nil {
		return nil, err
	}

	var results []SubscribeResult
	for offset < len(buf) {
		var code byte
		code, offset, err = decodeByte(buf, offset)
		if err != nil {
			return nil, err
		}
		switch code {
		case 0x00:
			results = append(results, SubscribeResult{})
		case 0x01:
			results = append(results, SubscribeResult{QoS: qos(AtLeastOnce)})
		case 0x02:
			results = append(results, SubscribeResult{QoS: qos(ExactlyOnce)})
		case subAckFailureCode:
			results = append(results, SubscribeResult{Refused: true})
		default:
			return nil, malformedf("invalid suback result byte 0x%02x", code)
		}
	}

	if offset != len(buf) {
		return nil, malformedf("remaining length mismatch: expected %d, consumed %d", len(buf), offset)
	}

	return &SubscribeAck{PacketID: pid, Results: results}, nil
}

func encodeSubAck(buf *bytes.Buffer, m *SubscribeAck) error {
	var body bytes.Buffer
	body.Write(encodeUint16(m.PacketID))
	for _, r := range m.Results {
		var code byte
		switch {
		case r.Refused:
			code = subAckFailureCode
		case r.QoS != nil:
			code = byte(*r.QoS)
		}
		body.WriteByte(code)
	}

	fh := FixedHeader{Type: subAckTag, Remaining: body.Len()}
	fh.encode(buf, 0)
	buf.Write(body.Bytes())
	return nil
}
