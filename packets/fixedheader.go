// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2022 mochi-mqtt, mochi-co
// SPDX-FileContributor: mochi-co

package packets

import (
	"bytes"
	"io"
)

// maxRemainingLength is the largest value the four-byte variable-length
// remaining-length encoding can hold: 0x7F + 0x7F<<7 + 0x7F<<14 + 0x7F<<21.
const maxRemainingLength = 268435455

// FixedHeader holds the two fields every MQTT control packet begins with:
// the first byte (packet type tag in the high nibble, type-specific flags
// in the low nibble) and the remaining-length varint that follows it.
type FixedHeader struct {
	Type      byte
	Flags     byte
	Remaining int
}

// decodeFixedHeader reads the header byte and the remaining-length varint
// from r. It does not validate Flags against the per-type rules in §4.2 —
// that is the responsibility of each type's decoder, which receives Flags
// alongside the payload it must interpret.
func decodeFixedHeader(r io.ByteReader) (FixedHeader, error) {
	b0, err := r.ReadByte()
	if err != nil {
		return FixedHeader{}, err
	}

	rl, err := decodeRemainingLength(r)
	if err != nil {
		return FixedHeader{}, err
	}

	return FixedHeader{
		Type:      b0 >> 4,
		Flags:     b0 & 0x0f,
		Remaining: rl,
	}, nil
}

// encode writes the fixed header byte (using the caller-supplied flags
// nibble) and the remaining-length varint to buf.
func (fh FixedHeader) encode(buf *bytes.Buffer, flags byte) {
	buf.WriteByte(fh.Type<<4 | flags&0x0f)
	encodeRemainingLength(buf, fh.Remaining)
}

// encodeRemainingLength emits length as 1..4 bytes of little-endian
// base-128, continuation bit set on all but the last byte ([MQTT-1.5.5-1]
// non-normative, carried over unchanged from MQTT 5's identical encoding).
func encodeRemainingLength(buf *bytes.Buffer, length int) {
	for {
		b := byte(length % 128)
		length /= 128
		if length > 0 {
			b |= 0x80
		}
		buf.WriteByte(b)
		if length == 0 {
			break
		}
	}
}

// decodeRemainingLength reads 1..4 bytes of little-endian base-128 from r.
// A fifth continuation byte is a protocol violation: the encoding MUST NOT
// exceed four bytes.
func decodeRemainingLength(r io.ByteReader) (int, error) {
	var value uint32
	var shift uint
	for i := 0; i < 4; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		value |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			return int(value), nil
		}
		shift += 7
	}
	return 0, malformed("remaining length: more than 4 continuation bytes")
}
