// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2022 mochi-mqtt, mochi-co
// SPDX-FileContributor: mochi-co

package packets

import (
	"encoding/binary"
	"unicode/utf8"
)

// The primitive codec operates on a byte-budget slice: the remaining-length
// bytes read by the fixed header, sliced once up front. Every decode
// function advances an offset through that slice and returns it, so each
// per-type decoder can check that it consumed exactly the bytes it was
// handed ([MQTT-1.5.5-1] by way of §4.2's outer check).

// decodeUint16 reads a big-endian u16 at offset.
func decodeUint16(buf []byte, offset int) (uint16, int, error) {
	if len(buf) < offset+2 {
		return 0, 0, malformed("remaining length exhausted decoding u16")
	}
	return binary.BigEndian.Uint16(buf[offset : offset+2]), offset + 2, nil
}

// decodeByte reads a single byte at offset.
func decodeByte(buf []byte, offset int) (byte, int, error) {
	if len(buf) <= offset {
		return 0, 0, malformed("remaining length exhausted decoding byte")
	}
	return buf[offset], offset + 1, nil
}

// decodeByteBool reads a single byte at offset and reports whether its low
// bit is set.
func decodeByteBool(buf []byte, offset int) (bool, int, error) {
	b, next, err := decodeByte(buf, offset)
	if err != nil {
		return false, 0, err
	}
	return b&0x01 > 0, next, nil
}

// decodeBlob reads a u16-length-prefixed opaque byte string at offset,
// without UTF-8 validation. The returned slice is a fresh copy and does
// not alias buf.
func decodeBlob(buf []byte, offset int) ([]byte, int, error) {
	length, next, err := decodeUint16(buf, offset)
	if err != nil {
		return nil, 0, err
	}
	end := next + int(length)
	if end > len(buf) {
		return nil, 0, malformed("remaining length exhausted decoding length-prefixed field")
	}
	out := make([]byte, length)
	copy(out, buf[next:end])
	return out, end, nil
}

// decodeString reads a u16-length-prefixed UTF-8 string at offset and
// validates it is well-formed UTF-8.
func decodeString(buf []byte, offset int) (string, int, error) {
	b, next, err := decodeBlob(buf, offset)
	if err != nil {
		return "", 0, err
	}
	if !utf8.Valid(b) {
		return "", 0, malformed("invalid UTF-8 in string field")
	}
	return string(b), next, nil
}

// encodeBool renders b as a wire byte.
func encodeBool(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// encodeUint16 renders val as two big-endian bytes.
func encodeUint16(val uint16) []byte {
	buf := make([]byte, 2)
	binary.BigEndian.PutUint16(buf, val)
	return buf
}

// encodeBlob renders val as a u16-length-prefixed byte string. Panics if
// len(val) exceeds 65535 — a programmer error, not a malformed frame,
// since the caller controls these values when building a Message.
func encodeBlob(val []byte) []byte {
	if len(val) > 65535 {
		panic("packets: length-prefixed field exceeds 65535 bytes")
	}
	buf := make([]byte, 2, 2+len(val))
	binary.BigEndian.PutUint16(buf, uint16(len(val)))
	return append(buf, val...)
}

// encodeString renders val as a u16-length-prefixed UTF-8 string.
func encodeString(val string) []byte {
	return encodeBlob([]byte(val))
}
