// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2022 mochi-mqtt, mochi-co
// SPDX-FileContributor: mochi-co

package packets

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

var unsubscribeBytes = []byte{0xA2, 0x07, 0x00, 0x0A, 0x00, 0x03, 'a', '/', 'b'}

func TestUnsubscribeDecode(t *testing.T) {
	m, err := Decode(bytes.NewReader(unsubscribeBytes))
	require.NoError(t, err)

	u, ok := m.(*Unsubscribe)
	require.True(t, ok)
	require.Equal(t, uint16(10), u.PacketID)
	require.Equal(t, []string{"a/b"}, u.Filters)
}

func TestUnsubscribeEncode(t *testing.T) {
	encoded, err := Encode(&Unsubscribe{PacketID: 10, Filters: []string{"a/b"}})
	require.NoError(t, err)
	require.Equal(t, unsubscribeBytes, encoded)
}

func TestUnsubscribeRoundTripMultipleFilters(t *testing.T) {
	original := &Unsubscribe{PacketID: 5, Filters: []string{"a", "b/c", "d/+/e"}}
	encoded, err := Encode(original)
	require.NoError(t, err)

	decoded, err := Decode(bytes.NewReader(encoded))
	require.NoError(t, err)
	require.Equal(t, original, decoded)
}

func TestUnsubscribeDecodeRejectsEmptyFilterList(t *testing.T) {
	raw := []byte{0xA2, 0x02, 0x00, 0x0A}
	_, err := Decode(bytes.NewReader(raw))
	require.Error(t, err)
}

func TestUnsubscribeDecodeRejectsWrongFlags(t *testing.T) {
	raw := make([]byte, len(unsubscribeBytes))
	copy(raw, unsubscribeBytes)
	raw[0] = 0xA0
	_, err := Decode(bytes.NewReader(raw))
	require.Error(t, err)
}

func BenchmarkUnsubscribeEncode(b *testing.B) {
	m := &Unsubscribe{PacketID: 10, Filters: []string{"a/b"}}
	for n := 0; n < b.N; n++ {
		if _, err := Encode(m); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkUnsubscribeDecode(b *testing.B) {
	r := bytes.NewReader(unsubscribeBytes)
	for n := 0; n < b.N; n++ {
		r.Reset(unsubscribeBytes)
		if _, err := Decode(r); err != nil {
			b.Fatal(err)
		}
	}
}
