// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2022 mochi-mqtt, mochi-co
// SPDX-FileContributor: mochi-co

package packets

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUnsubAckRoundTrip(t *testing.T) {
	original := &UnsubscribeAck{PacketID: 10}
	encoded, err := Encode(original)
	require.NoError(t, err)
	require.Equal(t, []byte{0xB0, 0x02, 0x00, 0x0A}, encoded)

	decoded, err := Decode(bytes.NewReader(encoded))
	require.NoError(t, err)
	require.Equal(t, original, decoded)
}

func TestUnsubAckDecodeRejectsReservedFlags(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte{0xB1, 0x02, 0x00, 0x0A}))
	require.Error(t, err)
}

func BenchmarkUnsubAckEncode(b *testing.B) {
	m := &UnsubscribeAck{PacketID: 10}
	for n := 0; n < b.N; n++ {
		if _, err := Encode(m); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkUnsubAckDecode(b *testing.B) {
	raw := []byte{0xB0, 0x02, 0x00, 0x0A}
	r := bytes.NewReader(raw)
	for n := 0; n < b.N; n++ {
		r.Reset(raw)
		if _, err := Decode(r); err != nil {
			b.Fatal(err)
		}
	}
}
