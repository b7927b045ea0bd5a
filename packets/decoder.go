// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2022 mochi-mqtt, mochi-co
// SPDX-FileContributor: mochi-co

package packets

import "io"

// Decode reads one MQTT control packet from r: the fixed header, then
// exactly the declared remaining-length bytes, dispatching to the
// per-type decoder named by the header's type tag. A per-type decoder
// that does not consume its entire budget, or that overruns it, is a
// MalformedFrame — never a panic or a short read.
func Decode(r io.Reader) (Message, error) {
	br, ok := r.(io.ByteReader)
	if !ok {
		br = &byteReader{r: r}
	}

	fh, err := decodeFixedHeader(br)
	if err != nil {
		return nil, err
	}

	body := make([]byte, fh.Remaining)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}

	switch fh.Type {
	case connectTag:
		return decodeConnect(body, fh.Flags)
	case connAckTag:
		return decodeConnAck(body, fh.Flags)
	case publishTag:
		return decodePublish(body, fh.Flags)
	case pubAckTag:
		return decodePubAck(body, fh.Flags)
	case pubRecTag:
		return decodePubRec(body, fh.Flags)
	case pubRelTag:
		return decodePubRel(body, fh.Flags)
	case pubCompTag:
		return decodePubComp(body, fh.Flags)
	case subscribeTag:
		return decodeSubscribe(body, fh.Flags)
	case subAckTag:
		return decodeSubAck(body, fh.Flags)
	case unsubscribeTag:
		return decodeUnsubscribe(body, fh.Flags)
	case unsubAckTag:
		return decodeUnsubAck(body, fh.Flags)
	case pingReqTag:
		return decodePingReq(body, fh.Flags)
	case pingRespTag:
		return decodePingResp(body, fh.Flags)
	case disconnectTag:
		return decodeDisconnect(body, fh.Flags)
	default:
		return nil, malformedf("unknown packet type 0x%02x", fh.Type)
	}
}

// byteReader adapts an io.Reader with no ReadByte method to io.ByteReader,
// for fixed-header decoding over sources like bytes.NewReader results that
// already satisfy it and plain net.Conn values that don't.
type byteReader struct {
	r   io.Reader
	buf [1]byte
}

func (b *byteReader) ReadByte() (byte, error) {
	if _, err := io.ReadFull(b.r, b.buf[:]); err != nil {
		return 0, err
	}
	return b.buf[0], nil
}
