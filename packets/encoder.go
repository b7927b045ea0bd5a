// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2022 mochi-mqtt, mochi-co
// SPDX-FileContributor: mochi-co

package packets

import "bytes"

// Encode produces the canonical wire encoding of m.
func Encode(m Message) ([]byte, error) {
	var buf bytes.Buffer

	var err error
	switch p := m.(type) {
	case *Connect:
		err = encodeConnect(&buf, p)
	case *ConnectAck:
		err = encodeConnAck(&buf, p)
	case *Publish:
		err = encodePublish(&buf, p)
	case *PubAck:
		err = encodePubAck(&buf, p)
	case *PubRec:
		err = encodePubRec(&buf, p)
	case *PubRel:
		err = encodePubRel(&buf, p)
	case *PubComp:
		err = encodePubComp(&buf, p)
	case *Subscribe:
		err = encodeSubscribe(&buf, p)
	case *SubscribeAck:
		err = encodeSubAck(&buf, p)
	case *Unsubscribe:
		err = encodeUnsubscribe(&buf, p)
	case *UnsubscribeAck:
		err = encodeUnsubAck(&buf, p)
	case *PingRequest:
		err = encodePingReq(&buf, p)
	case *PingResponse:
		err = encodePingResp(&buf, p)
	case *Disconnect:
		err = encodeDisconnect(&buf, p)
	default:
		return nil, malformedf("unknown message type %T", m)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
