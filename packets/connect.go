// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2022 mochi-mqtt, mochi-co
// SPDX-FileContributor: mochi-co

package packets

import "bytes"

// connectProtocolName and connectProtocolLevel are the only protocol
// name/level pair this codec accepts. MQTT 3.1's "MQIsdp" name and any
// level other than 4 are rejected: this codec speaks MQTT 3.1.1 only.
var connectProtocolName = []byte{0x00, 0x04, 'M', 'Q', 'T', 'T'}

const connectProtocolLevel byte = 0x04

// Connect flag bit positions within the connect flags byte.
const (
	connectFlagReserved     = 0x01
	connectFlagCleanSession = 0x02
	connectFlagWill         = 0x04
	connectFlagWillQoSMask  = 0x18
	connectFlagWillQoSShift = 3
	connectFlagWillRetain   = 0x20
	connectFlagPassword     = 0x40
	connectFlagUsername     = 0x80
)

// Connect is the first packet a client sends on a new connection.
type Connect struct {
	ClientID     ClientIdentifier
	CleanSession bool
	KeepAlive    uint16
	Will         *Will        // nil if the client offers no will
	Credentials  *Credentials // nil if the client offers no credentials
}

func (*Connect) Type() byte { return connectTag }
func (*Connect) isMessage() {}

func decodeConnect(buf []byte, flags byte) (Message, error) {
	if flags != 0 {
		return nil, malformed("reserved header flags non-zero for CONNECT")
	}

	offset := 0

	var protoName []byte
	var err error
	protoName, offset, err = decodeBlob(buf, offset)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(protoName, connectProtocolName[2:]) {
		return nil, malformed("unsupported protocol name")
	}

	var level byte
	level, offset, err = decodeByte(buf, offset)
	if err != nil {
		return nil, err
	}
	if level != connectProtocolLevel {
		return nil, malformed("unsupported protocol level")
	}

	var connectFlags byte
	connectFlags, offset, err = decodeByte(buf, offset)
	if err != nil {
		return nil, err
	}
	if connectFlags&connectFlagReserved != 0 {
		return nil, malformed("[MQTT-3.1.2-3] reserved connect flag bit set")
	}

	cleanSession := connectFlags&connectFlagCleanSession != 0
	willFlag := connectFlags&connectFlagWill != 0
	willQoSBits := (connectFlags & connectFlagWillQoSMask) >> connectFlagWillQoSShift
	willRetain := connectFlags&connectFlagWillRetain != 0
	passwordFlag := connectFlags&connectFlagPassword != 0
	usernameFlag := connectFlags&connectFlagUsername != 0

	if !willFlag && (willQoSBits != 0 || willRetain) {
		return nil, malformed("[MQTT-3.1.2-11] will qos or retain set without will flag")
	}
	if willQoSBits > 2 {
		return nil, malformed("[MQTT-3.1.2-14] invalid will qos bits")
	}
	if passwordFlag && !usernameFlag {
		return nil, malformed("[MQTT-3.1.2-22] password flag set without username flag")
	}

	var keepAlive uint16
	keepAlive, offset, err = decodeUint16(buf, offset)
	if err != nil {
		return nil, err
	}

	var clientIDStr string
	clientIDStr, offset, err = decodeString(buf, offset)
	if err != nil {
		return nil, err
	}
	clientID, err := NewClientIdentifier(clientIDStr)
	if err != nil {
		return nil, err
	}

	var will *Will
	if willFlag {
		var topic string
		topic, offset, err = decodeString(buf, offset)
		if err != nil {
			return nil, err
		}
		var message []byte
		message, offset, err = decodeBlob(buf, offset)
		if err != nil {
			return nil, err
		}
		will = &Will{
			Topic:   topic,
			Message: message,
			Retain:  willRetain,
		}
		if willQoSBits > 0 {
			will.QoS = qos(QoS(willQoSBits))
		}
	}

	var creds *Credentials
	if usernameFlag {
		var username string
		username, offset, err = decodeString(buf, offset)
		if err != nil {
			return nil, err
		}
		creds = &Credentials{Username: username}
		if passwordFlag {
			var password []byte
			password, offset, err = decodeBlob(buf, offset)
			if err != nil {
				return nil, err
			}
			creds.Password = password
		}
	}

	if offset != len(buf) {
		return nil, malformedf("remaining length mismatch: expected %d, consumed %d", len(buf), offset)
	}

	return &Connect{
		ClientID:     clientID,
		CleanSession: cleanSession,
		KeepAlive:    keepAlive,
		Will:         will,
		Credentials:  creds,
	}, nil
}

func encodeConnect(buf *bytes.Buffer, m *Connect) error {
	var flags byte
	if m.CleanSession {
		flags |= connectFlagCleanSession
	}
	if m.Will != nil {
		flags |= connectFlagWill
		if m.Will.QoS != nil {
			flags |= byte(*m.Will.QoS) << connectFlagWillQoSShift
		}
		if m.Will.Retain {
			flags |= connectFlagWillRetain
		}
	}
	if m.Credentials != nil {
		flags |= connectFlagUsername
		if m.Credentials.Password != nil {
			flags |= connectFlagPassword
		}
	}

	var body bytes.Buffer
	body.Write(connectProtocolName)
	body.WriteByte(connectProtocolLevel)
	body.WriteByte(flags)
	body.Write(encodeUint16(m.KeepAlive))
	body.Write(encodeString(string(m.ClientID)))
	if m.Will != nil {
		body.Write(encodeString(m.Will.Topic))
		body.Write(encodeBlob(m.Will.Message))
	}
	if m.Credentials != nil {
		body.Write(encodeString(m.Credentials.Username))
		if m.Credentials.Password != nil {
			body.Write(encodeBlob(m.Credentials.Password))
		}
	}

	fh := FixedHeader{Type: connectTag, Remaining: body.Len()}
	fh.encode(buf, 0)
	buf.Write(body.Bytes())
	return nil
}
