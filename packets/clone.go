// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2022 mochi-mqtt, mochi-co
// SPDX-FileContributor: mochi-co

package packets

import "github.com/jinzhu/copier"

// Clone returns a deep copy of m, sharing no mutable state with it. Every
// Message variant is a plain struct of values, pointers, and slices, so a
// generic deep copier is sufficient; it also insulates Clone from having
// to be updated by hand as variants grow fields.
func Clone(m Message) Message {
	switch p := m.(type) {
	case *Connect:
		out := new(Connect)
		copier.CopyWithOption(out, p, copier.Option{DeepCopy: true})
		return out
	case *ConnectAck:
		out := new(ConnectAck)
		copier.CopyWithOption(out, p, copier.Option{DeepCopy: true})
		return out
	case *Publish:
		out := new(Publish)
		copier.CopyWithOption(out, p, copier.Option{DeepCopy: true})
		return out
	case *PubAck:
		out := new(PubAck)
		copier.CopyWithOption(out, p, copier.Option{DeepCopy: true})
		return out
	case *PubRec:
		out := new(PubRec)
		copier.CopyWithOption(out, p, copier.Option{DeepCopy: true})
		return out
	case *PubRel:
		out := new(PubRel)
		copier.CopyWithOption(out, p, copier.Option{DeepCopy: true})
		return out
	case *PubComp:
		out := new(PubComp)
		copier.CopyWithOption(out, p, copier.Option{DeepCopy: true})
		return out
	case *Subscribe:
		out := new(Subscribe)
		copier.CopyWithOption(out, p, copier.Option{DeepCopy: true})
		return out
	case *SubscribeAck:
		out := new(SubscribeAck)
		copier.CopyWithOption(out, p, copier.Option{DeepCopy: true})
		return out
	case *Unsubscribe:
		out := new(Unsubscribe)
		copier.CopyWithOption(out, p, copier.Option{DeepCopy: true})
		return out
	case *UnsubscribeAck:
		out := new(UnsubscribeAck)
		copier.CopyWithOption(out, p, copier.Option{DeepCopy: true})
		return out
	case *PingRequest:
		out := new(PingRequest)
		return out
	case *PingResponse:
		out := new(PingResponse)
		return out
	case *Disconnect:
		out := new(Disconnect)
		return out
	default:
		return nil
	}
}
