// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2022 mochi-mqtt, mochi-co
// SPDX-FileContributor: mochi-co

// Package gateway drives packets.Decode/packets.Encode over accepted
// connections, the MQTT analogue of the codec's former in-package
// Parser.Read loop, now living alongside the collaborators (retained
// store, session store) a minimal broker needs around the codec.
package gateway

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"os"

	"github.com/rs/xid"

	"github.com/mqttgatewayd/server/internal/retained"
	"github.com/mqttgatewayd/server/internal/session"
	"github.com/mqttgatewayd/server/packets"
)

// Gateway services accepted connections: it decodes one packets.Message
// at a time, consults Retained and Sessions for the side effects a
// minimal broker needs, and encodes back whatever reply (if any) the
// protocol requires. It never inspects or mutates wire bytes directly —
// only packets.Message values cross its boundary.
type Gateway struct {
	Log      *slog.Logger
	Retained retained.Store
	Sessions *session.Store
}

// New returns a Gateway. A nil log defaults to a text handler over stdout.
func New(log *slog.Logger, ret retained.Store, sessions *session.Store) *Gateway {
	if log == nil {
		log = slog.New(slog.NewTextHandler(os.Stdout, nil))
	}
	return &Gateway{Log: log, Retained: ret, Sessions: sessions}
}

// Handle services one connection until it closes, the peer disconnects,
// or a MalformedFrame is decoded — in every case the connection is closed
// before Handle returns.
func (g *Gateway) Handle(ctx context.Context, conn net.Conn) {
	id := xid.New().String()
	log := g.Log.With("conn", id, "remote", conn.RemoteAddr().String())
	defer conn.Close()

	log.Info("connection accepted")
	for {
		m, err := packets.Decode(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Warn("decode failed", "error", err)
			}
			return
		}

		log.Debug("packet received", "type", packets.Names[m.Type()])

		reply, err := g.dispatch(ctx, id, m)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Warn("dispatch failed", "error", err)
			}
			return
		}
		if reply == nil {
			continue
		}

		encoded, err := packets.Encode(reply)
		if err != nil {
			log.Warn("encode failed", "error", err)
			return
		}
		if _, err := conn.Write(encoded); err != nil {
			log.Warn("write failed", "error", err)
			return
		}
	}
}

// dispatch returns the reply packets.Message for m, or nil if m requires
// none. An io.EOF return signals a graceful close (DISCONNECT).
func (g *Gateway) dispatch(ctx context.Context, clientID string, m packets.Message) (packets.Message, error) {
	switch p := m.(type) {
	case *packets.Connect:
		return g.handleConnect(ctx, p)

	case *packets.Publish:
		return g.handlePublish(p)

	case *packets.PubRel:
		return &packets.PubComp{PacketID: p.PacketID}, nil

	case *packets.Subscribe:
		results := make([]packets.SubscribeResult, len(p.Filters))
		for i, f := range p.Filters {
			results[i] = packets.SubscribeResult{QoS: f.QoS}
		}
		return &packets.SubscribeAck{PacketID: p.PacketID, Results: results}, nil

	case *packets.Unsubscribe:
		return &packets.UnsubscribeAck{PacketID: p.PacketID}, nil

	case *packets.PingRequest:
		return &packets.PingResponse{}, nil

	case *packets.Disconnect:
		return nil, io.EOF

	default:
		return nil, nil
	}
}

func (g *Gateway) handleConnect(ctx context.Context, p *packets.Connect) (packets.Message, error) {
	id := string(p.ClientID)

	if p.CleanSession {
		if err := g.Sessions.ClearSession(ctx, id); err != nil {
			return nil, err
		}
		return &packets.ConnectAck{SessionPresent: false}, nil
	}

	present, err := g.Sessions.SessionPresent(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := g.Sessions.MarkPresent(ctx, id); err != nil {
		return nil, err
	}
	return &packets.ConnectAck{SessionPresent: present}, nil
}

func (g *Gateway) handlePublish(p *packets.Publish) (packets.Message, error) {
	if p.Retain {
		var err error
		if len(p.Payload) == 0 {
			err = g.Retained.Delete(p.Topic)
		} else {
			err = g.Retained.Set(p.Topic, p)
		}
		if err != nil {
			return nil, err
		}
	}

	if p.QoS == nil {
		return nil, nil
	}
	switch *p.QoS {
	case packets.AtLeastOnce:
		return &packets.PubAck{PacketID: p.PacketID}, nil
	case packets.ExactlyOnce:
		return &packets.PubRec{PacketID: p.PacketID}, nil
	default:
		return nil, nil
	}
}
