// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2022 mochi-mqtt, mochi-co
// SPDX-FileContributor: mochi-co

package gateway

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"

	badgerstore "github.com/mqttgatewayd/server/internal/retained/badger"
	"github.com/mqttgatewayd/server/internal/session"
	"github.com/mqttgatewayd/server/packets"
)

func newTestGateway(t *testing.T) *Gateway {
	t.Helper()

	ret, err := badgerstore.Open(&badgerstore.Options{Path: filepath.Join(t.TempDir(), "retained.badger")})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, ret.Close()) })

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	sessions, err := session.Open(context.Background(), &session.Options{Options: &redis.Options{Addr: mr.Addr()}})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, sessions.Close()) })

	return New(nil, ret, sessions)
}

// roundTrip writes m down one end of a net.Pipe, lets gw.Handle service
// the other end, and decodes whatever single reply comes back.
func roundTrip(t *testing.T, gw *Gateway, m packets.Message) packets.Message {
	t.Helper()

	client, server := net.Pipe()
	done := make(chan struct{})
	go func() {
		gw.Handle(context.Background(), server)
		close(done)
	}()

	encoded, err := packets.Encode(m)
	require.NoError(t, err)

	writeErr := make(chan error, 1)
	go func() {
		_, err := client.Write(encoded)
		writeErr <- err
	}()
	require.NoError(t, <-writeErr)

	reply, err := packets.Decode(client)
	require.NoError(t, err)

	client.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("gateway did not finish handling the connection")
	}

	return reply
}

func TestHandleConnectGrantsNoSessionOnCleanStart(t *testing.T) {
	gw := newTestGateway(t)
	id, err := packets.NewClientIdentifier("client-1")
	require.NoError(t, err)

	reply := roundTrip(t, gw, &packets.Connect{ClientID: id, CleanSession: true, KeepAlive: 30})
	ack, ok := reply.(*packets.ConnectAck)
	require.True(t, ok)
	require.False(t, ack.SessionPresent)
}

func TestHandleConnectReportsExistingSession(t *testing.T) {
	gw := newTestGateway(t)
	id, err := packets.NewClientIdentifier("client-2")
	require.NoError(t, err)

	require.NoError(t, gw.Sessions.MarkPresent(context.Background(), "client-2"))

	reply := roundTrip(t, gw, &packets.Connect{ClientID: id, KeepAlive: 30})
	ack, ok := reply.(*packets.ConnectAck)
	require.True(t, ok)
	require.True(t, ack.SessionPresent)
}

func TestHandlePublishAtMostOnceHasNoReply(t *testing.T) {
	gw := newTestGateway(t)

	client, server := net.Pipe()
	done := make(chan struct{})
	go func() {
		gw.Handle(context.Background(), server)
		close(done)
	}()

	encoded, err := packets.Encode(&packets.Publish{Topic: "a/b", Payload: []byte("hi")})
	require.NoError(t, err)

	writeErr := make(chan error, 1)
	go func() {
		_, err := client.Write(encoded)
		writeErr <- err
	}()
	require.NoError(t, <-writeErr)

	client.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("gateway did not close after the client hung up")
	}
}

func TestHandlePublishQoS1RepliesPubAck(t *testing.T) {
	gw := newTestGateway(t)
	qos := packets.AtLeastOnce
	reply := roundTrip(t, gw, &packets.Publish{Topic: "a/b", QoS: &qos, PacketID: 7, Payload: []byte("hi")})

	ack, ok := reply.(*packets.PubAck)
	require.True(t, ok)
	require.Equal(t, uint16(7), ack.PacketID)
}

func TestHandlePublishRetainedStoresMessage(t *testing.T) {
	gw := newTestGateway(t)
	roundTrip(t, gw, &packets.Publish{Topic: "a/b", Retain: true, Payload: []byte("hi")})

	got, ok, err := gw.Retained.Get("a/b")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("hi"), got.Payload)
}

func TestHandlePingRequestRepliesPingResponse(t *testing.T) {
	gw := newTestGateway(t)
	reply := roundTrip(t, gw, &packets.PingRequest{})
	require.IsType(t, &packets.PingResponse{}, reply)
}

func TestHandleSubscribeEchoesRequestedQoS(t *testing.T) {
	gw := newTestGateway(t)
	reply := roundTrip(t, gw, &packets.Subscribe{
		PacketID: 3,
		Filters:  []packets.Subscription{{Filter: "a/b", QoS: qosPtr(packets.ExactlyOnce)}},
	})

	ack, ok := reply.(*packets.SubscribeAck)
	require.True(t, ok)
	require.Equal(t, uint16(3), ack.PacketID)
	require.Len(t, ack.Results, 1)
	require.Equal(t, packets.ExactlyOnce, *ack.Results[0].QoS)
}

func TestHandleDisconnectClosesWithoutReply(t *testing.T) {
	gw := newTestGateway(t)

	client, server := net.Pipe()
	done := make(chan struct{})
	go func() {
		gw.Handle(context.Background(), server)
		close(done)
	}()

	encoded, err := packets.Encode(&packets.Disconnect{})
	require.NoError(t, err)
	_, err = client.Write(encoded)
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("gateway did not close after DISCONNECT")
	}
	client.Close()
}

func TestHandleMalformedFrameClosesConnection(t *testing.T) {
	gw := newTestGateway(t)

	client, server := net.Pipe()
	done := make(chan struct{})
	go func() {
		gw.Handle(context.Background(), server)
		close(done)
	}()

	_, err := client.Write([]byte{0x00, 0x00}) // reserved, unused type tag
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("gateway did not close after a malformed frame")
	}
	client.Close()
}

func qosPtr(q packets.QoS) *packets.QoS {
	return &q
}
