// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2022 mochi-co
// SPDX-FileContributor: mochi-co

package gateway

import (
	"context"
	"net"
)

// TCPListener accepts plain TCP connections and hands each to a Gateway.
type TCPListener struct {
	ID      string
	Address string
	listen  net.Listener
}

// NewTCPListener initialises and returns a new TCPListener bound to
// address.
func NewTCPListener(id, address string) (*TCPListener, error) {
	listen, err := net.Listen("tcp", address)
	if err != nil {
		return nil, err
	}
	return &TCPListener{ID: id, Address: address, listen: listen}, nil
}

// Serve accepts connections until the listener is closed, handing each
// to gw.Handle in its own goroutine.
func (l *TCPListener) Serve(ctx context.Context, gw *Gateway) {
	for {
		conn, err := l.listen.Accept()
		if err != nil {
			return
		}
		go gw.Handle(ctx, conn)
	}
}

// Close closes the underlying listener. Connections already accepted run
// to completion.
func (l *TCPListener) Close() error {
	return l.listen.Close()
}
