// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2022 mochi-co
// SPDX-FileContributor: mochi-co

package gateway

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// ErrInvalidMessage indicates that a websocket frame was not binary.
var ErrInvalidMessage = errors.New("message type not binary")

// WebsocketListener accepts MQTT-over-websocket connections and hands
// each to a Gateway.
type WebsocketListener struct {
	ID       string
	Address  string
	server   *http.Server
	upgrader *websocket.Upgrader
	gw       *Gateway
}

// NewWebsocketListener initialises and returns a new WebsocketListener
// bound to address.
func NewWebsocketListener(id, address string) *WebsocketListener {
	return &WebsocketListener{
		ID:      id,
		Address: address,
		upgrader: &websocket.Upgrader{
			Subprotocols: []string{"mqtt"},
			CheckOrigin:  func(r *http.Request) bool { return true },
		},
	}
}

// Serve starts the HTTP server handling websocket upgrades until Close
// is called.
func (l *WebsocketListener) Serve(ctx context.Context, gw *Gateway) error {
	l.gw = gw

	mux := http.NewServeMux()
	mux.HandleFunc("/", l.handler(ctx))
	l.server = &http.Server{
		Addr:         l.Address,
		Handler:      mux,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	if err := l.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (l *WebsocketListener) handler(ctx context.Context) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := l.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		l.gw.Handle(ctx, &wsConn{Conn: c.UnderlyingConn(), c: c})
	}
}

// Close shuts down the HTTP server, waiting up to five seconds for it to
// stop. Upgraded websocket connections are hijacked from the server, so
// the shutdown neither waits for nor closes them.
func (l *WebsocketListener) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return l.server.Shutdown(ctx)
}

// wsConn adapts a *websocket.Conn to net.Conn so Gateway.Handle can drive
// packets.Decode/packets.Encode over it exactly as it does a TCP conn.
type wsConn struct {
	net.Conn
	c *websocket.Conn
}

// Read reads the next span of bytes from the websocket connection.
func (ws *wsConn) Read(p []byte) (int, error) {
	op, r, err := ws.c.NextReader()
	if err != nil {
		return 0, err
	}
	if op != websocket.BinaryMessage {
		return 0, ErrInvalidMessage
	}

	var n int
	for {
		br, err := r.Read(p[n:])
		n += br
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = nil
			}
			return n, err
		}
	}
}

// Write writes bytes to the websocket connection as a single binary frame.
func (ws *wsConn) Write(p []byte) (int, error) {
	if err := ws.c.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close closes the underlying websocket connection.
func (ws *wsConn) Close() error {
	return ws.Conn.Close()
}
