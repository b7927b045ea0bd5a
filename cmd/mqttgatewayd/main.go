// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2023 mochi-mqtt, mochi-co
// SPDX-FileContributor: mochi-co

// Command mqttgatewayd runs the MQTT gateway daemon: it parses a config
// file, opens the configured retained-message and session stores, and
// serves TCP and/or websocket listeners until SIGINT/SIGTERM.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	redis "github.com/go-redis/redis/v8"

	"github.com/mqttgatewayd/server/internal/config"
	"github.com/mqttgatewayd/server/internal/gateway"
	"github.com/mqttgatewayd/server/internal/retained"
	badgerstore "github.com/mqttgatewayd/server/internal/retained/badger"
	boltstore "github.com/mqttgatewayd/server/internal/retained/bolt"
	pebblestore "github.com/mqttgatewayd/server/internal/retained/pebble"
	"github.com/mqttgatewayd/server/internal/session"
)

func main() {
	configPath := flag.String("config", "", "path to a JSON or YAML config file")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if err := run(*configPath, log); err != nil {
		log.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, log *slog.Logger) error {
	if configPath == "" {
		return fmt.Errorf("missing required -config flag")
	}

	b, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	cfg, err := config.FromBytes(b)
	if err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	if cfg.LogLevel != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
			return fmt.Errorf("log level: %w", err)
		}
		log = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	}

	ret, err := openRetainedStore(cfg.Retained)
	if err != nil {
		return fmt.Errorf("open retained store: %w", err)
	}
	defer ret.Close()

	ctx := context.Background()
	sessions, err := session.Open(ctx, &session.Options{
		KeyPrefix: cfg.Session.KeyPrefix,
		Options:   &redis.Options{Addr: cfg.Session.Addr},
	})
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer sessions.Close()

	gw := gateway.New(log, ret, sessions)

	var closers []interface{ Close() error }

	if cfg.Listeners.TCP != "" {
		l, err := gateway.NewTCPListener("tcp1", cfg.Listeners.TCP)
		if err != nil {
			return fmt.Errorf("open tcp listener: %w", err)
		}
		closers = append(closers, l)
		go l.Serve(ctx, gw)
		log.Info("tcp listener started", "address", cfg.Listeners.TCP)
	}

	if cfg.Listeners.Websocket != "" {
		l := gateway.NewWebsocketListener("ws1", cfg.Listeners.Websocket)
		closers = append(closers, l)
		go func() {
			if err := l.Serve(ctx, gw); err != nil {
				log.Error("websocket listener stopped", "error", err)
			}
		}()
		log.Info("websocket listener started", "address", cfg.Listeners.Websocket)
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Info("caught signal, shutting down")

	for _, c := range closers {
		if err := c.Close(); err != nil {
			log.Warn("error closing listener", "error", err)
		}
	}

	log.Info("shutdown complete")
	return nil
}

// openRetainedStore opens whichever single backend cfg.Retained selects.
// config.FromBytes already validates that exactly one is set.
func openRetainedStore(cfg config.RetainedConfig) (retained.Store, error) {
	switch {
	case cfg.Badger != nil:
		return badgerstore.Open(cfg.Badger.ToOptions())
	case cfg.Bolt != nil:
		return boltstore.Open(cfg.Bolt.ToOptions())
	case cfg.Pebble != nil:
		return pebblestore.Open(cfg.Pebble.ToOptions())
	default:
		return nil, fmt.Errorf("no retained store backend configured")
	}
}
