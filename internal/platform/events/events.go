// Copyright (c) 2026 Tutora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package events publishes auth lifecycle notifications for other services
(course catalogue, notification mailer) to consume.

Events are fire-and-forget: the session manager logs a failed publish and
carries on, so a broker outage never blocks a login.
*/
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// # Event Types

const (
	TypePrincipalRegistered = "principal.registered"
	TypeSessionOpened       = "session.opened"
	TypeSessionRefreshed    = "session.refreshed"
	TypeSessionClosed       = "session.closed"
	TypePasswordChanged     = "password.changed"
)

// Event is the JSON body published for every lifecycle transition.
// It never carries tokens or password material.
type Event struct {
	Type          string    `json:"type"`
	PrincipalID   string    `json:"principalId"`
	Kind          string    `json:"kind"`
	CredentialKey string    `json:"credentialKey,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// Publisher delivers events to a broker.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// # NATS

// NATSPublisher publishes events as JSON to "<prefix>.<type>" subjects.
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
	logger *slog.Logger
}

// NewNATSPublisher connects to the NATS server at url.
func NewNATSPublisher(url, prefix string, logger *slog.Logger) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("tutora-auth"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats_disconnected", slog.Any("error", err))
			}
		}),
		nats.ReconnectHandler(func(conn *nats.Conn) {
			logger.Info("nats_reconnected", slog.String("url", conn.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("events: failed to connect to nats: %w", err)
	}

	logger.Info("nats publisher connected", slog.String("url", conn.ConnectedUrl()))
	return &NATSPublisher{conn: conn, prefix: prefix, logger: logger}, nil
}

// Publish marshals event and sends it on its subject.
func (publisher *NATSPublisher) Publish(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("events: failed to marshal %s: %w", event.Type, err)
	}

	if err := publisher.conn.Publish(Subject(publisher.prefix, event.Type), payload); err != nil {
		return fmt.Errorf("events: failed to publish %s: %w", event.Type, err)
	}
	return nil
}

// Close flushes buffered messages and closes the connection.
func (publisher *NATSPublisher) Close() error {
	if err := publisher.conn.Drain(); err != nil {
		publisher.conn.Close()
		return fmt.Errorf("events: failed to drain nats connection: %w", err)
	}
	return nil
}

// Subject builds the NATS subject for an event type.
func Subject(prefix, eventType string) string {
	if prefix == "" {
		return eventType
	}
	return prefix + "." + eventType
}

// # No-op

// Discard drops every event. It backs deployments without a broker.
type Discard struct{}

// Publish implements [Publisher].
func (Discard) Publish(context.Context, Event) error { return nil }

// Close implements [Publisher].
func (Discard) Close() error { return nil }
