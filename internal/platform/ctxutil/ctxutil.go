// Copyright (c) 2026 Tutora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxutil provides helpers for interacting with values stored in [context.Context].
//
// # Safety
//
// Keys use a private, unexported type so that no other package can read or
// overwrite them, even with an identical string value.
package ctxutil

import (
	"context"
	"log/slog"

	"github.com/taibuivan/tutora/internal/platform/sec"
)

type key string

const (
	keyRequestID key = "request_id"
	keyLogger    key = "logger"
	keyPrincipal key = "principal"
)

// # Request Tracing

// WithRequestID returns a new context with the provided request ID attached.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keyRequestID, id)
}

// GetRequestID retrieves the request ID from the context.
// Returns an empty string if not found.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(keyRequestID).(string)
	return id
}

// # Structured Logging

// WithLogger returns a new context with the provided logger attached.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, keyLogger, logger)
}

// GetLogger retrieves the logger from the context.
// If no logger is found, it returns the global default logger.
func GetLogger(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(keyLogger).(*slog.Logger)
	if !ok || logger == nil {
		return slog.Default()
	}
	return logger
}

// # Identity & Access

// WithAuthUser returns a new context carrying the verified access token claims.
func WithAuthUser(ctx context.Context, claims *sec.Claims) context.Context {
	return context.WithValue(ctx, keyPrincipal, claims)
}

// GetAuthUser retrieves the [*sec.Claims] from the [context.Context].
// It returns nil for anonymous requests.
func GetAuthUser(ctx context.Context) *sec.Claims {
	claims, ok := ctx.Value(keyPrincipal).(*sec.Claims)
	if !ok {
		return nil
	}
	return claims
}
