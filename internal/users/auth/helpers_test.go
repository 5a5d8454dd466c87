// Copyright (c) 2026 Tutora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taibuivan/tutora/internal/platform/apperr"
	"github.com/taibuivan/tutora/internal/platform/events"
	"github.com/taibuivan/tutora/internal/platform/metrics"
	"github.com/taibuivan/tutora/internal/platform/sec"
	"github.com/taibuivan/tutora/internal/users/auth"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recordingPublisher keeps every published event in memory.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.events))
	for _, event := range p.events {
		types = append(types, event.Type)
	}
	return types
}

type fixture struct {
	service   *auth.Service
	store     *auth.MemoryStore
	tokens    *sec.TokenService
	hasher    *sec.BcryptHasher
	clock     *clock
	redis     *miniredis.Miniredis
	publisher *recordingPublisher
	metrics   *metrics.Auth
}

func newFixture(t *testing.T, options auth.Options) *fixture {
	t.Helper()

	c := &clock{now: time.Now()}
	tokens, err := sec.NewTokenService(testSecret, "tutora.test", time.Hour, 7*24*time.Hour, sec.WithClock(c.Now))
	require.NoError(t, err)

	hasher, err := sec.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := auth.NewMemoryStore()
	publisher := &recordingPublisher{}
	recorder := metrics.NewAuth(prometheus.NewRegistry())

	return &fixture{
		service:   auth.NewService(store, auth.NewRedisDraftStore(client), hasher, tokens, publisher, recorder, options),
		store:     store,
		tokens:    tokens,
		hasher:    hasher,
		clock:     c,
		redis:     server,
		publisher: publisher,
		metrics:   recorder,
	}
}

func studentInput(username, password string) auth.RegisterInput {
	return auth.RegisterInput{
		Kind:     auth.KindStudent,
		Username: username,
		Password: password,
		Profile:  auth.Profile{Student: &auth.StudentProfile{Name: "Alice Nguyen"}},
	}
}

func tutorInput(username, password string) auth.RegisterInput {
	return auth.RegisterInput{
		Kind:     auth.KindTutor,
		Username: username,
		Password: password,
		Profile: auth.Profile{Tutor: &auth.TutorProfile{
			Name:     "Bob Tran",
			Email:    "bob@example.com",
			Subjects: []auth.Subject{{Name: "Mathematics", Level: "A-level"}},
		}},
	}
}

// requireCode asserts that err is an AppError carrying code.
func requireCode(t *testing.T, err error, code string) *apperr.AppError {
	t.Helper()
	require.Error(t, err)
	var appError *apperr.AppError
	require.True(t, errors.As(err, &appError), "expected AppError, got %T: %v", err, err)
	require.Equal(t, code, appError.Code, appError.Message)
	return appError
}

func fieldsOf(appError *apperr.AppError) []string {
	fields := make([]string, 0, len(appError.Details))
	for _, detail := range appError.Details {
		fields = append(fields, detail.Field)
	}
	return fields
}
