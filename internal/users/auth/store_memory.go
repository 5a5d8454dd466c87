// Copyright (c) 2026 Tutora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/taibuivan/tutora/pkg/uuid"
)

// MemoryStore is a process-local [CredentialStore]. It backs tests and the
// `STORE_DRIVER=memory` development mode; records do not survive a restart.
type MemoryStore struct {
	mu    sync.RWMutex
	byID  map[Kind]map[string]*Principal
	byKey map[Kind]map[string]string
	now   func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:  map[Kind]map[string]*Principal{KindStudent: {}, KindTutor: {}},
		byKey: map[Kind]map[string]string{KindStudent: {}, KindTutor: {}},
		now:   time.Now,
	}
}

// FindByCredentialKey implements [CredentialStore].
func (store *MemoryStore) FindByCredentialKey(_ context.Context, kind Kind, key string) (*Principal, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	id, found := store.byKey[kind][key]
	if !found {
		return nil, ErrPrincipalNotFound
	}
	return store.byID[kind][id].Clone(), nil
}

// FindByID implements [CredentialStore].
func (store *MemoryStore) FindByID(_ context.Context, kind Kind, id string) (*Principal, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	principal, found := store.byID[kind][id]
	if !found {
		return nil, ErrPrincipalNotFound
	}
	return principal.Clone(), nil
}

// Insert implements [CredentialStore].
func (store *MemoryStore) Insert(_ context.Context, kind Kind, principal *Principal) (string, error) {
	if !kind.Valid() {
		return "", fmt.Errorf("memory_store_insert_failed: unknown kind %q", kind)
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	if _, taken := store.byKey[kind][principal.CredentialKey]; taken {
		return "", ErrDuplicateCredentialKey
	}

	record := principal.Clone()
	record.Kind = kind
	if record.ID == "" {
		record.ID = uuid.New()
	}
	now := store.now()
	record.CreatedAt = now
	record.UpdatedAt = now

	store.byID[kind][record.ID] = record
	store.byKey[kind][record.CredentialKey] = record.ID

	principal.ID = record.ID
	principal.CreatedAt = now
	principal.UpdatedAt = now
	return record.ID, nil
}

// UpdateFields implements [CredentialStore].
func (store *MemoryStore) UpdateFields(_ context.Context, kind Kind, id string, update Update) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	principal, found := store.byID[kind][id]
	if !found {
		return ErrPrincipalNotFound
	}
	update.Apply(principal, store.now())
	return nil
}

// Len returns the number of principals of kind.
func (store *MemoryStore) Len(kind Kind) int {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return len(store.byID[kind])
}
