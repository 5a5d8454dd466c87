// Copyright (c) 2026 Tutora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/tutora/internal/platform/constants"
)

// RedisDraftStore implements [DraftStore] with one JSON value per draft.
// Expiry is left to Redis, so abandoned drafts disappear on their own.
type RedisDraftStore struct {
	client *redis.Client
}

// NewRedisDraftStore creates a Redis-backed DraftStore.
func NewRedisDraftStore(client *redis.Client) *RedisDraftStore {
	return &RedisDraftStore{client: client}
}

/*
Save writes the draft and resets its TTL.

Parameters:
  - ctx: context.Context
  - tokenHash: string (digest of the draft token)
  - draft: *Draft
  - ttl: time.Duration

Returns:
  - error: Encoding or storage failures
*/
func (store *RedisDraftStore) Save(ctx context.Context, tokenHash string, draft *Draft, ttl time.Duration) error {
	payload, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("redis_draft_encode_failed: %w", err)
	}

	if err := store.client.Set(ctx, draftKey(tokenHash), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis_draft_set_failed: %w", err)
	}
	return nil
}

/*
Get loads a draft.

Returns:
  - *Draft: The stored draft
  - error: ErrDraftNotFound if absent or expired, or connectivity errors
*/
func (store *RedisDraftStore) Get(ctx context.Context, tokenHash string) (*Draft, error) {
	payload, err := store.client.Get(ctx, draftKey(tokenHash)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrDraftNotFound
		}
		return nil, fmt.Errorf("redis_draft_get_failed: %w", err)
	}

	var draft Draft
	if err := json.Unmarshal(payload, &draft); err != nil {
		return nil, fmt.Errorf("redis_draft_decode_failed: %w", err)
	}
	return &draft, nil
}

// Delete removes a draft. Deleting a missing draft is not an error.
func (store *RedisDraftStore) Delete(ctx context.Context, tokenHash string) error {
	if err := store.client.Del(ctx, draftKey(tokenHash)).Err(); err != nil {
		return fmt.Errorf("redis_draft_delete_failed: %w", err)
	}
	return nil
}

func draftKey(tokenHash string) string {
	return constants.RedisPrefixRegistrationDraft + tokenHash
}
