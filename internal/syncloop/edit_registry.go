package syncloop

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const editKeyPrefix = "edit:application:"

// EditRegistry tracks which applications have an open edit session across
// dashboard sessions, so concurrent admins can keep their polling merges away
// from records someone else is editing. Keys expire so an abandoned browser
// tab cannot hold a record forever.
type EditRegistry struct {
	client *redis.Client
	ttl    time.Duration
}

// NewEditRegistry constructs a registry.
func NewEditRegistry(client *redis.Client, ttl time.Duration) *EditRegistry {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &EditRegistry{client: client, ttl: ttl}
}

// Acquire claims the edit session for an application. Returns false when
// another session already holds it.
func (r *EditRegistry) Acquire(ctx context.Context, applicationID, sessionID string) (bool, error) {
	return r.client.SetNX(ctx, editKeyPrefix+applicationID, sessionID, r.ttl).Result()
}

// Refresh extends a held session's TTL.
func (r *EditRegistry) Refresh(ctx context.Context, applicationID, sessionID string) error {
	key := editKeyPrefix + applicationID
	holder, err := r.client.Get(ctx, key).Result()
	if err != nil {
		return err
	}
	if holder != sessionID {
		return redis.Nil
	}
	return r.client.Expire(ctx, key, r.ttl).Err()
}

// Release closes the edit session. Only the holder may release; releasing an
// expired or foreign session is a no-op.
func (r *EditRegistry) Release(ctx context.Context, applicationID, sessionID string) error {
	key := editKeyPrefix + applicationID
	holder, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	if holder != sessionID {
		return nil
	}
	return r.client.Del(ctx, key).Err()
}

// HeldIDs lists application ids with an open edit session.
func (r *EditRegistry) HeldIDs(ctx context.Context) ([]string, error) {
	var (
		ids    []string
		cursor uint64
	)
	for {
		keys, next, err := r.client.Scan(ctx, cursor, editKeyPrefix+"*", 100).Result()
		if err != nil {
			return nil, err
		}
		for _, key := range keys {
			ids = append(ids, key[len(editKeyPrefix):])
		}
		if next == 0 {
			return ids, nil
		}
		cursor = next
	}
}
