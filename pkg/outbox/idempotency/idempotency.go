// Package idempotency records which outbox events a consumer has already
// handed downstream, so redelivered rows are acknowledged without a second
// publish.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// Store is the subset of the Redis client a Deduper needs.
type Store interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	IdempotencyKey(scope, id string) string
}

// Deduper claims event IDs for one consumer. Keys follow
// `rs:idempotency:evt:<consumer>:<event_id>` and hold the claim time.
type Deduper struct {
	store    Store
	consumer string
	ttl      time.Duration
	now      func() time.Time
}

func NewDeduper(store Store, consumer string, ttl time.Duration) (*Deduper, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	consumer = strings.TrimSpace(consumer)
	if consumer == "" {
		return nil, errors.New("consumer name is required")
	}
	if ttl <= 0 {
		return nil, errors.New("ttl must be positive")
	}
	return &Deduper{store: store, consumer: consumer, ttl: ttl, now: time.Now}, nil
}

// Claim marks eventID as handled. It returns false when an earlier claim is
// still live, meaning the event was already delivered.
func (d *Deduper) Claim(ctx context.Context, eventID uuid.UUID) (bool, error) {
	key, err := d.key(eventID)
	if err != nil {
		return false, err
	}
	claimed, err := d.store.SetNX(ctx, key, d.now().UTC().Format(time.RFC3339Nano), d.ttl)
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", eventID, err)
	}
	return claimed, nil
}

// ClaimedAt returns when eventID was claimed, or the zero time if it never was.
func (d *Deduper) ClaimedAt(ctx context.Context, eventID uuid.UUID) (time.Time, error) {
	key, err := d.key(eventID)
	if err != nil {
		return time.Time{}, err
	}
	raw, err := d.store.Get(ctx, key)
	if errors.Is(err, goredis.Nil) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339Nano, raw)
}

// Release drops the claim so a failed delivery can be retried.
func (d *Deduper) Release(ctx context.Context, eventID uuid.UUID) error {
	key, err := d.key(eventID)
	if err != nil {
		return err
	}
	return d.store.Del(ctx, key)
}

func (d *Deduper) key(eventID uuid.UUID) (string, error) {
	if eventID == uuid.Nil {
		return "", errors.New("event id is required")
	}
	return d.store.IdempotencyKey("evt:"+d.consumer, eventID.String()), nil
}
