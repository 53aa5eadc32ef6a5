package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/valkey-io/valkey-go"
)

type KeyType interface {
	string | uuid.UUID
}

// CacheBuilder composes a single valkey key operation: JSON values, a hash prefix and a
// TTL, bounded by a per-call timeout.
type CacheBuilder struct {
	cache      valkey.Client
	key        string
	value      string
	ttl        time.Duration
	ctx        context.Context
	ctxTimeout time.Duration
	err        error
}

func NewCacheBuilder[K KeyType](cache valkey.Client, key K) *CacheBuilder {
	cb := &CacheBuilder{
		cache:      cache,
		ttl:        time.Hour,
		ctxTimeout: 5 * time.Second,
		ctx:        context.Background(),
	}

	switch k := any(key).(type) {
	case string:
		cb.key = k
	case uuid.UUID:
		cb.key = k.String()
	}
	return cb
}

func (cb *CacheBuilder) Key() string {
	return cb.key
}

func (cb *CacheBuilder) WithStruct(value any) *CacheBuilder {
	bytes, err := json.Marshal(value)
	if err != nil {
		cb.err = fmt.Errorf("failed to marshal cache value: %w", err)
		return cb
	}
	cb.value = string(bytes)
	return cb
}

// WithHash prefixes the key as "<hash>:<key>".
func (cb *CacheBuilder) WithHash(hash string) *CacheBuilder {
	if hash != "" {
		cb.key = hash + ":" + cb.key
	}
	return cb
}

func (cb *CacheBuilder) WithTTL(ttl time.Duration) *CacheBuilder {
	cb.ttl = ttl
	return cb
}

func (cb *CacheBuilder) WithContext(ctx context.Context) *CacheBuilder {
	cb.ctx = ctx
	return cb
}

func (cb *CacheBuilder) WithTimeout(timeout time.Duration) *CacheBuilder {
	cb.ctxTimeout = timeout
	return cb
}

func (cb *CacheBuilder) validate(needValue bool) error {
	switch {
	case cb.err != nil:
		return cb.err
	case cb.key == "":
		return errors.New("cache key is required")
	case needValue && cb.value == "":
		return errors.New("cache value is required")
	case cb.cache == nil:
		return errors.New("cache client is not configured")
	}
	return nil
}

func (cb *CacheBuilder) Set() error {
	if err := cb.validate(true); err != nil {
		return err
	}

	ctx, cancel := cb.createTimeoutContext()
	defer cancel()

	return cb.cache.Do(ctx, cb.cache.B().Set().Key(cb.key).Value(cb.value).Ex(cb.ttl).Build()).Error()
}

// Get decodes the stored JSON into result and reports whether the key existed.
func (cb *CacheBuilder) Get(result any) (bool, error) {
	if err := cb.validate(false); err != nil {
		return false, err
	}

	ctx, cancel := cb.createTimeoutContext()
	defer cancel()

	data, err := cb.cache.Do(ctx, cb.cache.B().Get().Key(cb.key).Build()).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return false, nil
		}
		return false, err
	}
	if data == "" {
		return false, nil
	}

	if err := json.Unmarshal([]byte(data), result); err != nil {
		return false, fmt.Errorf("failed to decode cache value %s: %w", cb.key, err)
	}
	return true, nil
}

func (cb *CacheBuilder) Delete() error {
	if err := cb.validate(false); err != nil {
		return err
	}

	ctx, cancel := cb.createTimeoutContext()
	defer cancel()

	return cb.cache.Do(ctx, cb.cache.B().Del().Key(cb.key).Build()).Error()
}

// Increment adds one to the integer stored at the key, starting from zero, and
// returns the new value. The key does not expire.
func (cb *CacheBuilder) Increment() (int64, error) {
	if err := cb.validate(false); err != nil {
		return 0, err
	}

	ctx, cancel := cb.createTimeoutContext()
	defer cancel()

	return cb.cache.Do(ctx, cb.cache.B().Incr().Key(cb.key).Build()).AsInt64()
}

// GetInt returns the integer stored at the key, zero when it is missing.
func (cb *CacheBuilder) GetInt() (int64, error) {
	if err := cb.validate(false); err != nil {
		return 0, err
	}

	ctx, cancel := cb.createTimeoutContext()
	defer cancel()

	value, err := cb.cache.Do(ctx, cb.cache.B().Get().Key(cb.key).Build()).AsInt64()
	if valkey.IsValkeyNil(err) {
		return 0, nil
	}
	return value, err
}

// createTimeoutContext keeps the caller's deadline when it is tighter than ctxTimeout.
func (cb *CacheBuilder) createTimeoutContext() (context.Context, context.CancelFunc) {
	if deadline, ok := cb.ctx.Deadline(); ok && time.Until(deadline) < cb.ctxTimeout {
		return context.WithCancel(cb.ctx)
	}
	return context.WithTimeout(cb.ctx, cb.ctxTimeout)
}
