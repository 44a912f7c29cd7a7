package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Bucket selects one of the two key-value namespaces.
type Bucket string

const (
	// Durable survives restarts and device switches (preferences, session).
	Durable Bucket = "durable"
	// Temp holds caches that are dropped whenever the device changes.
	Temp Bucket = "temp"
)

// Buckets lists every namespace a Store must provide.
var Buckets = []Bucket{Durable, Temp}

// Store abstracts the client's persisted key-value state.
type Store interface {
	Get(ctx context.Context, bucket Bucket, key string) (string, error)
	Set(ctx context.Context, bucket Bucket, key, value string) error
	Delete(ctx context.Context, bucket Bucket, keys ...string) error
	Keys(ctx context.Context, bucket Bucket) ([]string, error)
	Clear(ctx context.Context, bucket Bucket) error
	Close() error
}

// GetOr returns the stored value or def when the key is absent.
func GetOr(ctx context.Context, s Store, bucket Bucket, key, def string) (string, error) {
	v, err := s.Get(ctx, bucket, key)
	if errors.Is(err, ErrNotFound) {
		return def, nil
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

// GetJSON decodes a JSON value stored under key into dst.
func GetJSON(ctx context.Context, s Store, bucket Bucket, key string, dst any) error {
	raw, err := s.Get(ctx, bucket, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("decode %s/%s: %w", bucket, key, err)
	}
	return nil
}

// SetJSON encodes v as JSON and stores it under key.
func SetJSON(ctx context.Context, s Store, bucket Bucket, key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Set(ctx, bucket, key, string(payload))
}
