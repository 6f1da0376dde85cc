package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gallerist/curio/pkg/metrics"
)

const (
	recordKeyPrefix = "curio:critique:"
	indexKey        = "curio:critiques"
	personaKeyFmt   = "curio:critiques:%s"
)

// RedisStore is a Redis-backed Store implementation.
//
// Each record is stored as JSON under its own key; insertion order is
// tracked in Redis lists (one global, one per persona) trimmed to the
// configured bound.
type RedisStore struct {
	client  redis.Cmdable
	maxSize int64
	ttl     time.Duration
}

// NewRedisStore creates a history store backed by the given Redis client.
func NewRedisStore(client redis.Cmdable, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client:  client,
		maxSize: 50_000,
		ttl:     0,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) Put(ctx context.Context, rec Record) error {
	start := time.Now()

	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: marshal record %s: %w", ErrStore, rec.ID, err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, recordKeyPrefix+rec.ID, raw, s.ttl)
	pipe.LPush(ctx, indexKey, rec.ID)
	pipe.LTrim(ctx, indexKey, 0, s.maxSize-1)
	if rec.Persona != "" {
		personaKey := fmt.Sprintf(personaKeyFmt, rec.Persona)
		pipe.LPush(ctx, personaKey, rec.ID)
		pipe.LTrim(ctx, personaKey, 0, s.maxSize-1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		metrics.RecordHistoryError()
		return fmt.Errorf("%w: put %s: %w", ErrStore, rec.ID, err)
	}

	metrics.RecordHistoryOpLatency(float64(time.Since(start).Milliseconds()))
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (Record, error) {
	raw, err := s.client.Get(ctx, recordKeyPrefix+id).Result()
	if errors.Is(err, redis.Nil) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		metrics.RecordHistoryError()
		return Record{}, fmt.Errorf("%w: get %s: %w", ErrStore, id, err)
	}

	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return Record{}, fmt.Errorf("%w: unmarshal %s: %w", ErrStore, id, err)
	}
	return rec, nil
}

func (s *RedisStore) List(ctx context.Context, persona string, limit int) ([]Record, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	key := indexKey
	if persona != "" {
		key = fmt.Sprintf(personaKeyFmt, persona)
	}
	ids, err := s.client.LRange(ctx, key, 0, int64(limit)-1).Result()
	if err != nil {
		metrics.RecordHistoryError()
		return nil, fmt.Errorf("%w: list: %w", ErrStore, err)
	}

	out := make([]Record, 0, len(ids))
	for _, id := range ids {
		rec, err := s.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			// Record expired or trimmed out from under the index.
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *RedisStore) Count(ctx context.Context) int {
	n, err := s.client.LLen(ctx, indexKey).Result()
	if err != nil {
		metrics.RecordHistoryError()
		return 0
	}
	return int(n)
}
