package repository

import "time"

// MemOption applies a configuration option to the MemStore.
type MemOption func(*MemStore)

// WithMaxSize bounds the number of records kept in memory.
// A non-positive size means unbounded.
func WithMaxSize(size int) MemOption {
	return func(s *MemStore) {
		s.maxSize = size
	}
}

// RedisOption applies a configuration option to the RedisStore.
type RedisOption func(*RedisStore)

// WithRedisMaxSize bounds the length of the Redis index lists.
func WithRedisMaxSize(size int64) RedisOption {
	return func(s *RedisStore) {
		if size > 0 {
			s.maxSize = size
		}
	}
}

// WithRecordTTL sets an expiry on individual record keys.
// Zero means no expiry.
func WithRecordTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}
