package liveness

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrBackendUnavailable wraps any Redis failure. Callers on the
// validation path must treat it as "not live" — availability of this
// store is a security boundary, not a performance optimization.
var ErrBackendUnavailable = errors.New("liveness backend unavailable")

// Store is the Redis-backed revocation cache. Every minted access and
// refresh token id is recorded with the TTL of the token it backs, so
// entries self-evict at the same instant the token would expire on its
// own. Absence of an entry means the token must be treated as invalid
// even when its signature and expiry still check out.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore creates a Store with the given key namespace.
func NewStore(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "alt"
	}
	return &Store{redis: client, prefix: prefix}
}

func (s *Store) key(userID, tokenID string) string {
	return s.prefix + ":" + userID + ":" + tokenID
}

func (s *Store) indexKey(userID string) string {
	return s.prefix + ":idx:" + userID
}

// Record registers a token id as live for the duration of ttl. Called
// once per minted token; a failure here must abort the login so no
// token is ever issued that the cache cannot later revoke.
func (s *Store) Record(ctx context.Context, userID, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.New("liveness ttl must be positive")
	}

	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(userID, tokenID), 1, ttl)
		pipe.SAdd(ctx, s.indexKey(userID), tokenID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

// IsLive reports whether the token id is still live. Consulted on every
// authenticated request after signature and expiry checks pass.
func (s *Store) IsLive(ctx context.Context, userID, tokenID string) (bool, error) {
	n, err := s.redis.Exists(ctx, s.key(userID, tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return n == 1, nil
}

// Revoke removes a single token id. Idempotent; revoking an absent or
// already-expired entry is not an error.
func (s *Store) Revoke(ctx context.Context, userID, tokenID string) error {
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key(userID, tokenID))
		pipe.SRem(ctx, s.indexKey(userID), tokenID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

// Consume atomically retires a token id and reports whether it was
// still live. A single DEL makes this the retire step of refresh
// rotation: exactly one concurrent exchange of the same refresh token
// can observe true.
func (s *Store) Consume(ctx context.Context, userID, tokenID string) (bool, error) {
	n, err := s.redis.Del(ctx, s.key(userID, tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if n > 0 {
		_ = s.redis.SRem(ctx, s.indexKey(userID), tokenID).Err()
		return true, nil
	}
	return false, nil
}

// RevokeAll removes every live token id for the user. Idempotent; used
// on logout-all-devices, 2FA enablement, recovery, and account deletion.
func (s *Store) RevokeAll(ctx context.Context, userID string) error {
	indexKey := s.indexKey(userID)

	tokenIDs, err := s.redis.SMembers(ctx, indexKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	keys := make([]string, 0, len(tokenIDs)+1)
	for _, id := range tokenIDs {
		keys = append(keys, s.key(userID, id))
	}
	keys = append(keys, indexKey)

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

// LiveCount returns the number of tracked token ids for a user. The
// index may briefly include naturally expired ids; it is advisory only.
func (s *Store) LiveCount(ctx context.Context, userID string) (int, error) {
	n, err := s.redis.SCard(ctx, s.indexKey(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return int(n), nil
}

// Ping returns a point-in-time availability check and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return time.Since(start), nil
}
