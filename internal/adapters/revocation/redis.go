// Package revocation implementa auth.RevocationStore sobre Redis y en memoria.
// Las claves expiran solas: nunca hace falta recordar más allá del TTL del token.
package revocation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"pet-care-api/internal/ports/auth"

	"github.com/redis/go-redis/v9"
)

const (
	tokenPrefix   = "petcare:revoked:token:"
	subjectPrefix = "petcare:revoked:subject:"
)

// NewRedisClient abre el cliente y verifica conectividad con un ping corto.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctxPing).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

type RedisStore struct {
	client redis.UniversalClient
	now    func() time.Time
}

var _ auth.RevocationStore = (*RedisStore)(nil)

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

func (s *RedisStore) RevokeToken(ctx context.Context, tokenID string, until time.Time) error {
	ttl := until.Sub(s.now())
	if ttl <= 0 {
		// ya expiró: no hay nada que revocar
		return nil
	}
	return s.client.Set(ctx, tokenPrefix+tokenID, "1", ttl).Err()
}

func (s *RedisStore) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, tokenPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RevokeSubject guarda since en milisegundos. Si ya había una marca más nueva, se conserva.
func (s *RedisStore) RevokeSubject(ctx context.Context, userID string, since time.Time, ttl time.Duration) error {
	key := subjectPrefix + userID
	ms := since.UnixMilli()

	current, ok, err := s.SubjectRevokedSince(ctx, userID)
	if err != nil {
		return err
	}
	if ok && current.UnixMilli() > ms {
		ms = current.UnixMilli()
	}
	return s.client.Set(ctx, key, strconv.FormatInt(ms, 10), ttl).Err()
}

func (s *RedisStore) SubjectRevokedSince(ctx context.Context, userID string) (time.Time, bool, error) {
	raw, err := s.client.Get(ctx, subjectPrefix+userID).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("revocation: corrupt subject marker for %s: %w", userID, err)
	}
	return time.UnixMilli(ms), true, nil
}
