package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisSessionPrefix = "outreach:session:"

// RedisSessionStore keeps sessions in Redis so several server processes share logins.
// Expiry is delegated to Redis key TTLs.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionStore wraps client. A non-positive ttl uses DefaultSessionTTL.
func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &RedisSessionStore{client: client, ttl: ttl}
}

// Create stores a new session under a random token.
// POST: the key expires after ttl
func (s *RedisSessionStore) Create(ctx context.Context, profileID, email string) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	payload, err := json.Marshal(Session{ProfileID: profileID, Email: email, CreatedAt: time.Now().UTC()})
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, redisSessionPrefix+token, payload, s.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// Get loads a session. Redis errors are logged and treated as a missing session.
func (s *RedisSessionStore) Get(ctx context.Context, token string) (Session, bool) {
	payload, err := s.client.Get(ctx, redisSessionPrefix+token).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Error("session_lookup_failed", "error", err)
		}
		return Session{}, false
	}
	var session Session
	if err := json.Unmarshal(payload, &session); err != nil {
		slog.Error("session_decode_failed", "error", err)
		return Session{}, false
	}
	return session, true
}

// Delete removes a session.
func (s *RedisSessionStore) Delete(ctx context.Context, token string) {
	if err := s.client.Del(ctx, redisSessionPrefix+token).Err(); err != nil {
		slog.Error("session_delete_failed", "error", err)
	}
}
