package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const sessionPrefix = "session:"

// SessionStore keeps sign-in sessions in Redis, keyed by a random id and
// holding the user id
type SessionStore struct {
	client *Client
}

// NewSessionStore creates a new session store
func NewSessionStore(client *Client) *SessionStore {
	return &SessionStore{client: client}
}

// Create opens a session for the user and returns its id
func (s *SessionStore) Create(ctx context.Context, userID uuid.UUID, ttl time.Duration) (string, error) {
	sessionID := uuid.NewString()

	if err := s.client.rdb.Set(ctx, sessionPrefix+sessionID, userID.String(), ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}

	return sessionID, nil
}

// Get returns the user id bound to a session. ok is false when the session
// does not exist or has expired.
func (s *SessionStore) Get(ctx context.Context, sessionID string) (userID uuid.UUID, ok bool, err error) {
	val, err := s.client.rdb.Get(ctx, sessionPrefix+sessionID).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to get session: %w", err)
	}

	userID, err = uuid.Parse(val)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("invalid session value: %w", err)
	}
	return userID, true, nil
}

// Delete removes a session; deleting an unknown session is not an error
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.rdb.Del(ctx, sessionPrefix+sessionID).Err()
}
