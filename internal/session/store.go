// Package session persists per-tab authentication state in Redis. State is
// TTL-bounded to the session lifetime: it survives a page reload, never a
// fresh session. Only the auth flow writes here.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"lead-intake/internal/common/database"
	commonerrors "lead-intake/internal/common/errors"
	"lead-intake/internal/common/logger"
	"lead-intake/internal/models"
)

// Store reads and writes Session records keyed by session id.
type Store struct {
	redis  *database.RedisClient
	ttl    time.Duration
	logger logger.Logger
}

func NewStore(rdb *database.RedisClient, ttl time.Duration, log logger.Logger) *Store {
	return &Store{
		redis:  rdb,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "session-store"}),
	}
}

func (s *Store) key(sessionID string) string {
	return fmt.Sprintf("intake:sess:%s:auth", sessionID)
}

// Get returns the session state, or an empty Session when none exists yet.
func (s *Store) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	raw, err := s.redis.Get(ctx, s.key(sessionID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return &models.Session{}, nil
		}
		return nil, commonerrors.NewStoreFailureError(err)
	}

	var sess models.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, commonerrors.NewStoreFailureError(err)
	}
	return &sess, nil
}

// Save replaces the session state wholesale and refreshes the TTL.
func (s *Store) Save(ctx context.Context, sessionID string, sess *models.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return commonerrors.NewStoreFailureError(err)
	}
	if err := s.redis.Set(ctx, s.key(sessionID), raw, s.ttl); err != nil {
		return commonerrors.NewStoreFailureError(err)
	}
	return nil
}

// Clear removes all authentication state for the session.
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	if err := s.redis.Del(ctx, s.key(sessionID)); err != nil {
		return commonerrors.NewStoreFailureError(err)
	}
	return nil
}

// AccessToken returns the session's access token, or a typed error when
// the user is not signed in or the token has expired. Save paths check
// this before any backend call.
func (s *Store) AccessToken(ctx context.Context, sessionID string) (string, error) {
	sess, err := s.Get(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if !sess.Authenticated() {
		return "", commonerrors.NewAuthTokenMissingError()
	}
	if sess.Tokens.Expired() {
		return "", commonerrors.NewAuthTokenExpiredError()
	}
	return sess.Tokens.AccessToken, nil
}
