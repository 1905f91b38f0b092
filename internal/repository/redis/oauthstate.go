package redis

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
)

const (
	oauthStatePrefix = "oauthstate:"
	oauthStateTTL    = 10 * time.Minute
)

// OAuthStateStore issues and consumes single-use state nonces for the
// Moneybird authorization-code flow.
type OAuthStateStore struct {
	client *Client
}

// NewOAuthStateStore creates a new OAuth state store
func NewOAuthStateStore(client *Client) *OAuthStateStore {
	return &OAuthStateStore{client: client}
}

// Issue creates a state nonce bound to the initiating user
func (s *OAuthStateStore) Issue(ctx context.Context, userID uuid.UUID) (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	state := hex.EncodeToString(buf)

	key := oauthStatePrefix + state
	if err := s.client.rdb.Set(ctx, key, userID.String(), oauthStateTTL).Err(); err != nil {
		return "", fmt.Errorf("failed to store state: %w", err)
	}

	return state, nil
}

// Consume validates and deletes a state nonce, returning the bound
// user. A nonce can only be consumed once.
func (s *OAuthStateStore) Consume(ctx context.Context, state string) (uuid.UUID, error) {
	key := oauthStatePrefix + state

	val, err := s.client.rdb.GetDel(ctx, key).Result()
	if err != nil {
		if err == redislib.Nil {
			return uuid.Nil, fmt.Errorf("unknown or expired state")
		}
		return uuid.Nil, fmt.Errorf("failed to consume state: %w", err)
	}

	userID, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid state payload: %w", err)
	}

	return userID, nil
}
