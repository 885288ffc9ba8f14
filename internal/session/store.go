package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrInvalidSession is returned when a token is unknown or expired.
var ErrInvalidSession = errors.New("invalid session token")

// sessionTTL matches the auth service's token lifetime.
const sessionTTL = 24 * time.Hour

// Verifier maps an opaque session token to a user identifier. The ledger
// trusts whatever issued the token; it performs no authentication itself.
type Verifier interface {
	Verify(ctx context.Context, token string) (uuid.UUID, error)
}

// Store keeps sessions in the sessions table. The auth service owns token
// issuance; this side only needs lookup plus Set/Remove for seeding and
// session teardown.
type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Verify resolves a session token to the owning user. Expired rows are
// treated the same as missing ones.
func (s *Store) Verify(ctx context.Context, token string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx,
		"SELECT user_id FROM sessions WHERE token = $1 AND expires_at > now()",
		token,
	).Scan(&userID)
	if err == pgx.ErrNoRows {
		return uuid.Nil, ErrInvalidSession
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("session lookup failed: %w", err)
	}
	return userID, nil
}

// Set creates a session for the user and returns the generated token.
func (s *Store) Set(ctx context.Context, userID uuid.UUID) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("token generation failed: %w", err)
	}
	token := hex.EncodeToString(buf)

	_, err := s.db.Exec(ctx,
		`INSERT INTO sessions (token, user_id, expires_at) VALUES ($1, $2, $3)
		 ON CONFLICT (token) DO UPDATE SET user_id = EXCLUDED.user_id, expires_at = EXCLUDED.expires_at`,
		token, userID, time.Now().Add(sessionTTL),
	)
	if err != nil {
		return "", fmt.Errorf("session insert failed: %w", err)
	}
	return token, nil
}

// Remove invalidates a session token. Removing an unknown token is a no-op.
func (s *Store) Remove(ctx context.Context, token string) error {
	if _, err := s.db.Exec(ctx, "DELETE FROM sessions WHERE token = $1", token); err != nil {
		return fmt.Errorf("session delete failed: %w", err)
	}
	return nil
}
