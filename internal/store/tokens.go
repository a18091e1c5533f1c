package store

import (
	"context"

	"github.com/example/court-scheduler/internal/crypto"
	"github.com/example/court-scheduler/internal/db"
)

// DefaultTokenScope is the credential scope for the single court API account
// the scheduler books with.
const DefaultTokenScope = "court_api"

// TokenStore persists the current refresh token, sealed at rest. It satisfies
// the pipeline's TokenStore contract.
type TokenStore struct {
	db    *db.DB
	aead  *crypto.AEAD
	scope string
}

func NewTokenStore(d *db.DB, aead *crypto.AEAD) *TokenStore {
	return &TokenStore{db: d, aead: aead, scope: DefaultTokenScope}
}

// GetToken returns the current refresh token, or "" when none is stored yet.
func (s *TokenStore) GetToken(ctx context.Context) (string, error) {
	var sealed string
	err := s.db.QueryRow(ctx, `SELECT sealed_token FROM app_tokens WHERE scope=$1`, s.scope).Scan(&sealed)
	if err != nil {
		if db.IsNotFound(err) {
			return "", nil
		}
		return "", err
	}
	return s.aead.DecryptString(sealed)
}

// SetToken replaces the stored token. Last writer wins: callers needing
// strict ordering must serialize runs per credential scope.
func (s *TokenStore) SetToken(ctx context.Context, token string) error {
	sealed, err := s.aead.EncryptToString(token)
	if err != nil {
		return err
	}
	return s.db.Exec(ctx, `
INSERT INTO app_tokens(scope, sealed_token, updated_at) VALUES ($1,$2,now())
ON CONFLICT (scope) DO UPDATE SET sealed_token=EXCLUDED.sealed_token, updated_at=now()`,
		s.scope, sealed)
}
