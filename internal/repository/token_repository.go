package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/eventica/internal/account"
)

// TokenRepo stores refresh tokens by SHA-256 hash.  Rows are revoked rather
// than deleted so a replayed token is recognised; DeleteStale removes them
// once they can no longer be used.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

var _ account.TokenStore = (*TokenRepo)(nil)

// StoreRefresh records a freshly issued token.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at, created_at) VALUES (?,?,?,?)",
		userID, tokenHash, exp.UTC(), time.Now().UTC())
	return err
}

// ValidateRefresh returns the owner of a live token.  Unknown, revoked and
// expired tokens are all account.ErrInvalidRefresh.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	var userID uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id FROM refresh_tokens WHERE token_hash=? AND revoked_at IS NULL AND expires_at > ? LIMIT 1",
		tokenHash, time.Now().UTC()).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, account.ErrInvalidRefresh
	}
	return userID, err
}

// RevokeByHash revokes one session.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=? WHERE token_hash=? AND revoked_at IS NULL",
		time.Now().UTC(), tokenHash)
	return err
}

// RevokeAllForUser signs a user out everywhere.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=? WHERE user_id=? AND revoked_at IS NULL",
		time.Now().UTC(), userID)
	return err
}

// DeleteStale removes tokens that expired or were revoked before now.
func (r *TokenRepo) DeleteStale(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE expires_at <= ? OR revoked_at <= ?",
		now.UTC(), now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
