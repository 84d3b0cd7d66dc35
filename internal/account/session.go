package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/eventica/internal/model"
	"github.com/iliyamo/eventica/internal/utils"
)

// Session is what a successful signup, login or refresh hands back.  The
// refresh token is returned raw; only its hash is stored.
type Session struct {
	User    model.User
	Access  utils.AccessToken
	Refresh utils.RefreshToken
}

func (s *Service) issue(ctx context.Context, u model.User) (Session, error) {
	access, err := utils.NewAccessToken(s.opts.JWTSecret, u.ID, u.Username, s.opts.AccessTTLMin)
	if err != nil {
		return Session{}, fmt.Errorf("issue access: %w", err)
	}
	refresh, err := utils.NewRefreshToken(s.opts.RefreshTTLDays)
	if err != nil {
		return Session{}, fmt.Errorf("issue refresh: %w", err)
	}
	if err := s.tokens.StoreRefresh(ctx, u.ID, utils.HashToken(refresh.Raw), refresh.Exp); err != nil {
		return Session{}, fmt.Errorf("save refresh: %w", err)
	}
	return Session{User: u, Access: access, Refresh: refresh}, nil
}

// Refresh rotates a refresh token: the presented one is revoked and a new
// pair is issued.
func (s *Service) Refresh(ctx context.Context, raw string) (Session, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Session{}, ErrInvalidRefresh
	}
	hash := utils.HashToken(raw)
	userID, err := s.tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return Session{}, ErrInvalidRefresh
	}
	if err := s.tokens.RevokeByHash(ctx, hash); err != nil {
		return Session{}, fmt.Errorf("revoke refresh: %w", err)
	}
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return Session{}, ErrInvalidRefresh
	}
	if err != nil {
		return Session{}, fmt.Errorf("load account: %w", err)
	}
	if !u.Registered() || !u.IsActive {
		return Session{}, ErrInvalidRefresh
	}
	return s.issue(ctx, u)
}

// Logout revokes one refresh token when raw is set, otherwise every token
// of userID.
func (s *Service) Logout(ctx context.Context, userID uint64, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw != "" {
		hash := utils.HashToken(raw)
		if _, err := s.tokens.ValidateRefresh(ctx, hash); err != nil {
			return ErrInvalidRefresh
		}
		return s.tokens.RevokeByHash(ctx, hash)
	}
	if userID == 0 {
		return ErrInvalidRefresh
	}
	return s.tokens.RevokeAllForUser(ctx, userID)
}
