package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/eventica/internal/model"
	"github.com/iliyamo/eventica/internal/utils"
)

// ProfileUpdate carries the fields a user may change.  Empty fields are
// left untouched.
type ProfileUpdate struct {
	Username string
	Email    string
	Password string
}

func (s *Service) registered(ctx context.Context, id uint64) (model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.User{}, err
		}
		return model.User{}, fmt.Errorf("load account: %w", err)
	}
	if !u.Registered() {
		return model.User{}, ErrNotFound
	}
	return u, nil
}

// Profile returns the registered account with the given id.
func (s *Service) Profile(ctx context.Context, id uint64) (model.User, error) {
	return s.registered(ctx, id)
}

// UpdateProfile applies p to the account.  Username and email stay unique.
func (s *Service) UpdateProfile(ctx context.Context, id uint64, p ProfileUpdate) (model.User, error) {
	u, err := s.registered(ctx, id)
	if err != nil {
		return model.User{}, err
	}

	if name := strings.TrimSpace(p.Username); name != "" && name != u.Username {
		if err := checkUsername(name); err != nil {
			return model.User{}, err
		}
		taken, err := s.users.UsernameTaken(ctx, name, u.ID)
		if err != nil {
			return model.User{}, fmt.Errorf("check username: %w", err)
		}
		if taken {
			return model.User{}, ErrUsernameTaken
		}
		u.Username = name
	}
	if email := NormalizeEmail(p.Email); email != "" && email != u.Email {
		if err := s.checkEmail(email); err != nil {
			return model.User{}, err
		}
		other, err := s.users.GetByEmail(ctx, email)
		switch {
		case err == nil && other.ID != u.ID:
			return model.User{}, ErrEmailTaken
		case err != nil && !errors.Is(err, ErrNotFound):
			return model.User{}, fmt.Errorf("lookup account: %w", err)
		}
		u.Email = email
	}
	if p.Password != "" {
		if err := checkPassword(p.Password); err != nil {
			return model.User{}, err
		}
		hash, err := utils.HashPassword(p.Password, s.opts.BcryptCost)
		if err != nil {
			return model.User{}, fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = hash
	}

	now := s.now()
	if err := s.users.UpdateProfile(ctx, u, now); err != nil {
		if errors.Is(err, ErrUsernameTaken) || errors.Is(err, ErrEmailTaken) {
			return model.User{}, err
		}
		return model.User{}, fmt.Errorf("update profile: %w", err)
	}
	u.UpdatedAt = now
	return u, nil
}

// DeleteProfile removes the account and revokes its sessions.
func (s *Service) DeleteProfile(ctx context.Context, id uint64) error {
	if _, err := s.registered(ctx, id); err != nil {
		return err
	}
	if err := s.tokens.RevokeAllForUser(ctx, id); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}

// Active reports whether id still names a registered, enabled account.
// Tokens outlive their account; callers use this to reject them.
func (s *Service) Active(ctx context.Context, id uint64) (bool, error) {
	u, err := s.registered(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return u.IsActive, nil
}
