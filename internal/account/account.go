// Package account implements email/OTP signup.  An account is created
// UNVERIFIED on the first code request, becomes EMAIL_VERIFIED once a
// matching unexpired code is presented, and REGISTERED after a username and
// password are set.  Only registered accounts receive sessions.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/eventica/internal/model"
	"github.com/iliyamo/eventica/internal/utils"
)

const (
	MinUsernameLen = 3
	MaxUsernameLen = 30
	MinPasswordLen = 6
)

var (
	ErrNotFound           = errors.New("account not found")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidUsername    = fmt.Errorf("username must be %d to %d characters", MinUsernameLen, MaxUsernameLen)
	ErrWeakPassword       = fmt.Errorf("password must be at least %d characters", MinPasswordLen)
	ErrPasswordTooLong    = fmt.Errorf("password must be at most %d bytes", utils.MaxPasswordBytes)
	ErrAlreadyRegistered  = errors.New("email already registered, please sign in")
	ErrInvalidOTP         = errors.New("invalid or expired OTP")
	ErrNotVerified        = errors.New("email not verified")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmailTaken         = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactive           = errors.New("account disabled")
	ErrInvalidRefresh     = errors.New("invalid refresh token")
)

// Store persists accounts.  Lookups return ErrNotFound for unknown rows.
type Store interface {
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	// SavePending creates an UNVERIFIED account or resets an existing
	// unregistered one to UNVERIFIED with the given code hash and expiry.
	SavePending(ctx context.Context, email, otpHash string, expiresAt, now time.Time) (model.User, error)
	// MarkVerified clears the pending code and moves the account to EMAIL_VERIFIED.
	MarkVerified(ctx context.Context, id uint64, now time.Time) error
	UsernameTaken(ctx context.Context, username string, exceptID uint64) (bool, error)
	// Register sets credentials and moves the account to REGISTERED.  A
	// concurrent claim of the same username surfaces as ErrUsernameTaken.
	Register(ctx context.Context, id uint64, username, passwordHash string, now time.Time) error
	UpdateProfile(ctx context.Context, u model.User, now time.Time) error
	Delete(ctx context.Context, id uint64) error
	// PurgeExpired clears codes past their expiry and deletes accounts that
	// never verified before their code expired.
	PurgeExpired(ctx context.Context, now time.Time) (cleared, deleted int64, err error)
}

// TokenStore persists hashed refresh tokens.
type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
	// DeleteStale removes tokens expired or revoked before now.
	DeleteStale(ctx context.Context, now time.Time) (int64, error)
}

// OTPSender delivers a one-time code out of band.
type OTPSender interface {
	SendOTP(ctx context.Context, email, code string, ttl time.Duration) error
}

type Options struct {
	OTPTTL         time.Duration
	JWTSecret      string
	AccessTTLMin   int
	RefreshTTLDays int
	BcryptCost     int
}

type Service struct {
	users    Store
	tokens   TokenStore
	sender   OTPSender
	opts     Options
	validate *validator.Validate
	now      func() time.Time
}

func NewService(users Store, tokens TokenStore, sender OTPSender, opts Options) *Service {
	if opts.OTPTTL <= 0 {
		opts.OTPTTL = 10 * time.Minute
	}
	return &Service{
		users:    users,
		tokens:   tokens,
		sender:   sender,
		opts:     opts,
		validate: validator.New(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// NormalizeEmail lower-cases and trims an address.
func NormalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

func (s *Service) checkEmail(email string) error {
	if s.validate.Var(email, "required,email") != nil {
		return ErrInvalidEmail
	}
	return nil
}

// Start issues a fresh code for email.  Registered addresses are rejected.
func (s *Service) Start(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if err := s.checkEmail(email); err != nil {
		return err
	}
	u, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil && u.Registered():
		return ErrAlreadyRegistered
	case err != nil && !errors.Is(err, ErrNotFound):
		return fmt.Errorf("lookup account: %w", err)
	}

	code, err := utils.GenerateOTP()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}
	now := s.now()
	if _, err := s.users.SavePending(ctx, email, utils.HashToken(code), now.Add(s.opts.OTPTTL), now); err != nil {
		return fmt.Errorf("save pending account: %w", err)
	}
	if s.sender != nil {
		if err := s.sender.SendOTP(ctx, email, code, s.opts.OTPTTL); err != nil {
			return fmt.Errorf("send otp: %w", err)
		}
	}
	return nil
}

// Verify checks code against the pending code for email.  Any mismatch,
// including an expired or missing code, is ErrInvalidOTP and changes nothing.
func (s *Service) Verify(ctx context.Context, email, code string) error {
	email = NormalizeEmail(email)
	code = strings.TrimSpace(code)
	if err := s.checkEmail(email); err != nil {
		return err
	}
	if !utils.ValidOTPFormat(code) {
		return ErrInvalidOTP
	}
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return ErrInvalidOTP
	}
	if err != nil {
		return fmt.Errorf("lookup account: %w", err)
	}
	now := s.now()
	if u.OTPExpiresAt == nil || !now.Before(*u.OTPExpiresAt) {
		return ErrInvalidOTP
	}
	if !utils.MatchOTP(u.OTPHash, code) {
		return ErrInvalidOTP
	}
	if err := s.users.MarkVerified(ctx, u.ID, now); err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}
	return nil
}

func checkUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n < MinUsernameLen || n > MaxUsernameLen {
		return ErrInvalidUsername
	}
	return nil
}

func checkPassword(password string) error {
	if len(password) < MinPasswordLen {
		return ErrWeakPassword
	}
	if len(password) > utils.MaxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}

// Complete finishes signup for an EMAIL_VERIFIED account and returns a
// session for it.
func (s *Service) Complete(ctx context.Context, email, username, password string) (Session, error) {
	email = NormalizeEmail(email)
	username = strings.TrimSpace(username)
	if err := s.checkEmail(email); err != nil {
		return Session{}, err
	}
	if err := checkUsername(username); err != nil {
		return Session{}, err
	}
	if err := checkPassword(password); err != nil {
		return Session{}, err
	}

	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return Session{}, ErrNotVerified
	}
	if err != nil {
		return Session{}, fmt.Errorf("lookup account: %w", err)
	}
	if u.Registered() {
		return Session{}, ErrAlreadyRegistered
	}
	if u.Status != model.StatusEmailVerified {
		return Session{}, ErrNotVerified
	}
	taken, err := s.users.UsernameTaken(ctx, username, u.ID)
	if err != nil {
		return Session{}, fmt.Errorf("check username: %w", err)
	}
	if taken {
		return Session{}, ErrUsernameTaken
	}

	hash, err := utils.HashPassword(password, s.opts.BcryptCost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}
	now := s.now()
	if err := s.users.Register(ctx, u.ID, username, hash, now); err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			return Session{}, err
		}
		return Session{}, fmt.Errorf("register account: %w", err)
	}
	u.Username = username
	u.PasswordHash = hash
	u.Status = model.StatusRegistered
	u.UpdatedAt = now
	return s.issue(ctx, u)
}

// Login authenticates a registered account.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("lookup account: %w", err)
	}
	if !u.Registered() {
		return Session{}, ErrNotVerified
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return Session{}, ErrInvalidCredentials
	}
	if !u.IsActive {
		return Session{}, ErrInactive
	}
	return s.issue(ctx, u)
}

// PurgeExpired removes stale codes and abandoned signups.
func (s *Service) PurgeExpired(ctx context.Context) (cleared, deleted int64, err error) {
	return s.users.PurgeExpired(ctx, s.now())
}

// PurgeSessions drops refresh tokens that can no longer be used.
func (s *Service) PurgeSessions(ctx context.Context) (int64, error) {
	return s.tokens.DeleteStale(ctx, s.now())
}
