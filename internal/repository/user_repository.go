package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/eventica/internal/account"
	"github.com/iliyamo/eventica/internal/model"
)

const userColumns = "id,username,email,password_hash,status,otp_hash,otp_expires_at,is_active,created_at,updated_at"

// UserRepo persists accounts in the 'users' table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner) (model.User, error) {
	var (
		u        model.User
		username sql.NullString
		hash     sql.NullString
		otp      sql.NullString
		otpExp   sql.NullTime
	)
	err := s.Scan(&u.ID, &username, &u.Email, &hash, &u.Status, &otp, &otpExp,
		&u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, account.ErrNotFound
		}
		return model.User{}, err
	}
	u.Username = username.String
	u.PasswordHash = hash.String
	u.OTPHash = otp.String
	if otpExp.Valid {
		t := otpExp.Time.UTC()
		u.OTPExpiresAt = &t
	}
	return u, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// SavePending inserts an UNVERIFIED account or resets an unregistered one.
// Registered rows are never touched.
func (r *UserRepo) SavePending(ctx context.Context, email, otpHash string, expiresAt, now time.Time) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users SET status=?, otp_hash=?, otp_expires_at=?, updated_at=?
		 WHERE email=? AND status<>?`,
		model.StatusUnverified, otpHash, expiresAt.UTC(), now.UTC(), email, model.StatusRegistered)
	if err != nil {
		return model.User{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		_, err = r.DB.ExecContext(ctx,
			`INSERT INTO users (email, status, otp_hash, otp_expires_at, is_active, created_at, updated_at)
			 VALUES (?,?,?,?,?,?,?)`,
			email, model.StatusUnverified, otpHash, expiresAt.UTC(), true, now.UTC(), now.UTC())
		if err != nil {
			if isDuplicate(err) {
				return model.User{}, account.ErrAlreadyRegistered
			}
			return model.User{}, err
		}
	}
	return r.GetByEmail(ctx, email)
}

// MarkVerified clears the pending code and sets EMAIL_VERIFIED.
func (r *UserRepo) MarkVerified(ctx context.Context, id uint64, now time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users SET status=?, otp_hash=NULL, otp_expires_at=NULL, updated_at=?
		 WHERE id=? AND status=?`,
		model.StatusEmailVerified, now.UTC(), id, model.StatusUnverified)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return account.ErrNotFound
	}
	return nil
}

// UsernameTaken reports whether a registered account other than exceptID
// uses username.
func (r *UserRepo) UsernameTaken(ctx context.Context, username string, exceptID uint64) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE username=? AND status=? AND id<>?",
		username, model.StatusRegistered, exceptID).Scan(&n)
	return n > 0, err
}

// Register sets credentials on an EMAIL_VERIFIED account.
func (r *UserRepo) Register(ctx context.Context, id uint64, username, passwordHash string, now time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users SET username=?, password_hash=?, status=?, updated_at=?
		 WHERE id=? AND status=?`,
		username, passwordHash, model.StatusRegistered, now.UTC(), id, model.StatusEmailVerified)
	if err != nil {
		if isDuplicate(err) {
			return account.ErrUsernameTaken
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return account.ErrNotVerified
	}
	return nil
}

// UpdateProfile writes username, email and password hash.
func (r *UserRepo) UpdateProfile(ctx context.Context, u model.User, now time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET username=?, email=?, password_hash=?, updated_at=? WHERE id=?",
		nullString(u.Username), strings.ToLower(strings.TrimSpace(u.Email)), nullString(u.PasswordHash), now.UTC(), u.ID)
	if err != nil && isDuplicate(err) {
		if strings.Contains(err.Error(), "email") {
			return account.ErrEmailTaken
		}
		return account.ErrUsernameTaken
	}
	return err
}

// Delete removes the account; tokens, events, reviews and RSVPs cascade.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return account.ErrNotFound
	}
	return nil
}

// PurgeExpired deletes UNVERIFIED accounts whose code expired and clears
// expired codes on the rest.
func (r *UserRepo) PurgeExpired(ctx context.Context, now time.Time) (cleared, deleted int64, err error) {
	now = now.UTC()
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM users WHERE status=? AND otp_expires_at IS NOT NULL AND otp_expires_at<=?",
		model.StatusUnverified, now)
	if err != nil {
		return 0, 0, err
	}
	deleted, _ = res.RowsAffected()
	res, err = r.DB.ExecContext(ctx,
		"UPDATE users SET otp_hash=NULL, otp_expires_at=NULL WHERE otp_expires_at IS NOT NULL AND otp_expires_at<=?",
		now)
	if err != nil {
		return 0, deleted, err
	}
	cleared, _ = res.RowsAffected()
	return cleared, deleted, nil
}
