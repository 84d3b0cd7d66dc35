package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/eventica/internal/account"
	"github.com/iliyamo/eventica/internal/logger"
	"github.com/iliyamo/eventica/internal/middleware"
)

// AuthHandler exposes the email/OTP signup flow and session endpoints.
type AuthHandler struct {
	Accounts *account.Service
	Log      *logger.Logger
}

func NewAuthHandler(acc *account.Service, log *logger.Logger) *AuthHandler {
	return &AuthHandler{Accounts: acc, Log: orNop(log)}
}

// ----- DTOs -----

type sendOTPReq struct {
	Email string `json:"email" validate:"required"`
}
type verifyOTPReq struct {
	Email string `json:"email" validate:"required"`
	OTP   string `json:"otp" validate:"required"`
}
type signupReq struct {
	Email    string `json:"email" validate:"required"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	// IsEmailVerified is sent by the web client; the stored account state
	// decides instead.
	IsEmailVerified bool `json:"isEmailVerified"`
}
type loginReq struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}
type authResp struct {
	Message string    `json:"message"`
	Token   string    `json:"token"`
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

func sessionResp(msg string, s account.Session) authResp {
	return authResp{
		Message: msg,
		Token:   s.Access.Token,
		User:    userPart{ID: s.User.ID, Username: s.User.Username, Email: s.User.Email},
		Access:  tokenPart{Token: s.Access.Token, Expires: s.Access.Exp},
		Refresh: tokenPart{Token: s.Refresh.Raw, Expires: s.Refresh.Exp}, // raw back to client
	}
}

// accountStatus maps account sentinels to HTTP status codes.  Zero means
// the error is unexpected.
func accountStatus(err error) int {
	switch {
	case errors.Is(err, account.ErrInvalidEmail),
		errors.Is(err, account.ErrInvalidUsername),
		errors.Is(err, account.ErrWeakPassword),
		errors.Is(err, account.ErrPasswordTooLong),
		errors.Is(err, account.ErrInvalidOTP),
		errors.Is(err, account.ErrNotVerified):
		return http.StatusBadRequest
	case errors.Is(err, account.ErrAlreadyRegistered),
		errors.Is(err, account.ErrUsernameTaken),
		errors.Is(err, account.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, account.ErrInvalidCredentials),
		errors.Is(err, account.ErrInactive),
		errors.Is(err, account.ErrInvalidRefresh):
		return http.StatusUnauthorized
	case errors.Is(err, account.ErrNotFound):
		return http.StatusNotFound
	}
	return 0
}

func (h *AuthHandler) fail(c echo.Context, msg string, err error) error {
	if code := accountStatus(err); code != 0 {
		return c.JSON(code, echo.Map{"error": err.Error()})
	}
	return serverError(c, h.Log, msg, err)
}

// SendOTP: create or reset a pending account and mail a fresh code.
func (h *AuthHandler) SendOTP(c echo.Context) error {
	var req sendOTPReq
	if err := bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Accounts.Start(ctx, req.Email); err != nil {
		return h.fail(c, "failed to send OTP", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "OTP sent to email"})
}

// VerifyOTP: check a code; the account becomes email-verified.
func (h *AuthHandler) VerifyOTP(c echo.Context) error {
	var req verifyOTPReq
	if err := bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Accounts.Verify(ctx, req.Email, req.OTP); err != nil {
		return h.fail(c, "failed to verify OTP", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "email verified successfully"})
}

// Signup: set credentials on a verified account and return tokens.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	s, err := h.Accounts.Complete(ctx, req.Email, req.Username, req.Password)
	if err != nil {
		return h.fail(c, "signup failed", err)
	}
	return c.JSON(http.StatusCreated, sessionResp("user registered successfully", s))
}

// Login: verify credentials and return a new pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	s, err := h.Accounts.Login(ctx, req.Email, req.Password)
	if err != nil {
		return h.fail(c, "login failed", err)
	}
	return c.JSON(http.StatusOK, sessionResp("login successful", s))
}

// Refresh: validate by hash, revoke old, issue new.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return badRequest(c, "refresh_token required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	s, err := h.Accounts.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return h.fail(c, "refresh failed", err)
	}
	return c.JSON(http.StatusOK, sessionResp("token refreshed", s))
}

// Logout revokes the refresh token in the body, or every session of the
// bearer when the body carries none.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	uid, _ := middleware.UserID(c)
	if uid == 0 && req.RefreshToken == "" {
		return badRequest(c, "provide Authorization header or refresh_token")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Accounts.Logout(ctx, uid, req.RefreshToken); err != nil {
		return h.fail(c, "logout failed", err)
	}
	return c.NoContent(http.StatusNoContent)
}
