package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/eventica/internal/account"
	"github.com/iliyamo/eventica/internal/logger"
	"github.com/iliyamo/eventica/internal/model"
	"github.com/iliyamo/eventica/internal/repository"
)

// ProfileHandler lets a signed-in user read, edit and delete their account.
type ProfileHandler struct {
	Accounts *account.Service
	Events   *repository.EventRepo
	Log      *logger.Logger
}

func NewProfileHandler(acc *account.Service, events *repository.EventRepo, log *logger.Logger) *ProfileHandler {
	return &ProfileHandler{Accounts: acc, Events: events, Log: orNop(log)}
}

type profilePart struct {
	ID        uint64    `json:"_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

func toProfilePart(u model.User) profilePart {
	return profilePart{ID: u.ID, Username: u.Username, Email: u.Email, CreatedAt: u.CreatedAt}
}

type editProfileReq struct {
	Username string `json:"username" validate:"omitempty,min=3,max=30"`
	Email    string `json:"email"`
	Password string `json:"password" validate:"omitempty,min=6"`
}

func (h *ProfileHandler) fail(c echo.Context, msg string, err error) error {
	if code := accountStatus(err); code != 0 {
		if code == http.StatusNotFound {
			return c.JSON(code, echo.Map{"error": "user not found"})
		}
		return c.JSON(code, echo.Map{"error": err.Error()})
	}
	return serverError(c, h.Log, msg, err)
}

// GetProfile returns the caller and the events they registered for.
func (h *ProfileHandler) GetProfile(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	u, err := h.Accounts.Profile(ctx, uid)
	if err != nil {
		return h.fail(c, "failed to load profile", err)
	}
	events, err := h.Events.ListForAttendee(ctx, uid)
	if err != nil {
		return serverError(c, h.Log, "failed to load profile", err)
	}
	registered := make([]eventResp, 0, len(events))
	for _, e := range events {
		registered = append(registered, toEventResp(e))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user":             toProfilePart(u),
		"registeredEvents": registered,
	})
}

// EditProfile changes any of username, email and password.
func (h *ProfileHandler) EditProfile(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req editProfileReq
	if err := bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	u, err := h.Accounts.UpdateProfile(ctx, uid, account.ProfileUpdate{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return h.fail(c, "failed to update profile", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "profile updated successfully", "user": toProfilePart(u)})
}

// DeleteProfile removes the caller's account, sessions, reviews and RSVPs.
func (h *ProfileHandler) DeleteProfile(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Accounts.DeleteProfile(ctx, uid); err != nil {
		return h.fail(c, "failed to delete profile", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "profile deleted successfully"})
}
