package handler

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/eventica/internal/catalog"
	"github.com/iliyamo/eventica/internal/logger"
	"github.com/iliyamo/eventica/internal/middleware"
	"github.com/iliyamo/eventica/internal/rating"
)

// ReviewHandler serves durable reviews of stored events and the local
// mirror for fingerprint-keyed events.
type ReviewHandler struct {
	Reviews *rating.Service
	Local   *rating.LocalStore
	// Ratings appear in the cached listings, so a new review drops them.
	Redis       *redis.Client
	CachePrefix string
	Log         *logger.Logger
}

func NewReviewHandler(reviews *rating.Service, local *rating.LocalStore, rdb *redis.Client, cachePrefix string, log *logger.Logger) *ReviewHandler {
	return &ReviewHandler{Reviews: reviews, Local: local, Redis: rdb, CachePrefix: cachePrefix, Log: orNop(log)}
}

func (h *ReviewHandler) invalidate(ctx context.Context) {
	if err := middleware.Invalidate(ctx, h.Redis, h.CachePrefix); err != nil {
		h.Log.Warn("cache invalidation failed", zap.Error(err))
	}
}

type addReviewReq struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment" validate:"max=1000"`
}

type reviewsResp struct {
	Reviews       []rating.Review `json:"reviews"`
	AverageRating float64         `json:"averageRating"`
	ReviewCount   int             `json:"reviewCount"`
}

func toReviewsResp(reviews []rating.Review, sum rating.Summary) reviewsResp {
	return reviewsResp{Reviews: reviews, AverageRating: sum.Average, ReviewCount: sum.Count}
}

// ListReviews returns the reviews of a stored event and their summary.
func (h *ReviewHandler) ListReviews(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	reviews, sum, err := h.Reviews.List(ctx, id)
	if err != nil {
		return serverError(c, h.Log, "failed to fetch reviews", err)
	}
	return c.JSON(http.StatusOK, toReviewsResp(reviews, sum))
}

// AddReview records the caller's review.  A rater may review an event once.
func (h *ReviewHandler) AddReview(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": rating.ErrAuthRequired.Error()})
	}
	rater := &rating.Rater{ID: uid, Name: middleware.Username(c)}
	var req addReviewReq
	if err := bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	review, sum, err := h.Reviews.Add(ctx, id, rater, req.Rating, req.Comment)
	switch {
	case errors.Is(err, rating.ErrEventNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, rating.ErrAlreadyReviewed):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case err != nil:
		return serverError(c, h.Log, "failed to add review", err)
	}
	h.invalidate(ctx)
	return c.JSON(http.StatusCreated, echo.Map{
		"message":       "review added successfully",
		"review":        review,
		"averageRating": sum.Average,
		"reviewCount":   sum.Count,
	})
}

// fingerprint reads the :fingerprint param.  Standard base64 may contain
// '/', which clients send escaped.
func fingerprint(c echo.Context) (string, bool) {
	fp, err := url.PathUnescape(c.Param("fingerprint"))
	if err != nil || !catalog.IsFingerprint(fp) {
		return "", false
	}
	return fp, true
}

// ListLocalReviews returns the mirror for a fingerprint-keyed event.
func (h *ReviewHandler) ListLocalReviews(c echo.Context) error {
	fp, ok := fingerprint(c)
	if !ok {
		return badRequest(c, rating.ErrInvalidFingerprint.Error())
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	reviews, sum, err := h.Local.List(ctx, fp)
	if err != nil {
		return serverError(c, h.Log, "failed to fetch reviews", err)
	}
	return c.JSON(http.StatusOK, toReviewsResp(reviews, sum))
}

// AddLocalReview appends to the mirror.  Signed-in callers are labelled
// with their username; nobody is checked for duplicates.
func (h *ReviewHandler) AddLocalReview(c echo.Context) error {
	fp, ok := fingerprint(c)
	if !ok {
		return badRequest(c, rating.ErrInvalidFingerprint.Error())
	}
	var req addReviewReq
	if err := bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	review, sum, err := h.Local.Add(ctx, fp, middleware.Username(c), req.Rating, req.Comment)
	if errors.Is(err, rating.ErrInvalidFingerprint) {
		return badRequest(c, err.Error())
	}
	if err != nil {
		return serverError(c, h.Log, "failed to add review", err)
	}
	h.invalidate(ctx)
	return c.JSON(http.StatusCreated, echo.Map{
		"message":       "review added successfully",
		"review":        review,
		"averageRating": sum.Average,
		"reviewCount":   sum.Count,
	})
}
