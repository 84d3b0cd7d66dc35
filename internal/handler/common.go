package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/eventica/internal/logger"
	"github.com/iliyamo/eventica/internal/middleware"
)

// requestTimeout bounds the store calls made by a single request.
const requestTimeout = 5 * time.Second

var errInvalidBody = errors.New("invalid body")

// Validator adapts validator/v10 to echo.Validator.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{v: validator.New()}
}

func (cv *Validator) Validate(i interface{}) error {
	return cv.v.Struct(i)
}

// bind decodes the body into req and runs struct validation.  The returned
// error is already phrased for the client.
func bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return errInvalidBody
	}
	if err := c.Validate(req); err != nil {
		return errors.New(validationMessage(err))
	}
	return nil
}

// validationMessage turns the first field error into "<field> is required"
// style text.
func validationMessage(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return err.Error()
	}
	fe := ve[0]
	field := lowerFirst(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return "invalid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "url":
		return field + " must be a valid URL"
	default:
		return field + " is invalid"
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// getUserID returns the authenticated caller set by the JWT middleware.
func getUserID(c echo.Context) (uint64, error) {
	if id, ok := middleware.UserID(c); ok {
		return id, nil
	}
	return 0, errors.New("invalid user_id in context")
}

// parseID reads a positive numeric path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param(name)), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

// serverError logs the cause and answers with a generic message.
func serverError(c echo.Context, log *logger.Logger, msg string, err error) error {
	log.Error(msg,
		zap.Error(err),
		zap.String("method", c.Request().Method),
		zap.String("path", c.Path()),
	)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": msg})
}

func orNop(log *logger.Logger) *logger.Logger {
	if log == nil {
		return logger.Nop()
	}
	return log
}
