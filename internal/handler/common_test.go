package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/eventica/internal/account"
	"github.com/iliyamo/eventica/internal/middleware"
)

func TestParseDay(t *testing.T) {
	want := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"2024-03-05", "05-03-2024", "5-3-2024", "2024-03-05T18:30:00Z", " 2024-03-05 "} {
		got, ok := parseDay(in)
		require.True(t, ok, in)
		assert.True(t, want.Equal(got), in)
	}
	for _, in := range []string{"", "soon", "2024-02-30", "31-02-2024"} {
		_, ok := parseDay(in)
		assert.False(t, ok, in)
	}
}

func TestValidationMessage(t *testing.T) {
	v := NewValidator()
	err := v.Validate(&addEventReq{Description: "d", EventDate: "2024-01-01", Time: "t", Location: "l"})
	require.Error(t, err)
	assert.Equal(t, "title is required", validationMessage(err))

	err = v.Validate(&editProfileReq{Password: "abc"})
	require.Error(t, err)
	assert.Equal(t, "password must be at least 6 characters", validationMessage(err))

	err = v.Validate(&addEventReq{Title: "t", Description: "d", EventDate: "x", Time: "t", Location: "l", Website: "nope"})
	require.Error(t, err)
	assert.Equal(t, "website must be a valid URL", validationMessage(err))
}

func TestAccountStatus(t *testing.T) {
	cases := map[error]int{
		account.ErrInvalidOTP:         http.StatusBadRequest,
		account.ErrNotVerified:        http.StatusBadRequest,
		account.ErrUsernameTaken:      http.StatusConflict,
		account.ErrAlreadyRegistered:  http.StatusConflict,
		account.ErrInvalidCredentials: http.StatusUnauthorized,
		account.ErrInactive:           http.StatusUnauthorized,
		account.ErrNotFound:           http.StatusNotFound,
		assert.AnError:                0,
	}
	for err, code := range cases {
		assert.Equal(t, code, accountStatus(err), err.Error())
	}
}

func TestGetUserIDAndParseID(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	_, err := getUserID(c)
	assert.Error(t, err)
	c.Set(middleware.CtxUserID, uint64(42))
	id, err := getUserID(c)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)

	c.SetParamNames("id")
	c.SetParamValues("17")
	n, ok := parseID(c, "id")
	assert.True(t, ok)
	assert.Equal(t, uint64(17), n)
	c.SetParamValues("0")
	_, ok = parseID(c, "id")
	assert.False(t, ok)
}
