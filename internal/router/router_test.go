package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/eventica/internal/account"
	"github.com/iliyamo/eventica/internal/catalog"
	"github.com/iliyamo/eventica/internal/database"
	"github.com/iliyamo/eventica/internal/handler"
	"github.com/iliyamo/eventica/internal/rating"
	"github.com/iliyamo/eventica/internal/repository"
)

const testSecret = "test-secret"

type captureSender struct {
	mu    sync.Mutex
	codes map[string]string
}

func (s *captureSender) SendOTP(_ context.Context, email, code string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[email] = code
	return nil
}

func (s *captureSender) code(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codes[email]
}

type testEnv struct {
	e    *echo.Echo
	sent *captureSender
}

var staticEvents = []catalog.Event{
	{Title: "Jazz Night", Description: "Live jazz", Date: "01-01-2000", Location: "Pune"},
	{Title: "Rock Fest", Description: "Loud guitars", Date: "15-06-2001", Location: "Mumbai"},
	{Title: "Future Expo", Description: "Robots", Date: "01-01-2999", Location: "Pune"},
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.OpenSQLite(fmt.Sprintf("file:router_%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db, "sqlite3"))

	sent := &captureSender{codes: map[string]string{}}
	events := repository.NewEventRepo(db)
	accounts := account.NewService(repository.NewUserRepo(db), repository.NewTokenRepo(db), sent, account.Options{
		OTPTTL:         10 * time.Minute,
		JWTSecret:      testSecret,
		AccessTTLMin:   60,
		RefreshTTLDays: 1,
		BcryptCost:     4,
	})
	reviews := rating.NewService(repository.NewReviewRepo(db), nil)
	local := rating.NewLocalStore(rating.NewMemoryKV(), "local_reviews")

	e := echo.New()
	e.Validator = handler.NewValidator()
	RegisterRoutes(e)
	RegisterAuth(e, handler.NewAuthHandler(accounts, nil), testSecret, nil)
	RegisterEvents(e,
		handler.NewEventHandler(events, staticEvents, local, nil, "cache:events", "http://events.test", nil),
		handler.NewReviewHandler(reviews, local, nil, "cache:events", nil),
		testSecret, accounts, nil)
	RegisterProfile(e, handler.NewProfileHandler(accounts, events, nil), testSecret, accounts)
	return &testEnv{e: e, sent: sent}
}

func (env *testEnv) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

// signup walks an address through send-otp, verify-otp and signup and
// returns the access token.
func (env *testEnv) signup(t *testing.T, email, username string) string {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/api/auth/send-otp", echo.Map{"email": email}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = env.do(t, http.MethodPost, "/api/auth/verify-otp", echo.Map{"email": email, "otp": env.sent.code(email)}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = env.do(t, http.MethodPost, "/api/auth/signup",
		echo.Map{"email": email, "username": username, "password": "secret1", "isEmailVerified": true}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var out struct {
		Token string `json:"token"`
	}
	decode(t, rec, &out)
	require.NotEmpty(t, out.Token)
	return out.Token
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{"/healthz", "/api/health"} {
		rec := env.do(t, http.MethodGet, path, nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		var out map[string]string
		decode(t, rec, &out)
		assert.Equal(t, "Server is running", out["message"])
		assert.NotEmpty(t, out["timestamp"])
		assert.NotEmpty(t, out["version"])
	}
}

func TestSignupFlow(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/auth/send-otp", echo.Map{"email": "not-an-email"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/auth/send-otp", echo.Map{}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/auth/send-otp", echo.Map{"email": "Alice@Example.com"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	code := env.sent.code("alice@example.com")
	require.Len(t, code, 6)

	// signup before verification is refused
	rec = env.do(t, http.MethodPost, "/api/auth/signup",
		echo.Map{"email": "alice@example.com", "username": "alice", "password": "secret1", "isEmailVerified": true}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	rec = env.do(t, http.MethodPost, "/api/auth/verify-otp", echo.Map{"email": "alice@example.com", "otp": wrong}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/auth/verify-otp", echo.Map{"email": "alice@example.com", "otp": code}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/auth/signup",
		echo.Map{"email": "alice@example.com", "username": "al", "password": "secret1"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/auth/signup",
		echo.Map{"email": "alice@example.com", "username": "alice", "password": "secret1"}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var session struct {
		Token string `json:"token"`
		User  struct {
			ID       uint64 `json:"id"`
			Username string `json:"username"`
			Email    string `json:"email"`
		} `json:"user"`
		Refresh struct {
			Token string `json:"token"`
		} `json:"refresh"`
	}
	decode(t, rec, &session)
	assert.Equal(t, "alice", session.User.Username)
	assert.Equal(t, "alice@example.com", session.User.Email)
	assert.NotEmpty(t, session.Refresh.Token)

	rec = env.do(t, http.MethodPost, "/api/auth/send-otp", echo.Map{"email": "alice@example.com"}, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/auth/login", echo.Map{"email": "alice@example.com", "password": "wrong-pass"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/auth/login", echo.Map{"email": "alice@example.com", "password": "secret1"}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/auth/refresh", echo.Map{"refresh_token": session.Refresh.Token}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	// the old token was rotated out
	rec = env.do(t, http.MethodPost, "/api/auth/refresh", echo.Map{"refresh_token": session.Refresh.Token}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/auth/logout", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/auth/logout", nil, session.Token)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestProfile(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "bob@example.com", "bob")
	env.signup(t, "carol@example.com", "carol")

	rec := env.do(t, http.MethodGet, "/api/profile/getprofile", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/profile/getprofile", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	var prof struct {
		User struct {
			Username string `json:"username"`
		} `json:"user"`
		RegisteredEvents []json.RawMessage `json:"registeredEvents"`
	}
	decode(t, rec, &prof)
	assert.Equal(t, "bob", prof.User.Username)
	assert.Empty(t, prof.RegisteredEvents)

	rec = env.do(t, http.MethodPost, "/api/profile/editprofile", echo.Map{"username": "carol"}, token)
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/profile/editprofile", echo.Map{"password": "123"}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/profile/editprofile", echo.Map{"username": "bobby"}, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"bobby"`)

	rec = env.do(t, http.MethodDelete, "/api/profile/deleteProfile", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/profile/getprofile", nil, token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/auth/login", echo.Map{"email": "bob@example.com", "password": "secret1"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestEventLifecycle(t *testing.T) {
	env := newTestEnv(t)
	owner := env.signup(t, "owner@example.com", "owner")
	guest := env.signup(t, "guest@example.com", "guest")

	newEvent := echo.Map{
		"title":       "Go Meetup",
		"description": "Talks",
		"eventDate":   "2999-03-15",
		"time":        "6 PM",
		"location":    "Pune",
	}
	rec := env.do(t, http.MethodPost, "/api/events/add", newEvent, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/events/add", echo.Map{"title": "x"}, owner)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	bad := echo.Map{"title": "Go Meetup", "description": "Talks", "eventDate": "soon", "time": "6 PM", "location": "Pune"}
	rec = env.do(t, http.MethodPost, "/api/events/add", bad, owner)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/events/add", newEvent, owner)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		Event struct {
			ID        uint64 `json:"_id"`
			Date      string `json:"date"`
			EventDate string `json:"eventDate"`
			Organizer struct {
				Username string `json:"username"`
			} `json:"organizer"`
		} `json:"event"`
	}
	decode(t, rec, &created)
	id := created.Event.ID
	require.NotZero(t, id)
	assert.Equal(t, "15-03-2999", created.Event.Date)
	assert.Equal(t, "2999-03-15", created.Event.EventDate)
	assert.Equal(t, "owner", created.Event.Organizer.Username)

	rec = env.do(t, http.MethodGet, "/api/events/allevents", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var all []struct {
		ID uint64 `json:"_id"`
	}
	decode(t, rec, &all)
	require.Len(t, all, 1)
	assert.Equal(t, id, all[0].ID)

	path := fmt.Sprintf("/api/events/%d", id)

	// RSVP
	rec = env.do(t, http.MethodPost, path+"/rsvp", nil, guest)
	assert.Equal(t, http.StatusCreated, rec.Code)
	rec = env.do(t, http.MethodPost, path+"/rsvp", nil, guest)
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/events/999/rsvp", nil, guest)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, path, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"attendeeCount":1`)

	rec = env.do(t, http.MethodGet, "/api/profile/getprofile", nil, guest)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Go Meetup")

	// durable reviews
	rec = env.do(t, http.MethodPost, path+"/reviews", echo.Map{"rating": 4, "comment": "nice"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "please log in to submit a review")
	rec = env.do(t, http.MethodPost, path+"/reviews", echo.Map{"rating": 9, "comment": "great"}, guest)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = env.do(t, http.MethodPost, path+"/reviews", echo.Map{"rating": 1}, guest)
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = env.do(t, http.MethodPost, path+"/reviews", echo.Map{"rating": 2}, owner)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/events/999/reviews", echo.Map{"rating": 2}, owner)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, path+"/reviews", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Reviews []struct {
			UserName string `json:"userName"`
			Rating   int    `json:"rating"`
		} `json:"reviews"`
		AverageRating float64 `json:"averageRating"`
		ReviewCount   int     `json:"reviewCount"`
	}
	decode(t, rec, &list)
	assert.Equal(t, 2, list.ReviewCount)
	assert.InDelta(t, 3.5, list.AverageRating, 1e-9)
	require.Len(t, list.Reviews, 2)
	assert.Equal(t, "guest", list.Reviews[0].UserName)
	assert.Equal(t, 5, list.Reviews[0].Rating)

	rec = env.do(t, http.MethodGet, "/api/events/999/reviews", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"reviewCount":0`)

	// exports
	rec = env.do(t, http.MethodGet, path+"/ics", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), "text/calendar"))
	assert.Contains(t, rec.Body.String(), "SUMMARY:Go Meetup")
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "go-meetup.ics")

	rec = env.do(t, http.MethodGet, path+"/qrcode", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	// cancel RSVP
	rec = env.do(t, http.MethodDelete, path+"/rsvp", nil, guest)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, http.MethodDelete, path+"/rsvp", nil, guest)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// delete
	rec = env.do(t, http.MethodDelete, fmt.Sprintf("/api/events/delete/%d", id), nil, guest)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = env.do(t, http.MethodDelete, fmt.Sprintf("/api/events/delete/%d", id), nil, owner)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodGet, path, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/events/abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type catalogBody struct {
	Upcoming []struct {
		Title string `json:"title"`
	} `json:"upcoming"`
	Past []struct {
		Title       string `json:"title"`
		ClientID    string `json:"clientId"`
		DisplayDate string `json:"displayDate"`
		ReviewCount int    `json:"reviewCount"`
		Stars       int    `json:"stars"`
	} `json:"past"`
	Locations []string `json:"locations"`
}

func TestCatalog(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/events/catalog", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var out catalogBody
	decode(t, rec, &out)
	require.Len(t, out.Upcoming, 1)
	assert.Equal(t, "Future Expo", out.Upcoming[0].Title)
	require.Len(t, out.Past, 2)
	// past is newest first
	assert.Equal(t, "Rock Fest", out.Past[0].Title)
	assert.Equal(t, "Jazz Night", out.Past[1].Title)
	assert.Equal(t, "1 January 2000, Saturday", out.Past[1].DisplayDate)
	assert.Equal(t, catalog.Fingerprint("Jazz Night", "01-01-2000"), out.Past[1].ClientID)
	assert.ElementsMatch(t, []string{"Pune", "Mumbai"}, out.Locations)

	rec = env.do(t, http.MethodGet, "/api/events/catalog?location=pune", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	out = catalogBody{}
	decode(t, rec, &out)
	require.Len(t, out.Past, 1)
	assert.Equal(t, "Jazz Night", out.Past[0].Title)
	assert.Len(t, out.Upcoming, 1, "filters only narrow the past listing")

	rec = env.do(t, http.MethodGet, "/api/events/catalog?from=2001-01-01&to=2001-12-31&q=guitar", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	out = catalogBody{}
	decode(t, rec, &out)
	require.Len(t, out.Past, 1)
	assert.Equal(t, "Rock Fest", out.Past[0].Title)

	rec = env.do(t, http.MethodGet, "/api/events/catalog?from=yesterday", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLocalReviews(t *testing.T) {
	env := newTestEnv(t)
	fp := catalog.Fingerprint("Jazz Night", "01-01-2000")
	path := "/api/events/local/" + url.PathEscape(fp) + "/reviews"

	rec := env.do(t, http.MethodGet, path, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"reviewCount":0`)

	rec = env.do(t, http.MethodPost, path, echo.Map{"rating": 5, "comment": "wow"}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	// anonymous reviews are never treated as duplicates
	rec = env.do(t, http.MethodPost, path, echo.Map{"rating": 2}, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	token := env.signup(t, "dana@example.com", "dana")
	rec = env.do(t, http.MethodPost, path, echo.Map{"rating": 5}, token)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, path, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Reviews []struct {
			UserName string `json:"userName"`
		} `json:"reviews"`
		AverageRating float64 `json:"averageRating"`
		ReviewCount   int     `json:"reviewCount"`
	}
	decode(t, rec, &list)
	assert.Equal(t, 3, list.ReviewCount)
	assert.InDelta(t, 4.0, list.AverageRating, 1e-9)
	require.Len(t, list.Reviews, 3)
	assert.Equal(t, "You", list.Reviews[0].UserName)
	assert.Equal(t, "dana", list.Reviews[2].UserName)

	// the catalog shows the mirror's summary on the static card
	rec = env.do(t, http.MethodGet, "/api/events/catalog?location=pune", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var out catalogBody
	decode(t, rec, &out)
	require.Len(t, out.Past, 1)
	assert.Equal(t, 3, out.Past[0].ReviewCount)
	assert.Equal(t, 4, out.Past[0].Stars)

	rec = env.do(t, http.MethodPost, "/api/events/local/not-a-fingerprint/reviews", echo.Map{"rating": 3}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/events/local/client_/reviews", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeletedAccountTokenIsRejected(t *testing.T) {
	env := newTestEnv(t)
	host := env.signup(t, "host@example.com", "host")
	ghost := env.signup(t, "ghost@example.com", "ghost")

	rec := env.do(t, http.MethodPost, "/api/events/add", echo.Map{
		"title": "Board Games", "description": "Bring dice", "eventDate": "2999-05-01", "time": "7 PM", "location": "Pune",
	}, host)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		Event struct {
			ID uint64 `json:"_id"`
		} `json:"event"`
	}
	decode(t, rec, &created)
	path := fmt.Sprintf("/api/events/%d", created.Event.ID)

	rec = env.do(t, http.MethodDelete, "/api/profile/deleteProfile", nil, ghost)
	require.Equal(t, http.StatusOK, rec.Code)

	fp := url.PathEscape(catalog.Fingerprint("Jazz Night", "01-01-2000"))
	calls := []struct {
		method, path string
		body         interface{}
	}{
		{http.MethodPost, "/api/events/add", echo.Map{"title": "x", "description": "d", "eventDate": "2999-01-01", "time": "t", "location": "l"}},
		{http.MethodPost, path + "/reviews", echo.Map{"rating": 5}},
		{http.MethodPost, path + "/rsvp", nil},
		{http.MethodDelete, path + "/rsvp", nil},
		{http.MethodPost, "/api/events/local/" + fp + "/reviews", echo.Map{"rating": 5}},
		{http.MethodGet, "/api/profile/getprofile", nil},
	}
	for _, call := range calls {
		rec = env.do(t, call.method, call.path, call.body, ghost)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, call.method+" "+call.path)
		assert.Contains(t, rec.Body.String(), "authentication required", call.method+" "+call.path)
	}

	// the live account is unaffected
	rec = env.do(t, http.MethodPost, path+"/rsvp", nil, host)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestAddReviewChecksLoginBeforeBody(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/events/1/reviews", echo.Map{"rating": "five"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "please log in to submit a review")
}

func TestLocalReviewsEscapedSlash(t *testing.T) {
	env := newTestEnv(t)
	fp := catalog.Fingerprint("Open Mic?", "01-01-2000")
	require.Contains(t, fp, "/")
	path := "/api/events/local/" + url.PathEscape(fp) + "/reviews"
	require.Contains(t, path, "%2F")

	rec := env.do(t, http.MethodPost, path, echo.Map{"rating": 4, "comment": "fun"}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = env.do(t, http.MethodGet, path, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"reviewCount":1`)
	assert.Contains(t, rec.Body.String(), `"comment":"fun"`)
}
