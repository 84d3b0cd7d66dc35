package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/iliyamo/eventica/internal/calendar"
	"github.com/iliyamo/eventica/internal/catalog"
	"github.com/iliyamo/eventica/internal/logger"
	"github.com/iliyamo/eventica/internal/middleware"
	"github.com/iliyamo/eventica/internal/model"
	"github.com/iliyamo/eventica/internal/rating"
	"github.com/iliyamo/eventica/internal/repository"
)

// isoDate is the calendar-day format used in query strings and event JSON.
const isoDate = "2006-01-02"

// EventHandler serves listings, event CRUD, RSVPs and exports.
type EventHandler struct {
	Events *repository.EventRepo
	// Static events come from EVENTS_FILE and have no stored id.
	Static []catalog.Event
	// Local supplies ratings for static events; nil leaves them as loaded.
	Local       *rating.LocalStore
	Redis       *redis.Client
	CachePrefix string
	PublicURL   string
	Log         *logger.Logger
	now         func() time.Time
}

func NewEventHandler(events *repository.EventRepo, static []catalog.Event, local *rating.LocalStore,
	rdb *redis.Client, cachePrefix, publicURL string, log *logger.Logger) *EventHandler {
	if events == nil {
		panic("nil repository passed to NewEventHandler")
	}
	return &EventHandler{
		Events:      events,
		Static:      static,
		Local:       local,
		Redis:       rdb,
		CachePrefix: cachePrefix,
		PublicURL:   strings.TrimRight(publicURL, "/"),
		Log:         orNop(log),
		now:         time.Now,
	}
}

// ----- DTOs -----

type organizerPart struct {
	ID       uint64 `json:"_id"`
	Username string `json:"username"`
}

type eventResp struct {
	ID            uint64        `json:"_id"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	EventDate     string        `json:"eventDate"`
	Date          string        `json:"date"`
	Time          string        `json:"time"`
	Location      string        `json:"location"`
	Image         string        `json:"image"`
	Website       string        `json:"website,omitempty"`
	Organizer     organizerPart `json:"organizer"`
	IsActive      bool          `json:"isActive"`
	AverageRating float64       `json:"averageRating"`
	ReviewCount   int           `json:"reviewCount"`
	Attendees     *int          `json:"attendeeCount,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
}

func toEventResp(e model.Event) eventResp {
	return eventResp{
		ID:            e.ID,
		Title:         e.Title,
		Description:   e.Description,
		EventDate:     e.EventDate.UTC().Format(isoDate),
		Date:          e.EventDate.UTC().Format(catalog.DateLayout),
		Time:          e.Time,
		Location:      e.Location,
		Image:         e.Image,
		Website:       e.Website,
		Organizer:     organizerPart{ID: e.OrganizerID, Username: e.OrganizerName},
		IsActive:      e.IsActive,
		AverageRating: e.AverageRating,
		ReviewCount:   e.ReviewCount,
		CreatedAt:     e.CreatedAt,
	}
}

type addEventReq struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required,max=5000"`
	EventDate   string `json:"eventDate" validate:"required"`
	Time        string `json:"time" validate:"required,max=100"`
	Location    string `json:"location" validate:"required,max=200"`
	Image       string `json:"image" validate:"omitempty,url"`
	Website     string `json:"website" validate:"omitempty,url"`
}

type catalogResp struct {
	Upcoming  []catalog.Card `json:"upcoming"`
	Past      []catalog.Card `json:"past"`
	Locations []string       `json:"locations"`
}

// parseDay accepts YYYY-MM-DD, DD-MM-YYYY or an RFC 3339 timestamp and
// returns UTC midnight of that day.
func parseDay(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(isoDate, s); err == nil {
		return t.UTC(), true
	}
	if t, ok := catalog.ParseDate(s); ok {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		t = t.UTC()
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

func (h *EventHandler) invalidate(ctx context.Context) {
	if err := middleware.Invalidate(ctx, h.Redis, h.CachePrefix); err != nil {
		h.Log.Warn("cache invalidation failed", zap.Error(err))
	}
}

// GetAllEvents lists every active stored event, earliest first.
func (h *EventHandler) GetAllEvents(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	events, err := h.Events.ListActive(ctx)
	if err != nil {
		return serverError(c, h.Log, "failed to fetch events", err)
	}
	out := make([]eventResp, 0, len(events))
	for _, e := range events {
		out = append(out, toEventResp(e))
	}
	return c.JSON(http.StatusOK, out)
}

// Catalog merges stored and static events, splits them into upcoming and
// past, and narrows the past listing with the location, from, to and q
// query parameters.
func (h *EventHandler) Catalog(c echo.Context) error {
	var f catalog.Filter
	f.Location = c.QueryParam("location")
	f.Query = c.QueryParam("q")
	for _, p := range []struct {
		name string
		dst  **time.Time
	}{{"from", &f.From}, {"to", &f.To}} {
		raw := strings.TrimSpace(c.QueryParam(p.name))
		if raw == "" {
			continue
		}
		d, ok := parseDay(raw)
		if !ok {
			return badRequest(c, fmt.Sprintf("invalid %s date, expected YYYY-MM-DD", p.name))
		}
		*p.dst = &d
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	stored, err := h.Events.ListActive(ctx)
	if err != nil {
		return serverError(c, h.Log, "failed to fetch events", err)
	}
	all := make([]catalog.Event, 0, len(stored)+len(h.Static))
	for _, e := range stored {
		all = append(all, e.Catalog())
	}
	all = append(all, h.withLocalRatings(ctx, h.Static)...)

	part := catalog.Split(catalog.Today(h.now()), all)
	return c.JSON(http.StatusOK, catalogResp{
		Upcoming:  catalog.Cards(part.Upcoming, false),
		Past:      catalog.Cards(catalog.FilterPast(part.Past, f), true),
		Locations: catalog.Locations(part.Past),
	})
}

// withLocalRatings overlays the local review summary on static events that
// have local reviews.
func (h *EventHandler) withLocalRatings(ctx context.Context, events []catalog.Event) []catalog.Event {
	if h.Local == nil || len(events) == 0 {
		return events
	}
	out := make([]catalog.Event, len(events))
	copy(out, events)
	for i := range out {
		_, sum, err := h.Local.List(ctx, catalog.ClientID(out[i]))
		if err != nil {
			h.Log.Warn("local ratings unavailable", zap.Error(err))
			return out
		}
		if sum.Count > 0 {
			out[i].AverageRating = sum.Average
			out[i].ReviewCount = sum.Count
		}
	}
	return out
}

// GetEvent returns one active event with its attendee count.
func (h *EventHandler) GetEvent(c echo.Context) error {
	e, ok, err := h.load(c)
	if !ok {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	n, err := h.Events.CountAttendees(ctx, e.ID)
	if err != nil {
		return serverError(c, h.Log, "failed to fetch event", err)
	}
	resp := toEventResp(e)
	resp.Attendees = &n
	return c.JSON(http.StatusOK, resp)
}

// AddEvent creates an event organized by the caller.
func (h *EventHandler) AddEvent(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req addEventReq
	if err := bind(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	day, ok := parseDay(req.EventDate)
	if !ok {
		return badRequest(c, "invalid eventDate, expected YYYY-MM-DD or DD-MM-YYYY")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	e, err := h.Events.Create(ctx, model.Event{
		OrganizerID: uid,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		EventDate:   day,
		Time:        strings.TrimSpace(req.Time),
		Location:    strings.TrimSpace(req.Location),
		Image:       strings.TrimSpace(req.Image),
		Website:     strings.TrimSpace(req.Website),
	})
	if err != nil {
		return serverError(c, h.Log, "failed to create event", err)
	}
	h.invalidate(ctx)
	return c.JSON(http.StatusCreated, echo.Map{"message": "event created successfully", "event": toEventResp(e)})
}

// DeleteEvent removes an event; only its organizer may do so.
func (h *EventHandler) DeleteEvent(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	switch err := h.Events.DeleteByIDAndOrganizer(ctx, id, uid); {
	case errors.Is(err, repository.ErrEventNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only the organizer can delete this event"})
	case err != nil:
		return serverError(c, h.Log, "failed to delete event", err)
	}
	h.invalidate(ctx)
	return c.JSON(http.StatusOK, echo.Map{"message": "event deleted successfully"})
}

// RSVP registers the caller as an attendee.
func (h *EventHandler) RSVP(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	switch err := h.Events.AddAttendee(ctx, id, uid); {
	case errors.Is(err, repository.ErrEventNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "already registered for this event"})
	case err != nil:
		return serverError(c, h.Log, "failed to register", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "registered for event"})
}

// CancelRSVP removes the caller's registration.
func (h *EventHandler) CancelRSVP(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	switch err := h.Events.RemoveAttendee(ctx, id, uid); {
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "registration not found"})
	case err != nil:
		return serverError(c, h.Log, "failed to cancel registration", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// load fetches the event named by the :id param.  When ok is false the
// response has already been written and err is what the handler returns.
func (h *EventHandler) load(c echo.Context) (e model.Event, ok bool, err error) {
	id, valid := parseID(c, "id")
	if !valid {
		return e, false, badRequest(c, "invalid id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	e, err = h.Events.GetByID(ctx, id)
	if errors.Is(err, repository.ErrEventNotFound) {
		return e, false, c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	}
	if err != nil {
		return e, false, serverError(c, h.Log, "failed to fetch event", err)
	}
	return e, true, nil
}

// ICS downloads the event as an iCalendar file.
func (h *EventHandler) ICS(c echo.Context) error {
	e, ok, err := h.load(c)
	if !ok {
		return err
	}
	body := calendar.Render(e, h.domain(), h.now())
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", calendar.Filename(e)))
	return c.Blob(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
}

// QRCode renders a PNG linking to the event's website, or to the event
// itself when it has none.
func (h *EventHandler) QRCode(c echo.Context) error {
	e, ok, err := h.load(c)
	if !ok {
		return err
	}
	target := e.Website
	if target == "" {
		target = fmt.Sprintf("%s/api/events/%d", h.PublicURL, e.ID)
	}
	png, err := qrcode.Encode(target, qrcode.Medium, 256)
	if err != nil {
		return serverError(c, h.Log, "failed to render QR code", err)
	}
	return c.Blob(http.StatusOK, "image/png", png)
}

func (h *EventHandler) domain() string {
	if u, err := url.Parse(h.PublicURL); err == nil && u.Hostname() != "" {
		return u.Hostname()
	}
	return "eventica.local"
}
