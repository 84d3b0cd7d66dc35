package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/eventica/internal/model"
)

// EventRepo persists events and their attendee lists.
type EventRepo struct{ db *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

const eventSelect = `SELECT e.id, e.organizer_id, COALESCE(u.username, ''), e.title, e.description,
	e.event_date, e.time, e.location, e.image, e.website, e.is_active,
	e.average_rating, e.review_count, e.created_at, e.updated_at
	FROM events e LEFT JOIN users u ON u.id = e.organizer_id`

func scanEvent(s rowScanner) (model.Event, error) {
	var e model.Event
	err := s.Scan(&e.ID, &e.OrganizerID, &e.OrganizerName, &e.Title, &e.Description,
		&e.EventDate, &e.Time, &e.Location, &e.Image, &e.Website, &e.IsActive,
		&e.AverageRating, &e.ReviewCount, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return model.Event{}, err
	}
	e.EventDate = e.EventDate.UTC()
	return e, nil
}

func (r *EventRepo) list(ctx context.Context, query string, args ...any) ([]model.Event, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts e and returns it with its id and timestamps populated.
func (r *EventRepo) Create(ctx context.Context, e model.Event) (model.Event, error) {
	now := time.Now().UTC()
	e.EventDate = e.EventDate.UTC()
	e.IsActive = true
	e.CreatedAt, e.UpdatedAt = now, now
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO events (organizer_id, title, description, event_date, time, location, image, website,
		 is_active, average_rating, review_count, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?,0,0,?,?)`,
		e.OrganizerID, e.Title, e.Description, e.EventDate, e.Time, e.Location, e.Image, e.Website,
		e.IsActive, now, now)
	if err != nil {
		return model.Event{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Event{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByID returns an active event.  Missing or inactive events yield
// ErrEventNotFound.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (model.Event, error) {
	e, err := scanEvent(r.db.QueryRowContext(ctx, eventSelect+" WHERE e.id=? AND e.is_active=?", id, true))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, ErrEventNotFound
	}
	return e, err
}

// ListActive returns every active event ordered by date, then id.
func (r *EventRepo) ListActive(ctx context.Context) ([]model.Event, error) {
	return r.list(ctx, eventSelect+" WHERE e.is_active=? ORDER BY e.event_date ASC, e.id ASC", true)
}

// DeleteByIDAndOrganizer removes an event owned by organizerID.  Reviews and
// RSVPs cascade.
func (r *EventRepo) DeleteByIDAndOrganizer(ctx context.Context, id, organizerID uint64) error {
	var owner uint64
	err := r.db.QueryRowContext(ctx, "SELECT organizer_id FROM events WHERE id=?", id).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrEventNotFound
	}
	if err != nil {
		return err
	}
	if owner != organizerID {
		return ErrForbidden
	}
	_, err = r.db.ExecContext(ctx, "DELETE FROM events WHERE id=? AND organizer_id=?", id, organizerID)
	return err
}

// AddAttendee registers userID for an active event.  A repeat registration
// is ErrConflict.
func (r *EventRepo) AddAttendee(ctx context.Context, eventID, userID uint64) error {
	if _, err := r.GetByID(ctx, eventID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO event_attendees (event_id, user_id, created_at) VALUES (?,?,?)",
		eventID, userID, time.Now().UTC())
	if err != nil && isDuplicate(err) {
		return ErrConflict
	}
	return err
}

// RemoveAttendee cancels a registration.  ErrNotFound when none exists.
func (r *EventRepo) RemoveAttendee(ctx context.Context, eventID, userID uint64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM event_attendees WHERE event_id=? AND user_id=?", eventID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountAttendees returns how many users registered for the event.
func (r *EventRepo) CountAttendees(ctx context.Context, eventID uint64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM event_attendees WHERE event_id=?", eventID).Scan(&n)
	return n, err
}

// ListForAttendee returns the active events userID registered for.
func (r *EventRepo) ListForAttendee(ctx context.Context, userID uint64) ([]model.Event, error) {
	return r.list(ctx, eventSelect+
		" JOIN event_attendees a ON a.event_id = e.id WHERE a.user_id=? AND e.is_active=? ORDER BY e.event_date ASC, e.id ASC",
		userID, true)
}
