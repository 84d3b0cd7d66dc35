package model

import (
	"time"

	"github.com/iliyamo/eventica/internal/catalog"
)

// Event represents a listing stored in the `events` table.  AverageRating
// and ReviewCount are derived from the `reviews` table and rewritten every
// time a review is added.
//
// Fields:
//  ID            – primary key identifier.
//  OrganizerID   – user who created the event.
//  OrganizerName – username of the organizer (joined, read-only).
//  Title         – event title.
//  Description   – free-text description.
//  EventDate     – calendar day of the event (UTC midnight).
//  Time          – free-text time, e.g. "6 PM onwards".
//  Location      – venue or city.
//  Image         – image URL.
//  Website       – optional external URL.
//  IsActive      – inactive events are hidden from listings.
//  AverageRating – mean review score.
//  ReviewCount   – number of reviews.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Event struct {
	ID            uint64
	OrganizerID   uint64
	OrganizerName string
	Title         string
	Description   string
	EventDate     time.Time
	Time          string
	Location      string
	Image         string
	Website       string
	IsActive      bool
	AverageRating float64
	ReviewCount   int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Catalog converts a stored event into the shape used by the listing
// pipeline, formatting the date as DD-MM-YYYY.
func (e Event) Catalog() catalog.Event {
	return catalog.Event{
		ID:            e.ID,
		Title:         e.Title,
		Description:   e.Description,
		Date:          e.EventDate.UTC().Format(catalog.DateLayout),
		Time:          e.Time,
		Location:      e.Location,
		Image:         e.Image,
		Website:       e.Website,
		AverageRating: e.AverageRating,
		ReviewCount:   e.ReviewCount,
	}
}
