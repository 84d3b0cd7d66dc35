package catalog

import (
	"fmt"
	"math"
)

// DatePlaceholder is shown instead of a formatted date when the event date
// cannot be parsed.  Rendering carries on for the rest of the listing.
const DatePlaceholder = "Date not available"

// Card is the presentation-free view model of one event card.
type Card struct {
	Event
	ClientID    string `json:"clientId"`
	DisplayDate string `json:"displayDate"`
	Past        bool   `json:"past"`
	Stars       int    `json:"stars"`
	RatingText  string `json:"ratingText,omitempty"`
}

// DisplayDate formats a DD-MM-YYYY date as "2 January 2024, Tuesday".
func DisplayDate(date string) string {
	d, ok := ParseDate(date)
	if !ok {
		return DatePlaceholder
	}
	return fmt.Sprintf("%d %s %d, %s", d.Day(), d.Month(), d.Year(), d.Weekday())
}

// StarCount rounds an average rating to the number of filled stars (0..5).
func StarCount(avg float64) int {
	n := int(math.Round(avg))
	if n < 0 {
		return 0
	}
	if n > 5 {
		return 5
	}
	return n
}

// NewCard builds the card for ev.  Ratings are only shown on past events.
func NewCard(ev Event, past bool) Card {
	c := Card{
		Event:       ev,
		ClientID:    ClientID(ev),
		DisplayDate: DisplayDate(ev.Date),
		Past:        past,
	}
	if past {
		c.Stars = StarCount(ev.AverageRating)
		c.RatingText = fmt.Sprintf("%.1f / 5", ev.AverageRating)
	}
	return c
}

// Cards maps a listing to view models.
func Cards(events []Event, past bool) []Card {
	out := make([]Card, 0, len(events))
	for _, ev := range events {
		out = append(out, NewCard(ev, past))
	}
	return out
}
