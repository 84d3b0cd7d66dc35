// Package catalog turns a flat list of events into the past and upcoming
// listings shown to visitors.  Everything here is pure: no storage, no HTTP,
// so the partition and filter rules can be tested without a browser or DB.
package catalog

import (
	"sort"
	"strings"
	"time"
)

// DateLayout is the day-month-year format used by the static event list and
// by the date strings exchanged with clients.
const DateLayout = "02-01-2006"

// parseLayout accepts both "05-03-2024" and "5-3-2024".
const parseLayout = "2-1-2006"

// Event is a single listing as consumed by the catalog pipeline.  ID is the
// durable identity assigned by the store; zero means the event only exists in
// the static list and is identified by its Fingerprint instead.
type Event struct {
	ID            uint64  `json:"_id,omitempty"`
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Date          string  `json:"date"`
	Time          string  `json:"time"`
	Location      string  `json:"location"`
	Image         string  `json:"image"`
	Website       string  `json:"website,omitempty"`
	AverageRating float64 `json:"averageRating"`
	ReviewCount   int     `json:"reviewCount"`
}

// Partition holds the two ordered listings produced by Split.
type Partition struct {
	Upcoming []Event `json:"upcoming"`
	Past     []Event `json:"past"`
}

// Filter narrows the past listing.  Zero values mean "no constraint".
// From and To are inclusive and compared at day granularity.
type Filter struct {
	Location string
	From     *time.Time
	To       *time.Time
	Query    string
}

// ParseDate parses a DD-MM-YYYY string into UTC midnight of that day.  The
// second return value is false when the string is not a real calendar date
// (e.g. "31-02-2024" or "soon").
func ParseDate(s string) (time.Time, bool) {
	t, err := time.Parse(parseLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// Today truncates now to the UTC calendar day.
func Today(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IsPast reports whether the event date is strictly before today.  ok is
// false when the date cannot be parsed.
func IsPast(today time.Time, date string) (past bool, ok bool) {
	d, ok := ParseDate(date)
	if !ok {
		return false, false
	}
	return d.Before(Today(today)), true
}

// Split partitions events into upcoming (ascending by date) and past
// (descending by date).  Events with an unparseable date cannot be placed in
// time; they go to the end of the upcoming listing in their input order.
func Split(today time.Time, events []Event) Partition {
	var (
		upcoming []dated
		undated  []Event
		past     []dated
	)
	day := Today(today)
	for _, ev := range events {
		d, ok := ParseDate(ev.Date)
		switch {
		case !ok:
			undated = append(undated, ev)
		case d.Before(day):
			past = append(past, dated{ev: ev, at: d})
		default:
			upcoming = append(upcoming, dated{ev: ev, at: d})
		}
	}
	sort.SliceStable(upcoming, func(i, j int) bool { return upcoming[i].at.Before(upcoming[j].at) })
	sort.SliceStable(past, func(i, j int) bool { return past[i].at.After(past[j].at) })

	out := Partition{
		Upcoming: make([]Event, 0, len(upcoming)+len(undated)),
		Past:     make([]Event, 0, len(past)),
	}
	for _, d := range upcoming {
		out.Upcoming = append(out.Upcoming, d.ev)
	}
	out.Upcoming = append(out.Upcoming, undated...)
	for _, d := range past {
		out.Past = append(out.Past, d.ev)
	}
	return out
}

type dated struct {
	ev Event
	at time.Time
}

// FilterPast applies f to the full past listing and returns the matching
// events in their original order.  It never mutates its input, so each call
// starts again from the complete set.
func FilterPast(past []Event, f Filter) []Event {
	loc := strings.ToLower(strings.TrimSpace(f.Location))
	query := strings.ToLower(strings.TrimSpace(f.Query))
	var from, to time.Time
	if f.From != nil {
		from = Today(*f.From)
	}
	if f.To != nil {
		to = Today(*f.To)
	}

	out := make([]Event, 0, len(past))
	for _, ev := range past {
		if f.From != nil || f.To != nil {
			d, ok := ParseDate(ev.Date)
			if !ok {
				continue
			}
			if f.From != nil && d.Before(from) {
				continue
			}
			if f.To != nil && d.After(to) {
				continue
			}
		}
		if loc != "" && !strings.Contains(strings.ToLower(ev.Location), loc) {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(ev.Title), query) &&
			!strings.Contains(strings.ToLower(ev.Description), query) {
			continue
		}
		out = append(out, ev)
	}
	return out
}

// Locations returns the distinct non-empty locations of events in first-seen
// order.  It feeds the location selector on the past events page.
func Locations(events []Event) []string {
	seen := make(map[string]bool, len(events))
	out := make([]string, 0, len(events))
	for _, ev := range events {
		l := strings.TrimSpace(ev.Location)
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}
