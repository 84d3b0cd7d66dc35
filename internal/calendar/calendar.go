// Package calendar renders events as iCalendar documents so attendees can
// import them into any calendar client.
package calendar

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/iliyamo/eventica/internal/model"
)

const productID = "-//Eventica//Events//EN"

// UID is the stable iCalendar identifier of a stored event.
func UID(e model.Event, domain string) string {
	return fmt.Sprintf("event-%d@%s", e.ID, domain)
}

// Render returns a VCALENDAR with a single all-day VEVENT.  The free-text
// time goes into the description because it is not machine readable.
func Render(e model.Event, domain string, stamp time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	ev := cal.AddEvent(UID(e, domain))
	ev.SetDtStampTime(stamp.UTC())
	ev.SetCreatedTime(e.CreatedAt.UTC())
	ev.SetModifiedAt(e.UpdatedAt.UTC())
	day := e.EventDate.UTC()
	ev.SetAllDayStartAt(day)
	ev.SetAllDayEndAt(day.AddDate(0, 0, 1))
	ev.SetSummary(e.Title)
	ev.SetLocation(e.Location)

	desc := e.Description
	if t := strings.TrimSpace(e.Time); t != "" {
		desc = strings.TrimSpace(desc + "\n\nTime: " + t)
	}
	ev.SetDescription(desc)
	if e.Website != "" {
		ev.SetURL(e.Website)
	}
	if e.OrganizerName != "" {
		ev.SetOrganizer("CN=" + e.OrganizerName)
	}
	return cal.Serialize()
}

// Filename suggests a download name for the event.
func Filename(e model.Event) string {
	var b strings.Builder
	for _, r := range strings.ToLower(e.Title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	name := strings.Trim(b.String(), "-")
	if name == "" {
		name = fmt.Sprintf("event-%d", e.ID)
	}
	return name + ".ics"
}
