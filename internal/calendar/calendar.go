// Package calendar exports occurrences as an iCalendar feed.
package calendar

import (
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"EventRadar/internal/domain"
)

// EventDuration is the nominal length given to every exported occurrence.
const EventDuration = 30 * time.Minute

// Export renders occs as a VCALENDAR; now stamps every VEVENT.
func Export(occs []domain.Occurrence, now time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//EventRadar//Macro Events//EN")
	cal.SetName("EventRadar")

	for _, occ := range occs {
		ev := cal.AddEvent(occ.ID)
		ev.SetDtStampTime(now.UTC())
		ev.SetStartAt(occ.Start.UTC())
		ev.SetEndAt(occ.Start.UTC().Add(EventDuration))
		ev.SetSummary("[" + strings.ToUpper(string(occ.Category)) + "] " + occ.Title)
		if occ.URL != "" {
			ev.SetURL(occ.URL)
		}
		if loc := location(occ); loc != "" {
			ev.SetLocation(loc)
		}
		if occ.Actor != "" {
			ev.SetDescription(occ.Actor)
		}
	}
	return cal.Serialize()
}

func location(occ domain.Occurrence) string {
	if occ.Place != "" {
		return occ.Place
	}
	return occ.Actor
}
