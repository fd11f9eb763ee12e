// Package calendar renders meetings as an iCalendar feed.
package calendar

import (
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/emersion/go-ical"
)

const productID = "-//ai-secretary//meetings//EN"

// Event is one calendar entry.
type Event struct {
	UID         string
	Summary     string
	Description string
	Location    string
	URL         string
	Start       time.Time
	End         time.Time
	Cancelled   bool
}

// WriteCalendar encodes events as a VCALENDAR named name. stamp becomes the
// DTSTAMP of every event. All times are written in UTC.
func WriteCalendar(w io.Writer, name string, events []Event, stamp time.Time) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	cal.Props.SetText(ical.PropCalendarScale, "GREGORIAN")
	cal.Props.SetText(ical.PropMethod, "PUBLISH")
	if name != "" {
		cal.Props.SetText("X-WR-CALNAME", name)
	}

	for _, e := range events {
		if e.UID == "" {
			return fmt.Errorf("calendar: event %q has no uid", e.Summary)
		}
		event := ical.NewEvent()
		event.Props.SetText(ical.PropUID, e.UID)
		event.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
		event.Props.SetDateTime(ical.PropDateTimeStart, e.Start.UTC())
		event.Props.SetDateTime(ical.PropDateTimeEnd, e.End.UTC())
		event.Props.SetText(ical.PropSummary, e.Summary)
		if e.Description != "" {
			event.Props.SetText(ical.PropDescription, e.Description)
		}
		if e.Location != "" {
			event.Props.SetText(ical.PropLocation, e.Location)
		}
		if e.URL != "" {
			u, err := url.Parse(e.URL)
			if err != nil {
				return fmt.Errorf("calendar: event %s url: %w", e.UID, err)
			}
			event.Props.SetURI(ical.PropURL, u)
		}
		status := ical.EventConfirmed
		if e.Cancelled {
			status = ical.EventCancelled
		}
		event.Props.SetText(ical.PropStatus, string(status))
		cal.Children = append(cal.Children, event.Component)
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("calendar: encode: %w", err)
	}
	return nil
}
