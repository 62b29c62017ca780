// internal/models/session.go
package models

import "time"

// Session types mirror how venues sell time: shared classes with a seat
// count and one-on-one appointments without one.
const (
	SessionTypeClass       = "class"
	SessionTypeAppointment = "appointment"
)

// Session is a single bookable time-slot at a venue.
type Session struct {
	ID       string    `json:"id" db:"id"`
	VenueID  string    `json:"venueId" db:"venue_id"`
	CoachID  string    `json:"coachId" db:"coach_id"`
	Type     string    `json:"type" db:"type"`
	StartsAt time.Time `json:"startsAt" db:"starts_at"`

	// Timezone is the venue's IANA zone. Policy windows, weekday sets, and
	// quota days/weeks are all evaluated in it.
	Timezone string `json:"timezone" db:"timezone"`

	// Capacity is nil for unbounded sessions (e.g., appointments modeled
	// without shared capacity).
	Capacity *int `json:"capacity,omitempty" db:"capacity"`
}

// Location resolves the session's zone, falling back to UTC when the row
// carries none or the name does not resolve.
func (s *Session) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LocalStart is the session start in venue-local time.
func (s *Session) LocalStart() time.Time {
	return s.StartsAt.In(s.Location())
}
