// internal/models/subscription.go
package models

import "time"

// SubscriptionStatus tracks the lifecycle of a plan subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
)

// Subscription ties a venue member to a plan. A user may hold at most one
// active subscription per venue; the admission controller treats the newest
// active row as authoritative rather than assuming storage enforces it.
type Subscription struct {
	ID        string             `json:"id" db:"id"`
	VenueID   string             `json:"venueId" db:"venue_id"`
	UserID    string             `json:"userId" db:"user_id"`
	PlanID    string             `json:"planId" db:"plan_id"`
	Status    SubscriptionStatus `json:"status" db:"status"`
	StartedAt time.Time          `json:"startedAt" db:"started_at"`
}

// Plan is a venue's subscription tier carrying the admission policy.
// Plans referenced by live subscriptions are immutable; edits create new
// plan records.
type Plan struct {
	ID      string `json:"id" db:"id"`
	VenueID string `json:"venueId" db:"venue_id"`
	Name    string `json:"name" db:"name"`
	Active  bool   `json:"active" db:"active"`
	Policy  Policy `json:"policy" db:"policy"`
}

// Policy is the declarative admission constraint set attached to a plan.
// Every field is independently optional; a nil field means that dimension
// is unconstrained. Constraints are AND-combined.
type Policy struct {
	MaxBookingsPerDay  *int `json:"maxBookingsPerDay,omitempty"`
	MaxBookingsPerWeek *int `json:"maxBookingsPerWeek,omitempty"`
	MaxActiveBookings  *int `json:"maxActiveBookings,omitempty"`

	// Inclusive local time-of-day bounds in zero-padded 24h "HH:mm" form.
	AllowedStartTimeFrom *string `json:"allowedStartTimeFrom,omitempty"`
	AllowedStartTimeTo   *string `json:"allowedStartTimeTo,omitempty"`

	// Weekdays 0-6, 0 = Sunday. Empty means unconstrained.
	AllowedWeekdays []int `json:"allowedWeekdays,omitempty"`

	// Session types the plan covers. Empty means unconstrained.
	AllowedServiceTypes []string `json:"allowedServiceTypes,omitempty"`
}

// IsUnconstrained reports whether the policy imposes no constraints at all.
func (p Policy) IsUnconstrained() bool {
	return p.MaxBookingsPerDay == nil &&
		p.MaxBookingsPerWeek == nil &&
		p.MaxActiveBookings == nil &&
		p.AllowedStartTimeFrom == nil &&
		p.AllowedStartTimeTo == nil &&
		len(p.AllowedWeekdays) == 0 &&
		len(p.AllowedServiceTypes) == 0
}
