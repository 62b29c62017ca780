// internal/booking/eligibility/snapshot.go
package eligibility

import (
	"venue-booking-workers/internal/models"
)

// Snapshot carries everything the evaluator needs, pre-fetched by the
// admission controller. Nil pointers mean the row does not exist. The
// evaluator itself never touches storage.
type Snapshot struct {
	Membership   *models.Membership
	Subscription *models.Subscription
	Plan         *models.Plan
	Session      *models.Session

	// ExistingBooking is the requester's booking row for this session,
	// regardless of status, or nil.
	ExistingBooking *models.Booking

	// SessionBookedCount is the session's current count of bookings in a
	// capacity-consuming status.
	SessionBookedCount int

	// SameDayCount and SameWeekCount are the requester's capacity-consuming
	// bookings in the session's local calendar day and ISO week.
	SameDayCount  int
	SameWeekCount int

	// FutureBookedCount is the requester's booked sessions whose start lies
	// after the moment the snapshot was assembled.
	FutureBookedCount int
}

// policy returns the plan's admission policy, or nil when no plan is
// attached. A nil policy is unconstrained on every dimension.
func (s *Snapshot) policy() *models.Policy {
	if s.Plan == nil {
		return nil
	}
	return &s.Plan.Policy
}
