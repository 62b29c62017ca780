// internal/models/models_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBookingStatusCountsTowardCapacity(t *testing.T) {
	assert.True(t, BookingStatusBooked.CountsTowardCapacity())
	assert.True(t, BookingStatusAttended.CountsTowardCapacity())
	assert.False(t, BookingStatusCancelled.CountsTowardCapacity())
	assert.False(t, BookingStatusNoShow.CountsTowardCapacity())
}

func TestMembershipIsActive(t *testing.T) {
	m := &Membership{Status: MembershipStatusActive}
	assert.True(t, m.IsActive())

	for _, status := range []MembershipStatus{
		MembershipStatusPending, MembershipStatusSuspended, MembershipStatusLeft,
	} {
		m.Status = status
		assert.False(t, m.IsActive(), "status %s must not grant standing", status)
	}
}

// The status constants carry the exact column values the store reads and
// writes.
func TestStatusColumnValues(t *testing.T) {
	assert.Equal(t, "booked", string(BookingStatusBooked))
	assert.Equal(t, "attended", string(BookingStatusAttended))
	assert.Equal(t, "active", string(MembershipStatusActive))
	assert.Equal(t, "active", string(SubscriptionStatusActive))
	assert.Equal(t, "cancelled", string(SubscriptionStatusCancelled))
}
