// internal/models/booking.go
package models

import "time"

// BookingStatus tracks a booking's lifecycle. Only Booked and Attended
// count toward session capacity and policy quotas.
type BookingStatus string

const (
	BookingStatusBooked    BookingStatus = "booked"
	BookingStatusAttended  BookingStatus = "attended"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusNoShow    BookingStatus = "no_show"
)

// CountsTowardCapacity reports whether the status consumes a seat.
func (s BookingStatus) CountsTowardCapacity() bool {
	return s == BookingStatusBooked || s == BookingStatusAttended
}

// Booking is a user's claim on a session. At most one Booked/Attended row
// exists per (session, user).
type Booking struct {
	ID        string        `json:"id" db:"id"`
	SessionID string        `json:"sessionId" db:"session_id"`
	UserID    string        `json:"userId" db:"user_id"`
	Status    BookingStatus `json:"status" db:"status"`
	CreatedAt time.Time     `json:"createdAt" db:"created_at"`
}
