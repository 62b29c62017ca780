// internal/workers/booking/request-booking/models.go
package requestbooking

// Input is the booking request extracted from process variables.
type Input struct {
	UserID    string `json:"userId"`
	VenueID   string `json:"venueId"`
	SessionID string `json:"sessionId"`
}

// Output carries the admission verdict back into the process. Plan and
// session context is echoed for confirmation messaging downstream.
type Output struct {
	Allowed         bool   `json:"allowed"`
	BookingID       string `json:"bookingId,omitempty"`
	Reason          string `json:"reason,omitempty"`
	Message         string `json:"message,omitempty"`
	PlanID          string `json:"planId,omitempty"`
	PlanName        string `json:"planName,omitempty"`
	SessionType     string `json:"sessionType,omitempty"`
	SessionStartsAt string `json:"sessionStartsAt,omitempty"`
}
