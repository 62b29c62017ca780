// internal/workers/booking/send-booking-confirmation/models.go
package sendbookingconfirmation

import "time"

// Input carries the confirmed booking and the member's contact details.
// At least one of recipientEmail or recipientPhone must be present.
type Input struct {
	UserID          string `json:"userId"`
	VenueName       string `json:"venueName"`
	BookingID       string `json:"bookingId"`
	PlanName        string `json:"planName,omitempty"`
	SessionType     string `json:"sessionType"`
	SessionStartsAt string `json:"sessionStartsAt"`
	RecipientEmail  string `json:"recipientEmail,omitempty"`
	RecipientPhone  string `json:"recipientPhone,omitempty"`
}

// Output reports which channels delivered the confirmation.
type Output struct {
	Success        bool      `json:"success"`
	EmailMessageID string    `json:"emailMessageId,omitempty"`
	SMSMessageID   string    `json:"smsMessageId,omitempty"`
	SentAt         time.Time `json:"sentAt"`
}
