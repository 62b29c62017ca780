// internal/workers/booking/check-authorization/models.go
package checkauthorization

// Input identifies the actor, the venue, and the management action being
// attempted. Target fields only apply to view-bookings.
type Input struct {
	ActorID        string `json:"actorId"`
	VenueID        string `json:"venueId"`
	Action         string `json:"action"`
	TargetUserID   string `json:"targetUserId,omitempty"`
	SessionCoachID string `json:"sessionCoachId,omitempty"`
}

// Output is the authorization decision for the process to branch on.
type Output struct {
	Authorized bool   `json:"authorized"`
	Reason     string `json:"reason,omitempty"`
}
