// internal/models/membership.go
package models

import "time"

// Role is a user's position within one venue. Roles are totally ordered;
// the ordering itself lives in the roles package.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleCoach  Role = "coach"
	RoleClient Role = "client"
)

// MembershipStatus gates every authorization and eligibility check.
type MembershipStatus string

const (
	MembershipStatusActive    MembershipStatus = "active"
	MembershipStatusPending   MembershipStatus = "pending"
	MembershipStatusSuspended MembershipStatus = "suspended"
	MembershipStatusLeft      MembershipStatus = "left"
)

// Membership is a user's standing within one venue. Unique per
// (venue, user).
type Membership struct {
	VenueID   string           `json:"venueId" db:"venue_id"`
	UserID    string           `json:"userId" db:"user_id"`
	Role      Role             `json:"role" db:"role"`
	Status    MembershipStatus `json:"status" db:"status"`
	CreatedAt time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time        `json:"updatedAt" db:"updated_at"`
}

// IsActive reports whether the membership currently grants standing.
func (m *Membership) IsActive() bool {
	return m.Status == MembershipStatusActive
}
