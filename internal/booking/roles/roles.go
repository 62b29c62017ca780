// internal/booking/roles/roles.go
package roles

import (
	"context"

	"venue-booking-workers/internal/models"
)

// roleRank is the fixed total order over venue roles. Owner outranks
// every role; a comparison is a single table lookup.
var roleRank = map[models.Role]int{
	models.RoleOwner:  4,
	models.RoleAdmin:  3,
	models.RoleCoach:  2,
	models.RoleClient: 1,
}

// Rank returns the numeric rank of a role, 0 for unknown roles.
func Rank(role models.Role) int {
	return roleRank[role]
}

// AtLeast reports whether role is equal to or above min in the hierarchy.
// Unknown roles never satisfy any requirement.
func AtLeast(role, min models.Role) bool {
	r, m := roleRank[role], roleRank[min]
	return r > 0 && m > 0 && r >= m
}

// MembershipSource is the read the resolver needs. Implementations return
// (nil, nil) when no membership row exists; a non-nil error always means a
// repository failure, never "no role".
type MembershipSource interface {
	FetchMembership(ctx context.Context, venueID, userID string) (*models.Membership, error)
}

// Resolver maps a (user, venue) pair to its active role. Read-only.
type Resolver struct {
	src MembershipSource
}

func NewResolver(src MembershipSource) *Resolver {
	return &Resolver{src: src}
}

// Resolve returns the member's role and true, or false when no membership
// row exists or the membership is not active.
func (r *Resolver) Resolve(ctx context.Context, userID, venueID string) (models.Role, bool, error) {
	membership, err := r.src.FetchMembership(ctx, venueID, userID)
	if err != nil {
		return "", false, err
	}
	if membership == nil || !membership.IsActive() {
		return "", false, nil
	}
	return membership.Role, true, nil
}

// RoleAtLeast reports whether the user holds an active role at or above min.
func (r *Resolver) RoleAtLeast(ctx context.Context, userID, venueID string, min models.Role) (bool, error) {
	role, ok, err := r.Resolve(ctx, userID, venueID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	return AtLeast(role, min), nil
}
