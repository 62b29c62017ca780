// internal/booking/authz/authz.go
package authz

import (
	"context"

	"venue-booking-workers/internal/booking/roles"
	standarderrors "venue-booking-workers/internal/common/errors"
	"venue-booking-workers/internal/models"
)

// Actions accepted by Check.
const (
	ActionManageVenue    = "manage-venue"
	ActionManageSessions = "manage-sessions"
	ActionViewBookings   = "view-bookings"
)

// Decision is the structured answer to an authorization question. Reason is
// empty when Authorized is true.
type Decision struct {
	Authorized bool                     `json:"authorized"`
	Reason     standarderrors.ErrorCode `json:"reason,omitempty"`
}

func allow() Decision {
	return Decision{Authorized: true}
}

func deny(reason standarderrors.ErrorCode) Decision {
	return Decision{Authorized: false, Reason: reason}
}

// ViewTarget scopes a view-bookings question. Both fields are optional.
type ViewTarget struct {
	// TargetUserID is the user whose bookings are being viewed.
	TargetUserID string
	// SessionCoachID is the coach assigned to the session under view.
	SessionCoachID string
}

// Service answers management-permission questions over resolved roles. It
// performs no writes and is safe for concurrent use.
type Service struct {
	resolver *roles.Resolver
}

func NewService(resolver *roles.Resolver) *Service {
	return &Service{resolver: resolver}
}

// CanManageVenue requires an active role of admin or above.
func (s *Service) CanManageVenue(ctx context.Context, actorID, venueID string) (Decision, error) {
	return s.requireRole(ctx, actorID, venueID, models.RoleAdmin)
}

// CanManageSessions requires an active role of coach or above.
func (s *Service) CanManageSessions(ctx context.Context, actorID, venueID string) (Decision, error) {
	return s.requireRole(ctx, actorID, venueID, models.RoleCoach)
}

// CanViewBookings applies the visibility matrix: owners and admins see
// everything, coaches see sessions they run, and every member sees their own
// bookings.
func (s *Service) CanViewBookings(ctx context.Context, actorID, venueID string, target ViewTarget) (Decision, error) {
	role, ok, err := s.resolver.Resolve(ctx, actorID, venueID)
	if err != nil {
		return Decision{}, err
	}
	if !ok {
		return deny(standarderrors.ErrCodeNotAMember), nil
	}
	if roles.AtLeast(role, models.RoleAdmin) {
		return allow(), nil
	}
	if target.TargetUserID != "" && target.TargetUserID == actorID {
		return allow(), nil
	}
	if role == models.RoleCoach && target.SessionCoachID != "" && target.SessionCoachID == actorID {
		return allow(), nil
	}
	return deny(standarderrors.ErrCodeInsufficientPermission), nil
}

// Check dispatches a named action to the matching predicate. Unknown actions
// deny with INSUFFICIENT_PERMISSIONS rather than authorize by accident.
func (s *Service) Check(ctx context.Context, action, actorID, venueID string, target ViewTarget) (Decision, error) {
	switch action {
	case ActionManageVenue:
		return s.CanManageVenue(ctx, actorID, venueID)
	case ActionManageSessions:
		return s.CanManageSessions(ctx, actorID, venueID)
	case ActionViewBookings:
		return s.CanViewBookings(ctx, actorID, venueID, target)
	default:
		return deny(standarderrors.ErrCodeInsufficientPermission), nil
	}
}

func (s *Service) requireRole(ctx context.Context, actorID, venueID string, min models.Role) (Decision, error) {
	role, ok, err := s.resolver.Resolve(ctx, actorID, venueID)
	if err != nil {
		return Decision{}, err
	}
	if !ok {
		return deny(standarderrors.ErrCodeNotAMember), nil
	}
	if !roles.AtLeast(role, min) {
		return deny(standarderrors.ErrCodeInsufficientPermission), nil
	}
	return allow(), nil
}
