// internal/booking/eligibility/evaluate.go
package eligibility

import (
	standarderrors "venue-booking-workers/internal/common/errors"
	"venue-booking-workers/internal/models"
)

// Verdict is the evaluator's answer. A denied verdict carries exactly one
// reason, the first failing check in evaluation order.
type Verdict struct {
	Allowed bool
	Reason  standarderrors.ErrorCode
}

func allowed() Verdict {
	return Verdict{Allowed: true}
}

func denied(reason standarderrors.ErrorCode) Verdict {
	return Verdict{Allowed: false, Reason: reason}
}

// check is one admission predicate. It returns an empty code when the
// snapshot passes.
type check func(*Snapshot) standarderrors.ErrorCode

// checkOrder fixes the evaluation sequence. The first failing entry decides
// the verdict, so reordering changes observable behavior.
var checkOrder = []check{
	checkMembershipExists,
	checkMembershipActive,
	checkActiveSubscription,
	checkSessionExists,
	checkNotAlreadyBooked,
	checkCapacity,
	checkServiceType,
	checkTimeWindow,
	checkWeekday,
	checkDailyQuota,
	checkWeeklyQuota,
	checkActiveQuota,
}

// Evaluate runs every admission check in order and returns the first
// failure, or an allowed verdict when all pass. Pure function of the
// snapshot, no I/O.
func Evaluate(snapshot *Snapshot) Verdict {
	for _, chk := range checkOrder {
		if reason := chk(snapshot); reason != "" {
			return denied(reason)
		}
	}
	return allowed()
}

func checkMembershipExists(s *Snapshot) standarderrors.ErrorCode {
	if s.Membership == nil {
		return standarderrors.ErrCodeNotAMember
	}
	return ""
}

func checkMembershipActive(s *Snapshot) standarderrors.ErrorCode {
	if !s.Membership.IsActive() {
		return standarderrors.ErrCodeMemberNotActive
	}
	return ""
}

func checkActiveSubscription(s *Snapshot) standarderrors.ErrorCode {
	if s.Subscription == nil || s.Subscription.Status != models.SubscriptionStatusActive {
		return standarderrors.ErrCodeNoActiveSubscription
	}
	return ""
}

func checkSessionExists(s *Snapshot) standarderrors.ErrorCode {
	if s.Session == nil {
		return standarderrors.ErrCodeSessionNotFound
	}
	return ""
}

func checkNotAlreadyBooked(s *Snapshot) standarderrors.ErrorCode {
	if s.ExistingBooking != nil && s.ExistingBooking.Status == models.BookingStatusBooked {
		return standarderrors.ErrCodeAlreadyBooked
	}
	return ""
}

func checkCapacity(s *Snapshot) standarderrors.ErrorCode {
	if s.Session.Capacity != nil && s.SessionBookedCount >= *s.Session.Capacity {
		return standarderrors.ErrCodeSessionFull
	}
	return ""
}

func checkServiceType(s *Snapshot) standarderrors.ErrorCode {
	policy := s.policy()
	if policy == nil || len(policy.AllowedServiceTypes) == 0 {
		return ""
	}
	for _, t := range policy.AllowedServiceTypes {
		if t == s.Session.Type {
			return ""
		}
	}
	return standarderrors.ErrCodeServiceTypeNotAllowed
}

// checkTimeWindow compares zero-padded "HH:mm" strings. Lexicographic order
// matches chronological order for that format, both bounds inclusive.
func checkTimeWindow(s *Snapshot) standarderrors.ErrorCode {
	policy := s.policy()
	if policy == nil {
		return ""
	}
	startOfDay := s.Session.LocalStart().Format("15:04")
	if policy.AllowedStartTimeFrom != nil && startOfDay < *policy.AllowedStartTimeFrom {
		return standarderrors.ErrCodeOutsideTimeWindow
	}
	if policy.AllowedStartTimeTo != nil && startOfDay > *policy.AllowedStartTimeTo {
		return standarderrors.ErrCodeOutsideTimeWindow
	}
	return ""
}

// checkWeekday uses the session's local weekday with 0 meaning Sunday, the
// same numbering time.Weekday uses.
func checkWeekday(s *Snapshot) standarderrors.ErrorCode {
	policy := s.policy()
	if policy == nil || len(policy.AllowedWeekdays) == 0 {
		return ""
	}
	weekday := int(s.Session.LocalStart().Weekday())
	for _, d := range policy.AllowedWeekdays {
		if d == weekday {
			return ""
		}
	}
	return standarderrors.ErrCodeWeekdayNotAllowed
}

func checkDailyQuota(s *Snapshot) standarderrors.ErrorCode {
	policy := s.policy()
	if policy == nil || policy.MaxBookingsPerDay == nil {
		return ""
	}
	if s.SameDayCount >= *policy.MaxBookingsPerDay {
		return standarderrors.ErrCodeMaxBookingsPerDay
	}
	return ""
}

func checkWeeklyQuota(s *Snapshot) standarderrors.ErrorCode {
	policy := s.policy()
	if policy == nil || policy.MaxBookingsPerWeek == nil {
		return ""
	}
	if s.SameWeekCount >= *policy.MaxBookingsPerWeek {
		return standarderrors.ErrCodeMaxBookingsPerWeek
	}
	return ""
}

func checkActiveQuota(s *Snapshot) standarderrors.ErrorCode {
	policy := s.policy()
	if policy == nil || policy.MaxActiveBookings == nil {
		return ""
	}
	if s.FutureBookedCount >= *policy.MaxActiveBookings {
		return standarderrors.ErrCodeMaxActiveBookings
	}
	return ""
}
