// internal/booking/admission/controller.go
package admission

import (
	"context"
	"errors"
	"time"

	"venue-booking-workers/internal/booking/eligibility"
	standarderrors "venue-booking-workers/internal/common/errors"
	"venue-booking-workers/internal/common/logger"
	"venue-booking-workers/internal/common/metrics"
	"venue-booking-workers/internal/models"
)

// Sentinel conflict errors a Store must return from CreateBooking. Anything
// else coming out of the store is treated as an infrastructure failure.
var (
	// ErrDuplicateBooking reports an existing active booking for the same
	// (session, user) pair.
	ErrDuplicateBooking = errors.New("booking already exists for session and user")
	// ErrSessionFull reports that the conditional insert found the session
	// at capacity.
	ErrSessionFull = errors.New("session is at capacity")
)

// Store is the storage collaborator the controller orchestrates. Fetch
// methods return (nil, nil) for missing rows. CreateBooking must be
// conditionally atomic: it fails with ErrSessionFull instead of exceeding
// capacity and with ErrDuplicateBooking instead of inserting a second
// active row for the pair.
type Store interface {
	FetchMembership(ctx context.Context, venueID, userID string) (*models.Membership, error)
	FetchActiveSubscription(ctx context.Context, venueID, userID string) (*models.Subscription, *models.Plan, error)
	FetchSession(ctx context.Context, sessionID string) (*models.Session, int, error)
	FetchBooking(ctx context.Context, sessionID, userID string) (*models.Booking, error)
	CountBookingsInRange(ctx context.Context, venueID, userID string, from, to time.Time) (int, error)
	CountActiveBookings(ctx context.Context, venueID, userID string, after time.Time) (int, error)
	CreateBooking(ctx context.Context, sessionID, userID string) (*models.Booking, error)
}

// Result is the outcome of a booking request. Reason is set only on
// denials; plan and session context accompany an admitted booking so the
// caller can build confirmation messaging without further reads.
type Result struct {
	Allowed   bool   `json:"allowed"`
	BookingID string `json:"bookingId,omitempty"`
	Reason    string `json:"reason,omitempty"`

	PlanID          string     `json:"planId,omitempty"`
	PlanName        string     `json:"planName,omitempty"`
	SessionType     string     `json:"sessionType,omitempty"`
	SessionStartsAt *time.Time `json:"sessionStartsAt,omitempty"`
}

// Controller runs the admission decision and owns the one write path that
// may grow a session's booking count.
type Controller struct {
	store  Store
	logger logger.Logger
}

func NewController(store Store, log logger.Logger) *Controller {
	return &Controller{store: store, logger: log}
}

// RequestBooking decides and, when allowed, commits a booking for the user
// on the session. Denials come back inside Result; a non-nil error always
// means the repository failed.
func (c *Controller) RequestBooking(ctx context.Context, userID, venueID, sessionID string) (*Result, error) {
	snapshot, err := c.buildSnapshot(ctx, userID, venueID, sessionID)
	if err != nil {
		return nil, err
	}

	verdict := eligibility.Evaluate(snapshot)
	if !verdict.Allowed {
		c.logger.Info("booking denied", map[string]interface{}{
			"user_id":    userID,
			"venue_id":   venueID,
			"session_id": sessionID,
			"reason":     string(verdict.Reason),
		})
		return c.denialResult(snapshot, string(verdict.Reason)), nil
	}

	booking, err := c.store.CreateBooking(ctx, sessionID, userID)
	if err == nil {
		return c.admittedResult(snapshot, booking), nil
	}
	if !isConflict(err) {
		return nil, standarderrors.NewBookingInsertFailedError(err)
	}

	// Write-time race. Re-read, re-evaluate once, and try the insert one
	// more time; a second conflict resolves to the matching denial.
	metrics.BookingConflictRetries.Inc()
	c.logger.Warn("booking write conflict, re-evaluating", map[string]interface{}{
		"user_id":    userID,
		"session_id": sessionID,
	})
	snapshot, err = c.buildSnapshot(ctx, userID, venueID, sessionID)
	if err != nil {
		return nil, err
	}
	verdict = eligibility.Evaluate(snapshot)
	if !verdict.Allowed {
		return c.denialResult(snapshot, string(verdict.Reason)), nil
	}
	booking, err = c.store.CreateBooking(ctx, sessionID, userID)
	if err == nil {
		return c.admittedResult(snapshot, booking), nil
	}
	if isConflict(err) {
		return c.denialResult(snapshot, conflictReason(err)), nil
	}
	return nil, standarderrors.NewBookingInsertFailedError(err)
}

func isConflict(err error) bool {
	return errors.Is(err, ErrDuplicateBooking) || errors.Is(err, ErrSessionFull)
}

func conflictReason(err error) string {
	if errors.Is(err, ErrDuplicateBooking) {
		return string(standarderrors.ErrCodeAlreadyBooked)
	}
	return string(standarderrors.ErrCodeSessionFull)
}

// buildSnapshot performs every read the evaluator needs. Quota counts are
// fetched only when the policy constrains the matching dimension so the
// common unconstrained case stays at four reads.
func (c *Controller) buildSnapshot(ctx context.Context, userID, venueID, sessionID string) (*eligibility.Snapshot, error) {
	membership, err := c.store.FetchMembership(ctx, venueID, userID)
	if err != nil {
		return nil, readError("fetch membership", err)
	}
	subscription, plan, err := c.store.FetchActiveSubscription(ctx, venueID, userID)
	if err != nil {
		return nil, readError("fetch subscription", err)
	}
	session, bookedCount, err := c.store.FetchSession(ctx, sessionID)
	if err != nil {
		return nil, readError("fetch session", err)
	}
	// A session at another venue is invisible to this request; admitting it
	// would apply this venue's membership and policy to a foreign session.
	if session != nil && session.VenueID != venueID {
		session = nil
		bookedCount = 0
	}

	snapshot := &eligibility.Snapshot{
		Membership:         membership,
		Subscription:       subscription,
		Plan:               plan,
		Session:            session,
		SessionBookedCount: bookedCount,
	}
	if session == nil {
		return snapshot, nil
	}

	existing, err := c.store.FetchBooking(ctx, sessionID, userID)
	if err != nil {
		return nil, readError("fetch booking", err)
	}
	snapshot.ExistingBooking = existing

	if plan == nil {
		return snapshot, nil
	}
	policy := plan.Policy
	localStart := session.LocalStart()

	if policy.MaxBookingsPerDay != nil {
		from, to := dayBounds(localStart)
		count, err := c.store.CountBookingsInRange(ctx, venueID, userID, from, to)
		if err != nil {
			return nil, readError("count daily bookings", err)
		}
		snapshot.SameDayCount = count
	}
	if policy.MaxBookingsPerWeek != nil {
		from, to := weekBounds(localStart)
		count, err := c.store.CountBookingsInRange(ctx, venueID, userID, from, to)
		if err != nil {
			return nil, readError("count weekly bookings", err)
		}
		snapshot.SameWeekCount = count
	}
	if policy.MaxActiveBookings != nil {
		count, err := c.store.CountActiveBookings(ctx, venueID, userID, time.Now())
		if err != nil {
			return nil, readError("count active bookings", err)
		}
		snapshot.FutureBookedCount = count
	}
	return snapshot, nil
}

// readError classifies a snapshot-read failure for the retry policy: timed
// out reads carry QUERY_TIMEOUT, everything else QUERY_EXECUTION_FAILED.
func readError(operation string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return standarderrors.NewQueryTimeoutError(operation)
	}
	return standarderrors.NewQueryExecutionFailedError(operation, err)
}

// dayBounds returns the half-open local calendar day containing t.
func dayBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}

// weekBounds returns the half-open ISO week containing t, Monday start.
func weekBounds(t time.Time) (time.Time, time.Time) {
	daysSinceMonday := (int(t.Weekday()) + 6) % 7
	monday := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()).
		AddDate(0, 0, -daysSinceMonday)
	return monday, monday.AddDate(0, 0, 7)
}

func (c *Controller) denialResult(snapshot *eligibility.Snapshot, reason string) *Result {
	result := &Result{Allowed: false, Reason: reason}
	c.attachContext(result, snapshot)
	return result
}

func (c *Controller) admittedResult(snapshot *eligibility.Snapshot, booking *models.Booking) *Result {
	result := &Result{Allowed: true, BookingID: booking.ID}
	c.attachContext(result, snapshot)
	return result
}

func (c *Controller) attachContext(result *Result, snapshot *eligibility.Snapshot) {
	if snapshot.Plan != nil {
		result.PlanID = snapshot.Plan.ID
		result.PlanName = snapshot.Plan.Name
	}
	if snapshot.Session != nil {
		result.SessionType = snapshot.Session.Type
		starts := snapshot.Session.StartsAt
		result.SessionStartsAt = &starts
	}
}
