// internal/booking/storage/postgres.go
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"venue-booking-workers/internal/booking/admission"
	"venue-booking-workers/internal/common/logger"
	"venue-booking-workers/internal/models"
)

// uniqueViolation is the PostgreSQL class 23 code raised by the partial
// unique index on (session_id, user_id) for active bookings.
const uniqueViolation = pq.ErrorCode("23505")

// PostgresStore implements admission.Store on PostgreSQL. The booking
// write locks the session row before counting seats, so capacity and
// uniqueness are enforced by the database, not by in-process evaluation.
type PostgresStore struct {
	db              *sql.DB
	logger          logger.Logger
	defaultTimezone string
}

func NewPostgresStore(db *sql.DB, log logger.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: log, defaultTimezone: "UTC"}
}

// WithDefaultTimezone sets the IANA zone assumed for session rows that
// carry no timezone of their own.
func (s *PostgresStore) WithDefaultTimezone(tz string) *PostgresStore {
	if tz != "" {
		s.defaultTimezone = tz
	}
	return s
}

func (s *PostgresStore) FetchMembership(ctx context.Context, venueID, userID string) (*models.Membership, error) {
	const query = `
		SELECT venue_id, user_id, role, status
		FROM memberships
		WHERE venue_id = $1 AND user_id = $2`

	var m models.Membership
	err := s.db.QueryRowContext(ctx, query, venueID, userID).
		Scan(&m.VenueID, &m.UserID, &m.Role, &m.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch membership: %w", err)
	}
	return &m, nil
}

// FetchActiveSubscription returns the newest active subscription for the
// pair together with its plan. The plan's policy column is JSONB.
func (s *PostgresStore) FetchActiveSubscription(ctx context.Context, venueID, userID string) (*models.Subscription, *models.Plan, error) {
	const query = `
		SELECT sub.id, sub.venue_id, sub.user_id, sub.plan_id, sub.status, sub.started_at,
		       p.id, p.venue_id, p.name, p.active, p.policy
		FROM subscriptions sub
		JOIN plans p ON p.id = sub.plan_id
		WHERE sub.venue_id = $1 AND sub.user_id = $2 AND sub.status = 'active'
		ORDER BY sub.started_at DESC
		LIMIT 1`

	var (
		sub       models.Subscription
		plan      models.Plan
		policyRaw []byte
	)
	err := s.db.QueryRowContext(ctx, query, venueID, userID).Scan(
		&sub.ID, &sub.VenueID, &sub.UserID, &sub.PlanID, &sub.Status, &sub.StartedAt,
		&plan.ID, &plan.VenueID, &plan.Name, &plan.Active, &policyRaw,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("fetch subscription: %w", err)
	}
	if len(policyRaw) > 0 {
		if err := json.Unmarshal(policyRaw, &plan.Policy); err != nil {
			return nil, nil, fmt.Errorf("decode plan policy: %w", err)
		}
	}
	return &sub, &plan, nil
}

// FetchSession returns the session and its current count of bookings in a
// capacity-consuming status.
func (s *PostgresStore) FetchSession(ctx context.Context, sessionID string) (*models.Session, int, error) {
	const query = `
		SELECT s.id, s.venue_id, s.coach_id, s.type, s.starts_at, s.timezone, s.capacity,
		       (SELECT COUNT(*) FROM bookings b
		        WHERE b.session_id = s.id AND b.status IN ('booked', 'attended'))
		FROM sessions s
		WHERE s.id = $1`

	var (
		session models.Session
		count   int
	)
	err := s.db.QueryRowContext(ctx, query, sessionID).Scan(
		&session.ID, &session.VenueID, &session.CoachID, &session.Type,
		&session.StartsAt, &session.Timezone, &session.Capacity, &count,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("fetch session: %w", err)
	}
	if session.Timezone == "" {
		session.Timezone = s.defaultTimezone
	}
	return &session, count, nil
}

func (s *PostgresStore) FetchBooking(ctx context.Context, sessionID, userID string) (*models.Booking, error) {
	const query = `
		SELECT id, session_id, user_id, status, created_at
		FROM bookings
		WHERE session_id = $1 AND user_id = $2
		ORDER BY created_at DESC
		LIMIT 1`

	var b models.Booking
	err := s.db.QueryRowContext(ctx, query, sessionID, userID).
		Scan(&b.ID, &b.SessionID, &b.UserID, &b.Status, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch booking: %w", err)
	}
	return &b, nil
}

// CountBookingsInRange counts the user's capacity-consuming bookings whose
// session starts in [from, to) at the venue.
func (s *PostgresStore) CountBookingsInRange(ctx context.Context, venueID, userID string, from, to time.Time) (int, error) {
	const query = `
		SELECT COUNT(*)
		FROM bookings b
		JOIN sessions s ON s.id = b.session_id
		WHERE s.venue_id = $1 AND b.user_id = $2
		  AND b.status IN ('booked', 'attended')
		  AND s.starts_at >= $3 AND s.starts_at < $4`

	var count int
	if err := s.db.QueryRowContext(ctx, query, venueID, userID, from, to).Scan(&count); err != nil {
		return 0, fmt.Errorf("count bookings in range: %w", err)
	}
	return count, nil
}

// CountActiveBookings counts the user's booked sessions starting after the
// given instant.
func (s *PostgresStore) CountActiveBookings(ctx context.Context, venueID, userID string, after time.Time) (int, error) {
	const query = `
		SELECT COUNT(*)
		FROM bookings b
		JOIN sessions s ON s.id = b.session_id
		WHERE s.venue_id = $1 AND b.user_id = $2
		  AND b.status = 'booked'
		  AND s.starts_at > $3`

	var count int
	if err := s.db.QueryRowContext(ctx, query, venueID, userID, after).Scan(&count); err != nil {
		return 0, fmt.Errorf("count active bookings: %w", err)
	}
	return count, nil
}

// The write path serializes racing requests on the session row. FOR UPDATE
// makes a second writer wait for the first commit, and its count then sees
// the committed row, so the seat cannot be handed out twice under READ
// COMMITTED. A NULL capacity never fills.
const (
	lockSessionQuery = `
	SELECT capacity FROM sessions WHERE id = $1 FOR UPDATE`

	countSessionSeatsQuery = `
	SELECT COUNT(*) FROM bookings
	WHERE session_id = $1 AND status IN ('booked', 'attended')`

	insertBookingQuery = `
	INSERT INTO bookings (id, session_id, user_id, status, created_at)
	VALUES ($1, $2, $3, 'booked', NOW())
	RETURNING id, created_at`
)

// CreateBooking commits one booking. It returns admission.ErrSessionFull
// when the locked capacity check finds no room and admission.ErrDuplicateBooking
// when the active-booking unique index rejects the row.
func (s *PostgresStore) CreateBooking(ctx context.Context, sessionID, userID string) (*models.Booking, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin booking tx: %w", err)
	}
	defer tx.Rollback()

	var capacity sql.NullInt64
	err = tx.QueryRowContext(ctx, lockSessionQuery, sessionID).Scan(&capacity)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, admission.ErrSessionFull
	}
	if err != nil {
		return nil, fmt.Errorf("lock session: %w", err)
	}

	if capacity.Valid {
		var count int
		if err := tx.QueryRowContext(ctx, countSessionSeatsQuery, sessionID).Scan(&count); err != nil {
			return nil, fmt.Errorf("count session seats: %w", err)
		}
		if count >= int(capacity.Int64) {
			return nil, admission.ErrSessionFull
		}
	}

	booking := &models.Booking{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		UserID:    userID,
		Status:    models.BookingStatusBooked,
	}
	err = tx.QueryRowContext(ctx, insertBookingQuery, booking.ID, sessionID, userID).
		Scan(&booking.ID, &booking.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, admission.ErrDuplicateBooking
		}
		return nil, fmt.Errorf("create booking: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit booking tx: %w", err)
	}
	s.logger.Debug("booking created", map[string]interface{}{
		"booking_id": booking.ID,
		"session_id": sessionID,
		"user_id":    userID,
	})
	return booking, nil
}
