// internal/booking/storage/postgres_test.go
package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venue-booking-workers/internal/booking/admission"
	"venue-booking-workers/internal/common/logger"
	"venue-booking-workers/internal/models"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStore(db, logger.NewNoOpLogger()), mock
}

func TestFetchMembership(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT venue_id, user_id, role, status").
		WithArgs("venue-1", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"venue_id", "user_id", "role", "status"}).
			AddRow("venue-1", "user-1", "coach", "active"))

	m, err := store.FetchMembership(context.Background(), "venue-1", "user-1")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, models.RoleCoach, m.Role)
	assert.Equal(t, models.MembershipStatusActive, m.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchMembershipMissingRow(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT venue_id, user_id, role, status").
		WithArgs("venue-1", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"venue_id", "user_id", "role", "status"}))

	m, err := store.FetchMembership(context.Background(), "venue-1", "user-1")
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestFetchMembershipQueryError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT venue_id, user_id, role, status").
		WillReturnError(errors.New("connection reset"))

	_, err := store.FetchMembership(context.Background(), "venue-1", "user-1")
	assert.ErrorContains(t, err, "connection reset")
}

func TestFetchActiveSubscriptionDecodesPolicy(t *testing.T) {
	store, mock := newMockStore(t)
	startedAt := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM subscriptions sub").
		WithArgs("venue-1", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "venue_id", "user_id", "plan_id", "status", "started_at",
			"p_id", "p_venue_id", "name", "active", "policy",
		}).AddRow(
			"sub-1", "venue-1", "user-1", "plan-1", "active", startedAt,
			"plan-1", "venue-1", "morning plan", true,
			[]byte(`{"maxBookingsPerDay":2,"allowedStartTimeFrom":"06:00","allowedStartTimeTo":"12:00"}`),
		))

	sub, plan, err := store.FetchActiveSubscription(context.Background(), "venue-1", "user-1")
	require.NoError(t, err)
	require.NotNil(t, sub)
	require.NotNil(t, plan)
	assert.Equal(t, models.SubscriptionStatusActive, sub.Status)
	require.NotNil(t, plan.Policy.MaxBookingsPerDay)
	assert.Equal(t, 2, *plan.Policy.MaxBookingsPerDay)
	require.NotNil(t, plan.Policy.AllowedStartTimeFrom)
	assert.Equal(t, "06:00", *plan.Policy.AllowedStartTimeFrom)
	assert.Nil(t, plan.Policy.MaxBookingsPerWeek)
}

func TestFetchActiveSubscriptionNone(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("FROM subscriptions sub").
		WithArgs("venue-1", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	sub, plan, err := store.FetchActiveSubscription(context.Background(), "venue-1", "user-1")
	require.NoError(t, err)
	assert.Nil(t, sub)
	assert.Nil(t, plan)
}

func TestFetchSessionWithCount(t *testing.T) {
	store, mock := newMockStore(t)
	startsAt := time.Date(2026, 9, 2, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM sessions s").
		WithArgs("session-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "venue_id", "coach_id", "type", "starts_at", "timezone", "capacity", "count",
		}).AddRow("session-1", "venue-1", "coach-1", "class", startsAt, "Europe/Berlin", 12, 7))

	session, count, err := store.FetchSession(context.Background(), "session-1")
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, 7, count)
	require.NotNil(t, session.Capacity)
	assert.Equal(t, 12, *session.Capacity)
	assert.Equal(t, "Europe/Berlin", session.Timezone)
}

func TestFetchSessionNullCapacity(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("FROM sessions s").
		WithArgs("session-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "venue_id", "coach_id", "type", "starts_at", "timezone", "capacity", "count",
		}).AddRow("session-1", "venue-1", "coach-1", "appointment", time.Now(), "UTC", nil, 0))

	session, _, err := store.FetchSession(context.Background(), "session-1")
	require.NoError(t, err)
	assert.Nil(t, session.Capacity)
}

func TestFetchSessionEmptyTimezoneGetsDefault(t *testing.T) {
	store, mock := newMockStore(t)
	store.WithDefaultTimezone("Europe/Berlin")

	mock.ExpectQuery("FROM sessions s").
		WithArgs("session-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "venue_id", "coach_id", "type", "starts_at", "timezone", "capacity", "count",
		}).AddRow("session-1", "venue-1", "coach-1", "class", time.Now(), "", 10, 0))

	session, _, err := store.FetchSession(context.Background(), "session-1")
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", session.Timezone)
}

func TestCountBookingsInRange(t *testing.T) {
	store, mock := newMockStore(t)
	from := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("venue-1", "user-1", from, to).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := store.CountBookingsInRange(context.Background(), "venue-1", "user-1", from, to)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestCreateBooking(t *testing.T) {
	store, mock := newMockStore(t)
	createdAt := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs("session-1").
		WillReturnRows(sqlmock.NewRows([]string{"capacity"}).AddRow(10))
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("session-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))
	mock.ExpectQuery("INSERT INTO bookings").
		WithArgs(sqlmock.AnyArg(), "session-1", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).
			AddRow("booking-1", createdAt))
	mock.ExpectCommit()

	booking, err := store.CreateBooking(context.Background(), "session-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, "booking-1", booking.ID)
	assert.Equal(t, models.BookingStatusBooked, booking.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A NULL capacity means unbounded: the seat count is never consulted.
func TestCreateBookingUnboundedSkipsCount(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs("session-1").
		WillReturnRows(sqlmock.NewRows([]string{"capacity"}).AddRow(nil))
	mock.ExpectQuery("INSERT INTO bookings").
		WithArgs(sqlmock.AnyArg(), "session-1", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).
			AddRow("booking-1", time.Now()))
	mock.ExpectCommit()

	_, err := store.CreateBooking(context.Background(), "session-1", "user-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// The count runs after the session row lock is granted, so it includes any
// booking committed by a writer that held the lock first. A full count at
// that point refuses the write without touching the bookings table.
func TestCreateBookingSessionFull(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs("session-1").
		WillReturnRows(sqlmock.NewRows([]string{"capacity"}).AddRow(1))
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("session-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	_, err := store.CreateBooking(context.Background(), "session-1", "user-1")
	assert.ErrorIs(t, err, admission.ErrSessionFull)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingSessionGone(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs("session-1").
		WillReturnRows(sqlmock.NewRows([]string{"capacity"}))
	mock.ExpectRollback()

	_, err := store.CreateBooking(context.Background(), "session-1", "user-1")
	assert.ErrorIs(t, err, admission.ErrSessionFull)
}

func TestCreateBookingDuplicate(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs("session-1").
		WillReturnRows(sqlmock.NewRows([]string{"capacity"}).AddRow(10))
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("session-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("INSERT INTO bookings").
		WithArgs(sqlmock.AnyArg(), "session-1", "user-1").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "bookings_active_pair_idx"})
	mock.ExpectRollback()

	_, err := store.CreateBooking(context.Background(), "session-1", "user-1")
	assert.ErrorIs(t, err, admission.ErrDuplicateBooking)
}

func TestCreateBookingInfrastructureError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WillReturnError(errors.New("deadlock detected"))
	mock.ExpectRollback()

	_, err := store.CreateBooking(context.Background(), "session-1", "user-1")
	assert.NotErrorIs(t, err, admission.ErrSessionFull)
	assert.NotErrorIs(t, err, admission.ErrDuplicateBooking)
	assert.ErrorContains(t, err, "deadlock detected")
}
