// internal/workers/booking/check-authorization/handler_test.go
package checkauthorization

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venue-booking-workers/internal/common/logger"
	"venue-booking-workers/internal/common/validation"
)

func createTestHandler(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewHandler(&Config{Timeout: 5 * time.Second}, db, logger.NewTestLogger(t)), mock
}

func expectMembership(mock sqlmock.Sqlmock, actorID, role, status string) {
	mock.ExpectQuery("SELECT venue_id, user_id, role, status").
		WithArgs("venue-1", actorID).
		WillReturnRows(sqlmock.NewRows([]string{"venue_id", "user_id", "role", "status"}).
			AddRow("venue-1", actorID, role, status))
}

func TestHandler_Execute_ManageVenue(t *testing.T) {
	tests := []struct {
		name       string
		role       string
		authorized bool
		reason     string
	}{
		{"admin authorized", "admin", true, ""},
		{"owner authorized", "owner", true, ""},
		{"coach denied", "coach", false, "INSUFFICIENT_PERMISSIONS"},
		{"client denied", "client", false, "INSUFFICIENT_PERMISSIONS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, mock := createTestHandler(t)
			expectMembership(mock, "actor-1", tt.role, "active")

			output, err := handler.Execute(context.Background(), &Input{
				ActorID: "actor-1", VenueID: "venue-1", Action: "manage-venue",
			})
			require.NoError(t, err)
			assert.Equal(t, tt.authorized, output.Authorized)
			assert.Equal(t, tt.reason, output.Reason)
		})
	}
}

func TestHandler_Execute_ManageSessionsAsCoach(t *testing.T) {
	handler, mock := createTestHandler(t)
	expectMembership(mock, "actor-1", "coach", "active")

	output, err := handler.Execute(context.Background(), &Input{
		ActorID: "actor-1", VenueID: "venue-1", Action: "manage-sessions",
	})
	require.NoError(t, err)
	assert.True(t, output.Authorized)
}

func TestHandler_Execute_ViewBookingsSelf(t *testing.T) {
	handler, mock := createTestHandler(t)
	expectMembership(mock, "actor-1", "client", "active")

	output, err := handler.Execute(context.Background(), &Input{
		ActorID: "actor-1", VenueID: "venue-1", Action: "view-bookings",
		TargetUserID: "actor-1",
	})
	require.NoError(t, err)
	assert.True(t, output.Authorized)
}

func TestHandler_Execute_ViewBookingsCoachScope(t *testing.T) {
	handler, mock := createTestHandler(t)
	expectMembership(mock, "actor-1", "coach", "active")

	output, err := handler.Execute(context.Background(), &Input{
		ActorID: "actor-1", VenueID: "venue-1", Action: "view-bookings",
		SessionCoachID: "other-coach",
	})
	require.NoError(t, err)
	assert.False(t, output.Authorized)
	assert.Equal(t, "INSUFFICIENT_PERMISSIONS", output.Reason)
}

func TestHandler_Execute_NotAMember(t *testing.T) {
	handler, mock := createTestHandler(t)
	mock.ExpectQuery("SELECT venue_id, user_id, role, status").
		WithArgs("venue-1", "actor-1").
		WillReturnRows(sqlmock.NewRows([]string{"venue_id", "user_id", "role", "status"}))

	output, err := handler.Execute(context.Background(), &Input{
		ActorID: "actor-1", VenueID: "venue-1", Action: "manage-sessions",
	})
	require.NoError(t, err)
	assert.False(t, output.Authorized)
	assert.Equal(t, "NOT_A_MEMBER", output.Reason)
}

func TestHandler_Execute_SuspendedMemberHasNoRole(t *testing.T) {
	handler, mock := createTestHandler(t)
	expectMembership(mock, "actor-1", "owner", "suspended")

	output, err := handler.Execute(context.Background(), &Input{
		ActorID: "actor-1", VenueID: "venue-1", Action: "manage-venue",
	})
	require.NoError(t, err)
	assert.False(t, output.Authorized)
	assert.Equal(t, "NOT_A_MEMBER", output.Reason)
}

func TestHandler_Execute_RepositoryFailure(t *testing.T) {
	handler, mock := createTestHandler(t)
	mock.ExpectQuery("SELECT venue_id, user_id, role, status").
		WillReturnError(errors.New("connection refused"))

	output, err := handler.Execute(context.Background(), &Input{
		ActorID: "actor-1", VenueID: "venue-1", Action: "manage-venue",
	})
	assert.Nil(t, output)
	assert.ErrorContains(t, err, "connection refused")
}

func TestInputSchemaRejectsUnknownAction(t *testing.T) {
	violations := validation.ValidateVariables(map[string]interface{}{
		"actorId": "actor-1",
		"venueId": "venue-1",
		"action":  "delete-venue",
	}, inputSchema)
	assert.NotEmpty(t, violations)

	violations = validation.ValidateVariables(map[string]interface{}{
		"actorId": "actor-1",
		"venueId": "venue-1",
		"action":  "view-bookings",
	}, inputSchema)
	assert.Empty(t, violations)
}
