package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDenialError(t *testing.T) {
	err := NewDenialError(ErrCodeSessionFull, "session session-1")
	assert.Equal(t, ErrCodeSessionFull, err.Code)
	assert.Equal(t, "Session is at capacity", err.Message)
	assert.Equal(t, "session session-1", err.Details)
	assert.False(t, err.Retryable)
	assert.Contains(t, err.Error(), "SESSION_FULL")
}

func TestDenialMessagesCoverEveryReason(t *testing.T) {
	reasons := []ErrorCode{
		ErrCodeNotAMember, ErrCodeMemberNotActive, ErrCodeNoActiveSubscription,
		ErrCodeSessionNotFound, ErrCodeAlreadyBooked, ErrCodeSessionFull,
		ErrCodeServiceTypeNotAllowed, ErrCodeOutsideTimeWindow, ErrCodeWeekdayNotAllowed,
		ErrCodeMaxBookingsPerDay, ErrCodeMaxBookingsPerWeek, ErrCodeMaxActiveBookings,
		ErrCodeInsufficientPermission,
	}
	seen := make(map[string]bool)
	for _, reason := range reasons {
		msg := NewDenialError(reason, "").Message
		assert.NotEqual(t, "Booking request denied", msg, "missing message for %s", reason)
		assert.False(t, seen[msg], "duplicate message for %s", reason)
		seen[msg] = true
	}
}

func TestStandardErrorUnwrapsCause(t *testing.T) {
	cause := errors.New("broken pipe")
	err := NewBookingInsertFailedError(cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "broken pipe")
}

func TestRetryCounts(t *testing.T) {
	assert.Equal(t, 3, GetRetryCount(ErrCodeRepositoryUnavailable))
	assert.Equal(t, 3, GetRetryCount(ErrCodeBookingInsertFailed))
	assert.Equal(t, 2, GetRetryCount(ErrCodeQueryTimeout))
	assert.Equal(t, 0, GetRetryCount(ErrCodeSessionFull))
	assert.Equal(t, 0, GetRetryCount(ErrCodeNotAMember))
}

func TestDenialInfrastructureSplit(t *testing.T) {
	assert.True(t, IsDenial(ErrCodeAlreadyBooked))
	assert.True(t, IsDenial(ErrCodeInsufficientPermission))
	assert.False(t, IsDenial(ErrCodeRepositoryUnavailable))

	assert.True(t, IsRetryableErrorCode(ErrCodeNotificationSendFailed))
	assert.False(t, IsRetryableErrorCode(ErrCodeOutsideTimeWindow))
}

func TestConvertToBPMNError(t *testing.T) {
	stdErr := NewQueryExecutionFailedError("fetch membership", errors.New("broken pipe"))
	bpmnErr := ConvertToBPMNError(stdErr)

	assert.Equal(t, "QUERY_EXECUTION_FAILED", bpmnErr.Code)
	assert.Equal(t, 3, bpmnErr.Retries)
	assert.True(t, bpmnErr.Retryable)

	vars := bpmnErr.ToErrorVariables()
	assert.Equal(t, "QUERY_EXECUTION_FAILED", vars["originalErrorCode"])
	assert.NotEmpty(t, vars["timestamp"])
}

func TestConvertToBPMNErrorDenialNeverRetries(t *testing.T) {
	bpmnErr := ConvertToBPMNError(NewDenialError(ErrCodeWeekdayNotAllowed, ""))
	assert.Equal(t, 0, bpmnErr.Retries)
	assert.False(t, bpmnErr.Retryable)
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "MEMBERSHIP", GetErrorCategory(ErrCodeNotAMember))
	assert.Equal(t, "POLICY", GetErrorCategory(ErrCodeMaxBookingsPerDay))
	assert.Equal(t, "SESSION", GetErrorCategory(ErrCodeAlreadyBooked))
	assert.Equal(t, "REPOSITORY", GetErrorCategory(ErrCodeQueryExecutionFailed))
	assert.Equal(t, "NOTIFICATION", GetErrorCategory(ErrCodeNotificationSendFailed))
}
