// Package errors provides standardized error handling for the booking
// admission workers, split into business denials and infrastructure failures.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Admission denial reasons. These are business outcomes, never faults, and
// are listed in the exact order the eligibility evaluator applies them.
const (
	ErrCodeNotAMember             ErrorCode = "NOT_A_MEMBER"
	ErrCodeMemberNotActive        ErrorCode = "MEMBER_NOT_ACTIVE"
	ErrCodeNoActiveSubscription   ErrorCode = "NO_ACTIVE_SUBSCRIPTION"
	ErrCodeSessionNotFound        ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeAlreadyBooked          ErrorCode = "ALREADY_BOOKED"
	ErrCodeSessionFull            ErrorCode = "SESSION_FULL"
	ErrCodeServiceTypeNotAllowed  ErrorCode = "SERVICE_TYPE_NOT_ALLOWED"
	ErrCodeOutsideTimeWindow      ErrorCode = "OUTSIDE_TIME_WINDOW"
	ErrCodeWeekdayNotAllowed      ErrorCode = "WEEKDAY_NOT_ALLOWED"
	ErrCodeMaxBookingsPerDay      ErrorCode = "MAX_BOOKINGS_PER_DAY_REACHED"
	ErrCodeMaxBookingsPerWeek     ErrorCode = "MAX_BOOKINGS_PER_WEEK_REACHED"
	ErrCodeMaxActiveBookings      ErrorCode = "MAX_ACTIVE_BOOKINGS_REACHED"
	ErrCodeInsufficientPermission ErrorCode = "INSUFFICIENT_PERMISSIONS"
)

// Infrastructure errors. Retryable by the workflow engine.
const (
	ErrCodeRepositoryUnavailable  ErrorCode = "REPOSITORY_UNAVAILABLE"
	ErrCodeQueryExecutionFailed   ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout           ErrorCode = "QUERY_TIMEOUT"
	ErrCodeBookingInsertFailed    ErrorCode = "BOOKING_INSERT_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying repository or client error, if any.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	if e.ErrorVariables != nil {
		for k, v := range e.ErrorVariables {
			vars[k] = v
		}
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewDenialError creates a non-retryable business denial for the given reason.
func NewDenialError(code ErrorCode, details string) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   denialMessage(code),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func denialMessage(code ErrorCode) string {
	switch code {
	case ErrCodeNotAMember:
		return "User is not a member of this venue"
	case ErrCodeMemberNotActive:
		return "Membership is not active"
	case ErrCodeNoActiveSubscription:
		return "No active subscription for this venue"
	case ErrCodeSessionNotFound:
		return "Session not found"
	case ErrCodeAlreadyBooked:
		return "A booking for this session already exists"
	case ErrCodeSessionFull:
		return "Session is at capacity"
	case ErrCodeServiceTypeNotAllowed:
		return "Session type is not covered by the subscription plan"
	case ErrCodeOutsideTimeWindow:
		return "Session starts outside the plan's allowed hours"
	case ErrCodeWeekdayNotAllowed:
		return "Session weekday is not covered by the subscription plan"
	case ErrCodeMaxBookingsPerDay:
		return "Daily booking limit reached"
	case ErrCodeMaxBookingsPerWeek:
		return "Weekly booking limit reached"
	case ErrCodeMaxActiveBookings:
		return "Active booking limit reached"
	case ErrCodeInsufficientPermission:
		return "Actor lacks the required venue role"
	default:
		return "Booking request denied"
	}
}

// NewRepositoryUnavailableError creates a retryable connection error.
func NewRepositoryUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRepositoryUnavailable,
		Message:   "Repository connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Repository query execution error",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewQueryTimeoutError creates a retryable query timeout error.
func NewQueryTimeoutError(operation string) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryTimeout,
		Message:   "Repository query timeout",
		Details:   fmt.Sprintf("operation: %s", operation),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewBookingInsertFailedError creates a retryable booking write error. Used
// only for unexpected write failures, never for the duplicate/capacity races
// the controller absorbs.
func NewBookingInsertFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeBookingInsertFailed,
		Message:   "Booking insert operation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// GetRetryCount returns the recommended retry count per error code. Denial
// reasons never retry; a denied booking stays denied until the user changes
// something.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeRepositoryUnavailable,
		ErrCodeQueryExecutionFailed,
		ErrCodeBookingInsertFailed,
		ErrCodeNotificationSendFailed:
		return 3

	case ErrCodeQueryTimeout:
		return 2

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for the engine.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsDenial reports whether the code is a business denial rather than an
// infrastructure failure.
func IsDenial(code ErrorCode) bool {
	return GetRetryCount(code) == 0
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "MEMBER") || strings.Contains(codeStr, "PERMISSION"):
		return "MEMBERSHIP"
	case strings.Contains(codeStr, "SUBSCRIPTION") || strings.Contains(codeStr, "ALLOWED") ||
		strings.Contains(codeStr, "WINDOW") || strings.Contains(codeStr, "MAX_"):
		return "POLICY"
	case strings.Contains(codeStr, "SESSION") || strings.Contains(codeStr, "BOOKED"):
		return "SESSION"
	case strings.Contains(codeStr, "REPOSITORY") || strings.Contains(codeStr, "QUERY") ||
		strings.Contains(codeStr, "INSERT"):
		return "REPOSITORY"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	default:
		return "OTHER"
	}
}
