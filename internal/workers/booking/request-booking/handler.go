// internal/workers/booking/request-booking/handler.go
package requestbooking

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"venue-booking-workers/internal/booking/admission"
	"venue-booking-workers/internal/booking/storage"
	standarderrors "venue-booking-workers/internal/common/errors"
	"venue-booking-workers/internal/common/logger"
	"venue-booking-workers/internal/common/metrics"
	"venue-booking-workers/internal/common/validation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "request-booking"
)

// inputSchema rejects malformed process variables before any storage read.
var inputSchema = validation.ObjectSchema(map[string]interface{}{
	"userId":    validation.StringProperty(),
	"venueId":   validation.StringProperty(),
	"sessionId": validation.StringProperty(),
}, "userId", "venueId", "sessionId")

type Handler struct {
	config     *Config
	controller *admission.Controller
	logger     logger.Logger
}

// NewHandler wires the admission controller over a redis-cached postgres
// store.
func NewHandler(config *Config, db *sql.DB, rdb *redis.Client, log logger.Logger) *Handler {
	pg := storage.NewPostgresStore(db, log).WithDefaultTimezone(config.DefaultTimezone)
	cached := storage.NewCachedStore(pg, rdb, config.CacheTTL, log)
	return newHandler(config, admission.NewController(cached, log), log)
}

func newHandler(config *Config, controller *admission.Controller, log logger.Logger) *Handler {
	return &Handler{
		config:     config,
		controller: controller,
		logger:     log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	defer func() {
		metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	}()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var variables map[string]interface{}
	if err := json.Unmarshal([]byte(job.Variables), &variables); err != nil {
		h.throwError(client, job, "PARSE_ERROR", fmt.Sprintf("parse variables: %v", err))
		return
	}
	if violations := validation.ValidateVariables(variables, inputSchema); len(violations) > 0 {
		h.throwError(client, job, "INVALID_INPUT", strings.Join(violations, "; "))
		return
	}

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.throwError(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, failureCode(err), err.Error())
		return
	}

	if output.Allowed {
		metrics.BookingsAdmitted.WithLabelValues(input.VenueID).Inc()
	} else {
		metrics.BookingsDenied.WithLabelValues(output.Reason).Inc()
	}
	h.completeJob(client, job, output)
}

// failureCode reports the infrastructure code carried by a controller
// error, so fetch failures retry as query errors rather than write errors.
func failureCode(err error) string {
	var stdErr *standarderrors.StandardError
	if errors.As(err, &stdErr) {
		return string(stdErr.Code)
	}
	return string(standarderrors.ErrCodeBookingInsertFailed)
}

// execute runs the admission decision. A denial is a normal outcome and
// comes back inside Output; a non-nil error means the repository failed.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	result, err := h.controller.RequestBooking(ctx, input.UserID, input.VenueID, input.SessionID)
	if err != nil {
		return nil, err
	}

	output := &Output{
		Allowed:     result.Allowed,
		BookingID:   result.BookingID,
		Reason:      result.Reason,
		PlanID:      result.PlanID,
		PlanName:    result.PlanName,
		SessionType: result.SessionType,
	}
	if !result.Allowed {
		// User-facing text for the denial, suitable for direct messaging.
		output.Message = standarderrors.NewDenialError(standarderrors.ErrorCode(result.Reason), "").Message
	}
	if result.SessionStartsAt != nil {
		output.SessionStartsAt = result.SessionStartsAt.Format(time.RFC3339)
	}
	return output, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if _, err = cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

// throwError raises a BPMN error for input the process cannot retry into
// validity.
func (h *Handler) throwError(client worker.JobClient, job entities.Job, errorCode, errorMessage string) {
	h.logger.Error("job rejected", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
	})
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCode).Inc()

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// failJob reports a retryable infrastructure failure back to the broker.
func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
	})
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCode).Inc()

	_, err := client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(job.Retries - 1).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to fail job", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
