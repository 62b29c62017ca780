// internal/workers/booking/check-authorization/handler.go
package checkauthorization

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"venue-booking-workers/internal/booking/authz"
	"venue-booking-workers/internal/booking/roles"
	"venue-booking-workers/internal/booking/storage"
	"venue-booking-workers/internal/common/logger"
	"venue-booking-workers/internal/common/metrics"
	"venue-booking-workers/internal/common/validation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "check-authorization"
)

var inputSchema = validation.ObjectSchema(map[string]interface{}{
	"actorId": validation.StringProperty(),
	"venueId": validation.StringProperty(),
	"action": validation.EnumProperty(
		authz.ActionManageVenue,
		authz.ActionManageSessions,
		authz.ActionViewBookings,
	),
}, "actorId", "venueId", "action")

type Handler struct {
	config  *Config
	service *authz.Service
	logger  logger.Logger
}

func NewHandler(config *Config, db *sql.DB, log logger.Logger) *Handler {
	store := storage.NewPostgresStore(db, log)
	return newHandler(config, authz.NewService(roles.NewResolver(store)), log)
}

func newHandler(config *Config, service *authz.Service, log logger.Logger) *Handler {
	return &Handler{
		config:  config,
		service: service,
		logger:  log.WithFields(map[string]interface{}{"taskType": TaskType}),
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
		h.failJob(client, job, "REPOSITORY_UNAVAILABLE", err.Error())
		return
	}

	h.completeJob(client, job, output)
}

// execute answers the permission question. An unauthorized outcome is a
// normal completion with the denial reason attached.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	decision, err := h.service.Check(ctx, input.Action, input.ActorID, input.VenueID, authz.ViewTarget{
		TargetUserID:   input.TargetUserID,
		SessionCoachID: input.SessionCoachID,
	})
	if err != nil {
		return nil, err
	}
	return &Output{
		Authorized: decision.Authorized,
		Reason:     string(decision.Reason),
	}, nil
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
