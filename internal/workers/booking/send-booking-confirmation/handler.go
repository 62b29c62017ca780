// internal/workers/booking/send-booking-confirmation/handler.go
package sendbookingconfirmation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"venue-booking-workers/internal/common/logger"
	"venue-booking-workers/internal/common/metrics"
	"venue-booking-workers/internal/common/validation"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "send-booking-confirmation"
)

var ErrNoRecipient = errors.New("NO_RECIPIENT")

var inputSchema = validation.ObjectSchema(map[string]interface{}{
	"userId":          validation.StringProperty(),
	"venueName":       validation.StringProperty(),
	"bookingId":       validation.StringProperty(),
	"sessionType":     validation.StringProperty(),
	"sessionStartsAt": validation.StringProperty(),
}, "userId", "venueName", "bookingId", "sessionType", "sessionStartsAt")

// EmailSender and SMSSender are satisfied by the aws package clients and
// mocked in tests.
type EmailSender interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

type SMSSender interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

type Handler struct {
	config *Config
	email  EmailSender
	sms    SMSSender
	logger logger.Logger
}

func NewHandler(config *Config, email EmailSender, sms SMSSender, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		email:  email,
		sms:    sms,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
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
		if errors.Is(err, ErrNoRecipient) {
			h.throwError(client, job, "NO_RECIPIENT", err.Error())
			return
		}
		h.failJob(client, job, "NOTIFICATION_SEND_FAILED", err.Error())
		return
	}

	h.completeJob(client, job, output)
}

// execute sends the confirmation over every enabled channel the input names.
// A channel is used only when the input carries its recipient and the channel
// is enabled in config; no usable channel at all is a non-retryable error.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	sendEmail := input.RecipientEmail != "" && h.config.EmailEnabled
	sendSMS := input.RecipientPhone != "" && h.config.SMSEnabled
	if !sendEmail && !sendSMS {
		return nil, ErrNoRecipient
	}

	output := &Output{SentAt: time.Now().UTC()}

	if sendEmail {
		messageID, err := h.sendEmail(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("send confirmation email: %w", err)
		}
		output.EmailMessageID = messageID
	}
	if sendSMS {
		messageID, err := h.sendSMS(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("send confirmation sms: %w", err)
		}
		output.SMSMessageID = messageID
	}

	output.Success = true
	return output, nil
}

func (h *Handler) sendEmail(ctx context.Context, input *Input) (string, error) {
	subject := fmt.Sprintf("Booking confirmed at %s", input.VenueName)
	result, err := h.email.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(h.config.FromEmail),
		Destination: &sestypes.Destination{
			ToAddresses: []string{input.RecipientEmail},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(confirmationText(input))},
			},
		},
	})
	if err != nil {
		return "", err
	}
	return aws.ToString(result.MessageId), nil
}

func (h *Handler) sendSMS(ctx context.Context, input *Input) (string, error) {
	result, err := h.sms.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(input.RecipientPhone),
		Message:     aws.String(confirmationText(input)),
	})
	if err != nil {
		return "", err
	}
	return aws.ToString(result.MessageId), nil
}

func confirmationText(input *Input) string {
	text := fmt.Sprintf("Your %s at %s on %s is confirmed.",
		input.SessionType, input.VenueName, input.SessionStartsAt)
	if input.PlanName != "" {
		text += fmt.Sprintf(" Plan: %s.", input.PlanName)
	}
	return text
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
