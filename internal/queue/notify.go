// Package queue provides SQS-based message producers for dispatching
// report-created notifications to the downstream email worker.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqsTypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// SQSSender abstracts the SQS SendMessage operation for testability.
// Production code uses the *sqs.Client from aws-sdk-go-v2.
type SQSSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// ReportCreatedMessage is the payload enqueued when a batch-generated report
// is persisted. The notification worker resolves tenant email recipients and
// delivers the message; this pipeline only publishes.
type ReportCreatedMessage struct {
	ReportID     string    `json:"report_id"`
	ClientID     string    `json:"client_id"`
	PropertyID   string    `json:"property_id"`
	PropertyName string    `json:"property_name"`
	PeriodStart  string    `json:"period_start"`
	PeriodEnd    string    `json:"period_end"`
	CreatedAt    time.Time `json:"created_at"`
}

// ReportNotifier publishes report-created messages to the notification queue.
type ReportNotifier struct {
	client   SQSSender
	queueURL string
	logger   *slog.Logger
}

// NewReportNotifier creates a notifier for the given queue URL. An empty
// queue URL disables publishing (local development without SQS).
func NewReportNotifier(client SQSSender, queueURL string, logger *slog.Logger) *ReportNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportNotifier{
		client:   client,
		queueURL: queueURL,
		logger:   logger,
	}
}

// PublishReportCreated serializes the message and sends it to the
// notification queue.
func (n *ReportNotifier) PublishReportCreated(ctx context.Context, msg ReportCreatedMessage) error {
	if n.queueURL == "" {
		n.logger.DebugContext(ctx, "notification queue not configured, skipping publish",
			"report_id", msg.ReportID,
		)
		return nil
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("queue: failed to marshal report notification: %w", err)
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(n.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]sqsTypes.MessageAttributeValue{
			"event_type": {
				DataType:    aws.String("String"),
				StringValue: aws.String("report_created"),
			},
		},
	}

	if _, err := n.client.SendMessage(ctx, input); err != nil {
		return fmt.Errorf("queue: failed to send report notification: %w", err)
	}

	n.logger.InfoContext(ctx, "report notification enqueued",
		"report_id", msg.ReportID,
		"client_id", msg.ClientID,
	)

	return nil
}
