// Package remindersender delivers every pending reminder whose trigger
// time has passed and marks it as sent.
package remindersender

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Slimo300/Smart-Reminder/pkg/features/dynamomapper"
	"github.com/Slimo300/Smart-Reminder/pkg/features/errors"
	"github.com/Slimo300/Smart-Reminder/pkg/features/notifier"
	"github.com/Slimo300/Smart-Reminder/pkg/features/reminder"
	"github.com/Slimo300/Smart-Reminder/pkg/features/response"
)

var ErrMissingAddress = stderrors.New("reminder metadata has no address for its notification type")

type DynamoApiClient interface {
	dynamodb.ScanAPIClient
	UpdateItem(context.Context, *dynamodb.UpdateItemInput, ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

type Sender interface {
	Send(ctx context.Context, userID string, msg notifier.Message) error
}

type Handler struct {
	DynamoClient DynamoApiClient
	Notifier     Sender
	TableName    string
	Now          func() time.Time
	// Logger defaults to the global zerolog logger.
	Logger       *zerolog.Logger
}

type Result struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

func (h *Handler) Handle(ctx context.Context, _ events.CloudWatchEvent) (events.APIGatewayProxyResponse, error) {
	result, err := h.Run(ctx)
	if err != nil {
		return errors.Internal(err)
	}

	res, err := response.JSON(http.StatusOK, result)
	if err != nil {
		return errors.Internal(err)
	}
	return res, nil
}

// Run processes due reminders page by page. A reminder that can't be
// delivered or marked is counted as failed and stays pending for the
// next run; only a Scan error stops the run.
func (h *Handler) Run(ctx context.Context) (Result, error) {
	now := h.now()

	paginator := dynamodb.NewScanPaginator(h.DynamoClient, &dynamodb.ScanInput{
		TableName:        aws.String(h.TableName),
		FilterExpression: aws.String("#status = :pending AND #triggerAt <= :now"),
		ExpressionAttributeNames: map[string]string{
			"#status":    reminder.AttrStatus,
			"#triggerAt": reminder.AttrTriggerAt,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pending": &types.AttributeValueMemberS{Value: string(reminder.StatusPending)},
			":now":     &types.AttributeValueMemberN{Value: strconv.FormatInt(now.UnixMilli(), 10)},
		},
	})

	logger := h.logger()

	var result Result
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return result, fmt.Errorf("scanning for due reminders: %w", err)
		}

		for _, item := range page.Items {
			r, err := dynamomapper.FromItem(item)
			if err != nil {
				logger.Error().Err(err).Msg("skipping unreadable reminder")
				result.Failed++
				continue
			}

			if err := h.deliver(ctx, r, now); err != nil {
				// Reminders without an address stay pending and come back on
				// every run, keep them out of the error log.
				event := logger.Error()
				if stderrors.Is(err, ErrMissingAddress) {
					event = logger.Debug()
				}
				event.Err(err).
					Str("userId", r.UserID).
					Str("reminderId", r.ReminderID).
					Str("notificationType", string(r.NotificationType)).
					Msg("failed to send reminder")
				result.Failed++
				continue
			}
			result.Sent++
		}
	}

	logger.Info().Int("sent", result.Sent).Int("failed", result.Failed).Msg("scheduled reminders processed")
	return result, nil
}

func (h *Handler) deliver(ctx context.Context, r reminder.Reminder, now time.Time) error {
	msg, err := BuildMessage(r)
	if err != nil {
		return err
	}

	if err := h.Notifier.Send(ctx, r.UserID, msg); err != nil {
		return err
	}

	// A concurrent run that already marked the reminder fails the condition.
	if _, err := h.DynamoClient.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(h.TableName),
		Key:                 dynamomapper.Key(r.UserID, r.ReminderID),
		UpdateExpression:    aws.String("SET #status = :sent, #updatedAt = :now"),
		ConditionExpression: aws.String("#status = :pending"),
		ExpressionAttributeNames: map[string]string{
			"#status":    reminder.AttrStatus,
			"#updatedAt": "updatedAt",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":sent":    &types.AttributeValueMemberS{Value: string(reminder.StatusSent)},
			":pending": &types.AttributeValueMemberS{Value: string(reminder.StatusPending)},
			":now":     &types.AttributeValueMemberS{Value: reminder.Timestamp(now)},
		},
	}); err != nil {
		return fmt.Errorf("marking reminder as sent: %w", err)
	}
	return nil
}

// BuildMessage turns a reminder into the payload of its notification type.
// Email and SMS addresses come from metadata.email and metadata.phoneNumber.
func BuildMessage(r reminder.Reminder) (notifier.Message, error) {
	text := "Reminder: " + r.Title

	switch r.NotificationType {
	case notifier.ChannelEmail, "":
		to, ok := r.Metadata["email"].(string)
		if !ok || to == "" {
			return nil, fmt.Errorf("%w: email", ErrMissingAddress)
		}
		body := r.Title
		if r.Description != "" {
			body += "\n" + r.Description
		}
		return notifier.EmailMessage{To: to, Subject: text, Body: body}, nil
	case notifier.ChannelSMS:
		phone, ok := r.Metadata["phoneNumber"].(string)
		if !ok || phone == "" {
			return nil, fmt.Errorf("%w: sms", ErrMissingAddress)
		}
		return notifier.SMSMessage{PhoneNumber: phone, Message: text}, nil
	case notifier.ChannelPush:
		return notifier.PushMessage{Payload: map[string]interface{}{
			"default":     text,
			"title":       r.Title,
			"description": r.Description,
			"reminderId":  r.ReminderID,
		}}, nil
	default:
		return nil, fmt.Errorf("%w: %q", notifier.ErrUnsupportedChannel, r.NotificationType)
	}
}

func (h *Handler) logger() *zerolog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return &log.Logger
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}
