package remindercreator

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Slimo300/Smart-Reminder/pkg/features/auth"
	"github.com/Slimo300/Smart-Reminder/pkg/features/dynamomapper"
	"github.com/Slimo300/Smart-Reminder/pkg/features/errors"
	"github.com/Slimo300/Smart-Reminder/pkg/features/notifier"
	"github.com/Slimo300/Smart-Reminder/pkg/features/reminder"
	"github.com/Slimo300/Smart-Reminder/pkg/features/response"
)

type DynamoApiClient interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

type Handler struct {
	DynamoClient DynamoApiClient
	TableName    string
	Validator    *validator.Validate
	Now          func() time.Time
	NewID        func() string
}

type RequestBody struct {
	Title            string                 `json:"title" validate:"required"`
	Description      string                 `json:"description"`
	TriggerAt        json.RawMessage        `json:"triggerAt" validate:"required"`
	NotificationType notifier.Channel       `json:"notificationType" validate:"omitempty,oneof=email sms push"`
	Metadata         map[string]interface{} `json:"metadata"`
}

func (h *Handler) Handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {

	userID, ok := auth.UserID(request)
	if !ok {
		return errors.Unauthorized("authorization data not found")
	}

	var reqBody RequestBody
	if err := json.Unmarshal([]byte(request.Body), &reqBody); err != nil {
		return errors.BadRequest("invalid request body")
	}

	if err := h.validator().Struct(reqBody); err != nil {
		log.Warn().Err(err).Str("userId", userID).Msg("invalid create reminder request")
		return errors.BadRequest("invalid request data")
	}

	triggerAt, err := reminder.ParseTriggerAt(reqBody.TriggerAt)
	if err != nil {
		return errors.BadRequest("invalid request data")
	}

	now := reminder.Timestamp(h.now())
	item := reminder.Reminder{
		UserID:           userID,
		ReminderID:       h.newID(),
		Title:            reqBody.Title,
		Description:      reqBody.Description,
		TriggerAt:        triggerAt,
		CreatedAt:        now,
		UpdatedAt:        now,
		Status:           reminder.StatusPending,
		NotificationType: reqBody.NotificationType,
		Metadata:         reqBody.Metadata,
	}
	if item.NotificationType == "" {
		item.NotificationType = notifier.ChannelEmail
	}
	if item.Metadata == nil {
		item.Metadata = map[string]interface{}{}
	}

	dynamoItem, err := dynamomapper.ToItem(item)
	if err != nil {
		return errors.Internal(err)
	}

	if _, err := h.DynamoClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(h.TableName),
		Item:      dynamoItem,
	}); err != nil {
		return errors.Internal(err)
	}

	res, err := response.JSON(http.StatusCreated, item)
	if err != nil {
		return errors.Internal(err)
	}
	return res, nil
}

func (h *Handler) validator() *validator.Validate {
	if h.Validator == nil {
		h.Validator = validator.New()
	}
	return h.Validator
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *Handler) newID() string {
	if h.NewID != nil {
		return h.NewID()
	}
	return uuid.NewString()
}
