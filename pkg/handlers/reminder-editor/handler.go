package remindereditor

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamotypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog/log"

	"github.com/Slimo300/Smart-Reminder/pkg/features/auth"
	"github.com/Slimo300/Smart-Reminder/pkg/features/dynamomapper"
	"github.com/Slimo300/Smart-Reminder/pkg/features/errors"
	"github.com/Slimo300/Smart-Reminder/pkg/features/reminder"
	"github.com/Slimo300/Smart-Reminder/pkg/features/response"
)

type DynamoApiClient interface {
	UpdateItem(context.Context, *dynamodb.UpdateItemInput, ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

type Handler struct {
	DynamoClient DynamoApiClient
	TableName    string
	Now          func() time.Time
}

// RequestBody uses pointers so that an absent field is left untouched
// while an explicit empty description still clears it.
type RequestBody struct {
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	TriggerAt   json.RawMessage `json:"triggerAt"`
}

func (h *Handler) Handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {

	userID, ok := auth.UserID(request)
	if !ok {
		return errors.Unauthorized("authorization data not found")
	}

	reminderID := request.PathParameters["id"]
	if reminderID == "" {
		return errors.BadRequest("no reminder id specified")
	}

	var reqBody RequestBody
	if err := json.Unmarshal([]byte(request.Body), &reqBody); err != nil {
		return errors.BadRequest("invalid request body")
	}

	var (
		update  expression.UpdateBuilder
		changed bool
	)
	if reqBody.Title != nil {
		if *reqBody.Title == "" {
			return errors.BadRequest("invalid request data")
		}
		update = update.Set(expression.Name("title"), expression.Value(*reqBody.Title))
		changed = true
	}
	if reqBody.Description != nil {
		update = update.Set(expression.Name("description"), expression.Value(*reqBody.Description))
		changed = true
	}
	if len(reqBody.TriggerAt) > 0 && string(reqBody.TriggerAt) != "null" {
		triggerAt, err := reminder.ParseTriggerAt(reqBody.TriggerAt)
		if err != nil {
			return errors.BadRequest("invalid request data")
		}
		update = update.Set(expression.Name(reminder.AttrTriggerAt), expression.Value(triggerAt))
		changed = true
	}
	if !changed {
		return errors.BadRequest("no fields to update")
	}
	update = update.Set(expression.Name("updatedAt"), expression.Value(reminder.Timestamp(h.now())))

	condition := expression.AttributeExists(expression.Name(reminder.AttrReminderID)).
		And(expression.Name(reminder.AttrUserID).Equal(expression.Value(userID)))

	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(condition).Build()
	if err != nil {
		return errors.Internal(err)
	}

	out, err := h.DynamoClient.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(h.TableName),
		Key:                       dynamomapper.Key(userID, reminderID),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              dynamotypes.ReturnValueAllNew,
	})
	if err != nil {
		var conditionFailed *dynamotypes.ConditionalCheckFailedException
		if stderrors.As(err, &conditionFailed) {
			log.Info().Str("userId", userID).Str("reminderId", reminderID).Msg("reminder to edit not found")
			return errors.NotFound("reminder not found")
		}
		return errors.Internal(err)
	}

	updated, err := dynamomapper.FromItem(out.Attributes)
	if err != nil {
		return errors.Internal(err)
	}

	res, err := response.JSON(http.StatusOK, updated)
	if err != nil {
		return errors.Internal(err)
	}
	return res, nil
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}
