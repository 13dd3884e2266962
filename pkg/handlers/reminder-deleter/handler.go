package reminderdeleter

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
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
	DeleteItem(context.Context, *dynamodb.DeleteItemInput, ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

type Handler struct {
	DynamoClient DynamoApiClient
	TableName    string
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

	if _, err := h.DynamoClient.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(h.TableName),
		Key:                 dynamomapper.Key(userID, reminderID),
		ConditionExpression: aws.String("#userId = :userId"),
		ExpressionAttributeNames: map[string]string{
			"#userId": reminder.AttrUserID,
		},
		ExpressionAttributeValues: map[string]dynamotypes.AttributeValue{
			":userId": &dynamotypes.AttributeValueMemberS{Value: userID},
		},
		ReturnValues: dynamotypes.ReturnValueAllOld,
	}); err != nil {
		// Absent and foreign reminders both fail the condition and get the
		// same answer.
		var conditionFailed *dynamotypes.ConditionalCheckFailedException
		if stderrors.As(err, &conditionFailed) {
			log.Info().Str("userId", userID).Str("reminderId", reminderID).Msg("reminder to delete not found")
			return errors.NotFound("reminder not found")
		}
		return errors.Internal(err)
	}

	return response.Empty(http.StatusNoContent), nil
}
