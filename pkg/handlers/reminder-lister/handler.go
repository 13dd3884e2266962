package reminderlister

import (
	"context"
	"net/http"
	"strconv"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/Slimo300/Smart-Reminder/pkg/features/auth"
	"github.com/Slimo300/Smart-Reminder/pkg/features/dynamomapper"
	"github.com/Slimo300/Smart-Reminder/pkg/features/errors"
	"github.com/Slimo300/Smart-Reminder/pkg/features/reminder"
	"github.com/Slimo300/Smart-Reminder/pkg/features/response"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

type Handler struct {
	DynamoClient dynamodb.QueryAPIClient
	TableName    string
}

type Page struct {
	Items     []reminder.Reminder `json:"items"`
	NextToken *string             `json:"nextToken"`
}

func (h *Handler) Handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {

	userID, ok := auth.UserID(request)
	if !ok {
		return errors.Unauthorized("authorization data not found")
	}

	limit := DefaultLimit
	if raw := request.QueryStringParameters["limit"]; raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > MaxLimit {
			return errors.BadRequest("limit must be a number between 1 and 100")
		}
		limit = parsed
	}

	input := &dynamodb.QueryInput{
		TableName:              aws.String(h.TableName),
		KeyConditionExpression: aws.String("#userId = :userId"),
		ExpressionAttributeNames: map[string]string{
			"#userId": reminder.AttrUserID,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":userId": &types.AttributeValueMemberS{Value: userID},
		},
		// reminderId is a random UUID, so pages come in a stable but
		// otherwise meaningless order
		Limit: aws.Int32(int32(limit)),
	}

	if token := request.QueryStringParameters["nextToken"]; token != "" {
		startKey, err := dynamomapper.DecodeToken(token)
		if err != nil {
			return errors.BadRequest("invalid nextToken")
		}
		// a token can only continue the caller's own listing
		if owner, ok := startKey[reminder.AttrUserID].(*types.AttributeValueMemberS); !ok || owner.Value != userID {
			return errors.BadRequest("invalid nextToken")
		}
		input.ExclusiveStartKey = startKey
	}

	out, err := h.DynamoClient.Query(ctx, input)
	if err != nil {
		return errors.Internal(err)
	}

	items, err := dynamomapper.FromItems(out.Items)
	if err != nil {
		return errors.Internal(err)
	}

	page := Page{Items: items}
	nextToken, err := dynamomapper.EncodeToken(out.LastEvaluatedKey)
	if err != nil {
		return errors.Internal(err)
	}
	if nextToken != "" {
		page.NextToken = &nextToken
	}

	res, err := response.JSON(http.StatusOK, page)
	if err != nil {
		return errors.Internal(err)
	}
	return res, nil
}
