package reminderlister_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Slimo300/Smart-Reminder/pkg/features/dynamomapper"
	reminderlister "github.com/Slimo300/Smart-Reminder/pkg/handlers/reminder-lister"
)

type mockDynamoDB struct {
	dynamodb.QueryAPIClient
	outputs []*dynamodb.QueryOutput
	inputs  []*dynamodb.QueryInput
	err     error
}

func (d *mockDynamoDB) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	d.inputs = append(d.inputs, in)
	if d.err != nil {
		return nil, d.err
	}
	out := d.outputs[0]
	d.outputs = d.outputs[1:]
	return out, nil
}

func item(userID, reminderID, title string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"userId":           &types.AttributeValueMemberS{Value: userID},
		"reminderId":       &types.AttributeValueMemberS{Value: reminderID},
		"title":            &types.AttributeValueMemberS{Value: title},
		"triggerAt":        &types.AttributeValueMemberN{Value: "1735725600000"},
		"status":           &types.AttributeValueMemberS{Value: "pending"},
		"notificationType": &types.AttributeValueMemberS{Value: "email"},
	}
}

func request(sub string, query map[string]string) events.APIGatewayProxyRequest {
	return events.APIGatewayProxyRequest{
		QueryStringParameters: query,
		RequestContext: events.APIGatewayProxyRequestContext{
			Authorizer: map[string]interface{}{
				"claims": map[string]interface{}{
					"sub": sub,
				},
			},
		},
	}
}

func TestHandlerValidation(t *testing.T) {
	foreignToken, err := dynamomapper.EncodeToken(dynamomapper.Key("2", "r1"))
	require.NoError(t, err)

	testCases := []struct {
		name               string
		request            events.APIGatewayProxyRequest
		expectedBody       string
		expectedStatusCode int
	}{
		{
			name: "no authorizer",
			request: events.APIGatewayProxyRequest{
				RequestContext: events.APIGatewayProxyRequestContext{},
			},
			expectedBody:       `{"message":"authorization data not found"}`,
			expectedStatusCode: 401,
		},
		{
			name:               "limit not a number",
			request:            request("1", map[string]string{"limit": "ten"}),
			expectedBody:       `{"message":"limit must be a number between 1 and 100"}`,
			expectedStatusCode: 400,
		},
		{
			name:               "limit too big",
			request:            request("1", map[string]string{"limit": "101"}),
			expectedBody:       `{"message":"limit must be a number between 1 and 100"}`,
			expectedStatusCode: 400,
		},
		{
			name:               "garbage token",
			request:            request("1", map[string]string{"nextToken": "!!"}),
			expectedBody:       `{"message":"invalid nextToken"}`,
			expectedStatusCode: 400,
		},
		{
			name:               "token of another user",
			request:            request("1", map[string]string{"nextToken": foreignToken}),
			expectedBody:       `{"message":"invalid nextToken"}`,
			expectedStatusCode: 400,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			dynamo := &mockDynamoDB{}
			handler := reminderlister.Handler{DynamoClient: dynamo, TableName: "Reminders"}

			response, err := handler.Handle(context.Background(), testCase.request)
			require.NoError(t, err)
			assert.Equal(t, testCase.expectedBody, response.Body)
			assert.Equal(t, testCase.expectedStatusCode, response.StatusCode)
			assert.Empty(t, dynamo.inputs)
		})
	}
}

func TestHandlerNoData(t *testing.T) {
	dynamo := &mockDynamoDB{outputs: []*dynamodb.QueryOutput{{Items: []map[string]types.AttributeValue{}}}}
	handler := reminderlister.Handler{DynamoClient: dynamo, TableName: "Reminders"}

	response, err := handler.Handle(context.Background(), request("1", nil))
	require.NoError(t, err)

	assert.Equal(t, 200, response.StatusCode)
	assert.JSONEq(t, `{"items":[],"nextToken":null}`, response.Body)

	require.Len(t, dynamo.inputs, 1)
	in := dynamo.inputs[0]
	assert.Equal(t, int32(10), *in.Limit)
	assert.Nil(t, in.ScanIndexForward)
	assert.Nil(t, in.ExclusiveStartKey)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "1"}, in.ExpressionAttributeValues[":userId"])
}

func TestHandlerPagination(t *testing.T) {
	dynamo := &mockDynamoDB{outputs: []*dynamodb.QueryOutput{
		{
			Items:            []map[string]types.AttributeValue{item("1", "r3", "c"), item("1", "r2", "b")},
			LastEvaluatedKey: dynamomapper.Key("1", "r2"),
		},
		{
			Items: []map[string]types.AttributeValue{item("1", "r1", "a")},
		},
	}}
	handler := reminderlister.Handler{DynamoClient: dynamo, TableName: "Reminders"}

	first, err := handler.Handle(context.Background(), request("1", map[string]string{"limit": "2"}))
	require.NoError(t, err)
	require.Equal(t, 200, first.StatusCode)

	var page struct {
		Items []struct {
			ReminderID string `json:"reminderId"`
		} `json:"items"`
		NextToken *string `json:"nextToken"`
	}
	require.NoError(t, json.Unmarshal([]byte(first.Body), &page))
	require.Len(t, page.Items, 2)
	assert.Equal(t, "r3", page.Items[0].ReminderID)
	require.NotNil(t, page.NextToken)

	second, err := handler.Handle(context.Background(), request("1", map[string]string{"limit": "2", "nextToken": *page.NextToken}))
	require.NoError(t, err)
	require.Equal(t, 200, second.StatusCode)

	page.NextToken = nil
	require.NoError(t, json.Unmarshal([]byte(second.Body), &page))
	require.Len(t, page.Items, 1)
	assert.Nil(t, page.NextToken)

	require.Len(t, dynamo.inputs, 2)
	assert.Equal(t, dynamomapper.Key("1", "r2"), dynamo.inputs[1].ExclusiveStartKey)
}

func TestHandlerStoreFailure(t *testing.T) {
	dynamo := &mockDynamoDB{err: errors.New("some error")}
	handler := reminderlister.Handler{DynamoClient: dynamo, TableName: "Reminders"}

	response, err := handler.Handle(context.Background(), request("1", nil))
	require.NoError(t, err)
	assert.Equal(t, 500, response.StatusCode)
	assert.Equal(t, `{"message":"internal server error"}`, response.Body)
}
