package response

import (
	"encoding/json"

	"github.com/aws/aws-lambda-go/events"
)

// Headers returns the headers attached to every API Gateway response.
func Headers() map[string]string {
	return map[string]string{
		"Content-Type":                     "application/json",
		"Access-Control-Allow-Origin":      "*",
		"Access-Control-Allow-Headers":     "Content-Type",
		"Access-Control-Allow-Methods":     "OPTIONS, GET, POST, PATCH, DELETE",
		"Access-Control-Allow-Credentials": "true",
	}
}

// JSON marshals body and wraps it in a response with the given status code.
func JSON(code int, body interface{}) (events.APIGatewayProxyResponse, error) {
	responseJSON, err := json.Marshal(body)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}

	return events.APIGatewayProxyResponse{
		StatusCode: code,
		Headers:    Headers(),
		Body:       string(responseJSON),
	}, nil
}

// Empty returns a response without a body, e.g. 204 No Content.
func Empty(code int) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: code,
		Headers:    Headers(),
	}
}
