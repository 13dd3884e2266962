package errors

import (
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog/log"

	"github.com/Slimo300/Smart-Reminder/pkg/features/response"
)

func ErrorResponse(message string, code int) (events.APIGatewayProxyResponse, error) {
	res, err := response.JSON(code, map[string]string{
		"message": message,
	})
	if err != nil {
		// a map of strings always marshals, keep the status code anyway
		return events.APIGatewayProxyResponse{StatusCode: code, Headers: response.Headers()}, nil
	}

	return res, nil
}

// Internal logs err and returns a generic internal server error,
// the cause never reaches the caller.
func Internal(err error) (events.APIGatewayProxyResponse, error) {
	log.Error().Err(err).Msg("internal server error")
	return ErrorResponse("internal server error", http.StatusInternalServerError)
}

// It returns unauthorized response with given message
func Unauthorized(message string) (events.APIGatewayProxyResponse, error) {
	return ErrorResponse(message, http.StatusUnauthorized)
}

// It returns bad request response with given message
func BadRequest(message string) (events.APIGatewayProxyResponse, error) {
	return ErrorResponse(message, http.StatusBadRequest)
}

// NotFound is also used when the record belongs to somebody else,
// so callers can't tell the two cases apart.
func NotFound(message string) (events.APIGatewayProxyResponse, error) {
	return ErrorResponse(message, http.StatusNotFound)
}
