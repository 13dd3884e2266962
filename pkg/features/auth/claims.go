package auth

import "github.com/aws/aws-lambda-go/events"

// UserID extracts the principal id ("sub" claim) put into the request
// context by the Cognito authorizer.
func UserID(request events.APIGatewayProxyRequest) (string, bool) {
	claims, ok := request.RequestContext.Authorizer["claims"].(map[string]interface{})
	if !ok {
		return "", false
	}
	userID, ok := claims["sub"].(string)
	if !ok || userID == "" {
		return "", false
	}
	return userID, true
}
