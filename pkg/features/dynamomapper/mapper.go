package dynamomapper

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/Slimo300/Smart-Reminder/pkg/features/reminder"
)

var (
	ErrMissingKey   = errors.New("item has no primary key")
	ErrInvalidToken = errors.New("invalid page token")
)

// Key builds the primary key of a reminder.
func Key(userID, reminderID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		reminder.AttrUserID:     &types.AttributeValueMemberS{Value: userID},
		reminder.AttrReminderID: &types.AttributeValueMemberS{Value: reminderID},
	}
}

// KeyFromItem keeps only the key attributes of item.
func KeyFromItem(item map[string]types.AttributeValue) (map[string]types.AttributeValue, error) {
	userID, ok := item[reminder.AttrUserID].(*types.AttributeValueMemberS)
	if !ok {
		return nil, ErrMissingKey
	}
	reminderID, ok := item[reminder.AttrReminderID].(*types.AttributeValueMemberS)
	if !ok {
		return nil, ErrMissingKey
	}
	return Key(userID.Value, reminderID.Value), nil
}

func ToItem(r reminder.Reminder) (map[string]types.AttributeValue, error) {
	if r.Metadata == nil {
		r.Metadata = map[string]interface{}{}
	}
	item, err := attributevalue.MarshalMap(r)
	if err != nil {
		return nil, fmt.Errorf("marshalling reminder: %w", err)
	}
	return item, nil
}

func FromItem(item map[string]types.AttributeValue) (reminder.Reminder, error) {
	var r reminder.Reminder
	if err := attributevalue.UnmarshalMap(item, &r); err != nil {
		return reminder.Reminder{}, fmt.Errorf("unmarshalling reminder: %w", err)
	}
	if r.Metadata == nil {
		r.Metadata = map[string]interface{}{}
	}
	return r, nil
}

func FromItems(items []map[string]types.AttributeValue) ([]reminder.Reminder, error) {
	result := make([]reminder.Reminder, 0, len(items))
	for _, item := range items {
		r, err := FromItem(item)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, nil
}

// EncodeToken turns a LastEvaluatedKey into an opaque page token.
// An empty key yields an empty token.
func EncodeToken(lastKey map[string]types.AttributeValue) (string, error) {
	if len(lastKey) == 0 {
		return "", nil
	}

	var simple map[string]string
	if err := attributevalue.UnmarshalMap(lastKey, &simple); err != nil {
		return "", fmt.Errorf("encoding page token: %w", err)
	}
	raw, err := json.Marshal(simple)
	if err != nil {
		return "", fmt.Errorf("encoding page token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// DecodeToken reverses EncodeToken.
func DecodeToken(token string) (map[string]types.AttributeValue, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	var simple map[string]string
	if err := json.Unmarshal(raw, &simple); err != nil || len(simple) == 0 {
		return nil, ErrInvalidToken
	}

	key, err := attributevalue.MarshalMap(simple)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return key, nil
}
