package remindersender_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Slimo300/Smart-Reminder/pkg/features/dynamomapper"
	"github.com/Slimo300/Smart-Reminder/pkg/features/notifier"
	"github.com/Slimo300/Smart-Reminder/pkg/features/reminder"
	remindersender "github.com/Slimo300/Smart-Reminder/pkg/handlers/reminder-sender"
)

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type mockDynamoDB struct {
	pages   []*dynamodb.ScanOutput
	scanErr error

	scanInputs   []*dynamodb.ScanInput
	updateInputs []*dynamodb.UpdateItemInput
	updateErr    map[string]error
}

func (m *mockDynamoDB) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	m.scanInputs = append(m.scanInputs, in)
	if m.scanErr != nil {
		return nil, m.scanErr
	}
	page := m.pages[0]
	m.pages = m.pages[1:]
	return page, nil
}

func (m *mockDynamoDB) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	m.updateInputs = append(m.updateInputs, in)
	id := in.Key["reminderId"].(*types.AttributeValueMemberS).Value
	if err := m.updateErr[id]; err != nil {
		return nil, err
	}
	return &dynamodb.UpdateItemOutput{}, nil
}

type sent struct {
	userID string
	msg    notifier.Message
}

type mockNotifier struct {
	sent []sent
	err  error
}

func (n *mockNotifier) Send(_ context.Context, userID string, msg notifier.Message) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sent{userID: userID, msg: msg})
	return nil
}

func item(t *testing.T, r reminder.Reminder) map[string]types.AttributeValue {
	t.Helper()
	r.Status = reminder.StatusPending
	it, err := dynamomapper.ToItem(r)
	require.NoError(t, err)
	return it
}

func TestRunDeliversAndMarks(t *testing.T) {
	dynamo := &mockDynamoDB{pages: []*dynamodb.ScanOutput{
		{
			Items: []map[string]types.AttributeValue{
				item(t, reminder.Reminder{UserID: "u1", ReminderID: "r1", Title: "dentist", NotificationType: notifier.ChannelEmail, Metadata: map[string]interface{}{"email": "a@example.com"}}),
			},
			LastEvaluatedKey: dynamomapper.Key("u1", "r1"),
		},
		{
			Items: []map[string]types.AttributeValue{
				item(t, reminder.Reminder{UserID: "u2", ReminderID: "r2", Title: "pills", NotificationType: notifier.ChannelSMS, Metadata: map[string]interface{}{"phoneNumber": "+48123123123"}}),
				item(t, reminder.Reminder{UserID: "u3", ReminderID: "r3", Title: "call", NotificationType: notifier.ChannelPush}),
			},
		},
	}}
	notify := &mockNotifier{}
	handler := remindersender.Handler{DynamoClient: dynamo, Notifier: notify, TableName: "Reminders", Now: func() time.Time { return now }}

	result, err := handler.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, remindersender.Result{Sent: 3}, result)

	require.Len(t, dynamo.scanInputs, 2)
	assert.Equal(t, dynamomapper.Key("u1", "r1"), dynamo.scanInputs[1].ExclusiveStartKey)
	assert.Equal(t, &types.AttributeValueMemberN{Value: "1740830400000"}, dynamo.scanInputs[0].ExpressionAttributeValues[":now"])

	require.Len(t, notify.sent, 3)
	assert.Equal(t, notifier.EmailMessage{To: "a@example.com", Subject: "Reminder: dentist", Body: "dentist"}, notify.sent[0].msg)
	assert.Equal(t, notifier.SMSMessage{PhoneNumber: "+48123123123", Message: "Reminder: pills"}, notify.sent[1].msg)
	assert.Equal(t, "u3", notify.sent[2].userID)
	assert.Equal(t, notifier.ChannelPush, notify.sent[2].msg.Channel())

	require.Len(t, dynamo.updateInputs, 3)
	for _, in := range dynamo.updateInputs {
		assert.Equal(t, "#status = :pending", aws.ToString(in.ConditionExpression))
		assert.Equal(t, &types.AttributeValueMemberS{Value: "sent"}, in.ExpressionAttributeValues[":sent"])
	}
}

func TestRunCountsFailures(t *testing.T) {
	dynamo := &mockDynamoDB{
		pages: []*dynamodb.ScanOutput{{
			Items: []map[string]types.AttributeValue{
				item(t, reminder.Reminder{UserID: "u1", ReminderID: "no-address", Title: "x", NotificationType: notifier.ChannelSMS}),
				item(t, reminder.Reminder{UserID: "u1", ReminderID: "raced", Title: "y", NotificationType: notifier.ChannelPush}),
				item(t, reminder.Reminder{UserID: "u1", ReminderID: "ok", Title: "z", NotificationType: notifier.ChannelPush}),
			},
		}},
		updateErr: map[string]error{
			"raced": &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")},
		},
	}
	notify := &mockNotifier{}
	handler := remindersender.Handler{DynamoClient: dynamo, Notifier: notify, TableName: "Reminders", Now: func() time.Time { return now }}

	result, err := handler.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, remindersender.Result{Sent: 1, Failed: 2}, result)
	assert.Len(t, notify.sent, 2)
	assert.Len(t, dynamo.updateInputs, 2)
}

func TestRunTransportFailureLeavesPending(t *testing.T) {
	dynamo := &mockDynamoDB{pages: []*dynamodb.ScanOutput{{
		Items: []map[string]types.AttributeValue{
			item(t, reminder.Reminder{UserID: "u1", ReminderID: "r1", Title: "x", NotificationType: notifier.ChannelPush}),
		},
	}}}
	handler := remindersender.Handler{DynamoClient: dynamo, Notifier: &mockNotifier{err: errors.New("throttled")}, TableName: "Reminders"}

	result, err := handler.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, remindersender.Result{Failed: 1}, result)
	assert.Empty(t, dynamo.updateInputs)
}

func TestRunLogLevels(t *testing.T) {
	testCases := []struct {
		name        string
		reminder    reminder.Reminder
		notifyErr   error
		expectError bool
	}{
		{
			name:     "missing address stays out of the error log",
			reminder: reminder.Reminder{UserID: "u1", ReminderID: "r1", Title: "x", NotificationType: notifier.ChannelEmail},
		},
		{
			name:        "transport failure is an error",
			reminder:    reminder.Reminder{UserID: "u1", ReminderID: "r1", Title: "x", NotificationType: notifier.ChannelPush},
			notifyErr:   errors.New("throttled"),
			expectError: true,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			dynamo := &mockDynamoDB{pages: []*dynamodb.ScanOutput{{
				Items: []map[string]types.AttributeValue{item(t, testCase.reminder)},
			}}}

			var logs bytes.Buffer
			logger := zerolog.New(&logs).Level(zerolog.InfoLevel)
			handler := remindersender.Handler{
				DynamoClient: dynamo,
				Notifier:     &mockNotifier{err: testCase.notifyErr},
				TableName:    "Reminders",
				Now:          func() time.Time { return now },
				Logger:       &logger,
			}

			result, err := handler.Run(context.Background())
			require.NoError(t, err)
			assert.Equal(t, remindersender.Result{Failed: 1}, result)
			assert.Empty(t, dynamo.updateInputs)

			assert.Contains(t, logs.String(), "scheduled reminders processed")
			if testCase.expectError {
				assert.Contains(t, logs.String(), `"level":"error"`)
			} else {
				assert.NotContains(t, logs.String(), `"level":"error"`)
				assert.NotContains(t, logs.String(), "failed to send reminder")
			}
		})
	}
}

func TestHandle(t *testing.T) {
	t.Run("scan failure", func(t *testing.T) {
		dynamo := &mockDynamoDB{scanErr: errors.New("some error")}
		handler := remindersender.Handler{DynamoClient: dynamo, Notifier: &mockNotifier{}, TableName: "Reminders"}

		response, err := handler.Handle(context.Background(), events.CloudWatchEvent{})
		require.NoError(t, err)
		assert.Equal(t, 500, response.StatusCode)
		assert.Equal(t, `{"message":"internal server error"}`, response.Body)
	})

	t.Run("nothing due", func(t *testing.T) {
		dynamo := &mockDynamoDB{pages: []*dynamodb.ScanOutput{{}}}
		handler := remindersender.Handler{DynamoClient: dynamo, Notifier: &mockNotifier{}, TableName: "Reminders"}

		response, err := handler.Handle(context.Background(), events.CloudWatchEvent{})
		require.NoError(t, err)
		assert.Equal(t, 200, response.StatusCode)
		assert.JSONEq(t, `{"sent":0,"failed":0}`, response.Body)
	})
}

func TestBuildMessage(t *testing.T) {
	testCases := []struct {
		name        string
		reminder    reminder.Reminder
		expected    notifier.Message
		expectedErr error
	}{
		{
			name:     "email with description",
			reminder: reminder.Reminder{Title: "t", Description: "d", NotificationType: notifier.ChannelEmail, Metadata: map[string]interface{}{"email": "a@b.c"}},
			expected: notifier.EmailMessage{To: "a@b.c", Subject: "Reminder: t", Body: "t\nd"},
		},
		{
			name:        "email without address",
			reminder:    reminder.Reminder{Title: "t", NotificationType: notifier.ChannelEmail, Metadata: map[string]interface{}{}},
			expectedErr: remindersender.ErrMissingAddress,
		},
		{
			name:        "sms address of wrong type",
			reminder:    reminder.Reminder{Title: "t", NotificationType: notifier.ChannelSMS, Metadata: map[string]interface{}{"phoneNumber": 123}},
			expectedErr: remindersender.ErrMissingAddress,
		},
		{
			name:     "push",
			reminder: reminder.Reminder{ReminderID: "r", Title: "t", NotificationType: notifier.ChannelPush},
			expected: notifier.PushMessage{Payload: map[string]interface{}{
				"default": "Reminder: t", "title": "t", "description": "", "reminderId": "r",
			}},
		},
		{
			name:        "unknown channel",
			reminder:    reminder.Reminder{Title: "t", NotificationType: "fax"},
			expectedErr: notifier.ErrUnsupportedChannel,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			msg, err := remindersender.BuildMessage(testCase.reminder)
			if testCase.expectedErr != nil {
				assert.ErrorIs(t, err, testCase.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, testCase.expected, msg)
		})
	}
}
