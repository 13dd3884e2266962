// Package notifier forwards a notification to the transport of its channel:
// SES for email, SNS for SMS and SNS topic publish for push.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
)

type SesApiClient interface {
	SendEmail(context.Context, *ses.SendEmailInput, ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SnsApiClient interface {
	Publish(context.Context, *sns.PublishInput, ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Notifier struct {
	SesClient     SesApiClient
	SnsClient     SnsApiClient
	EmailSender   string
	PushTargetArn string
}

// Send routes msg to its transport. There is no retry.
func (n *Notifier) Send(ctx context.Context, userID string, msg Message) error {
	switch m := msg.(type) {
	case EmailMessage:
		return n.sendEmail(ctx, m)
	case SMSMessage:
		return n.sendSMS(ctx, m)
	case PushMessage:
		return n.sendPush(ctx, userID, m)
	default:
		return ErrUnsupportedChannel
	}
}

func (n *Notifier) sendEmail(ctx context.Context, m EmailMessage) error {
	if _, err := n.SesClient.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(n.EmailSender),
		Destination: &sestypes.Destination{
			ToAddresses: []string{m.To},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(m.Subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(m.Body)},
			},
		},
	}); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	return nil
}

func (n *Notifier) sendSMS(ctx context.Context, m SMSMessage) error {
	if _, err := n.SnsClient.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(m.PhoneNumber),
		Message:     aws.String(m.Message),
	}); err != nil {
		return fmt.Errorf("sending sms: %w", err)
	}
	return nil
}

func (n *Notifier) sendPush(ctx context.Context, userID string, m PushMessage) error {
	payload, err := json.Marshal(m.Payload)
	if err != nil {
		return fmt.Errorf("encoding push payload: %w", err)
	}

	input := &sns.PublishInput{
		TargetArn:        aws.String(n.PushTargetArn),
		Message:          aws.String(string(payload)),
		MessageStructure: aws.String("json"),
	}
	// SNS rejects empty attribute values
	if userID != "" {
		input.MessageAttributes = map[string]snstypes.MessageAttributeValue{
			"userId": {
				DataType:    aws.String("String"),
				StringValue: aws.String(userID),
			},
		}
	}

	if _, err := n.SnsClient.Publish(ctx, input); err != nil {
		return fmt.Errorf("sending push notification: %w", err)
	}
	return nil
}
