package notifier

import (
	"encoding/json"
	"errors"
	"fmt"
)

type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelPush  Channel = "push"
)

var ErrUnsupportedChannel = errors.New("unsupported notification type")

// Valid reports whether c is one of the known channels.
func (c Channel) Valid() bool {
	switch c {
	case ChannelEmail, ChannelSMS, ChannelPush:
		return true
	default:
		return false
	}
}

// Message is implemented only by the three channel payloads below.
type Message interface {
	Channel() Channel
	sealed()
}

type EmailMessage struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type SMSMessage struct {
	PhoneNumber string `json:"phoneNumber"`
	Message     string `json:"message"`
}

// PushMessage is published as is, with SNS MessageStructure "json".
type PushMessage struct {
	Payload map[string]interface{}
}

func (EmailMessage) Channel() Channel { return ChannelEmail }
func (SMSMessage) Channel() Channel   { return ChannelSMS }
func (PushMessage) Channel() Channel  { return ChannelPush }

func (EmailMessage) sealed() {}
func (SMSMessage) sealed()   {}
func (PushMessage) sealed()  {}

// DecodeMessage builds the payload for channel from its JSON content.
func DecodeMessage(channel Channel, content json.RawMessage) (Message, error) {
	switch channel {
	case ChannelEmail:
		var m EmailMessage
		if err := json.Unmarshal(content, &m); err != nil {
			return nil, fmt.Errorf("decoding email content: %w", err)
		}
		return m, nil
	case ChannelSMS:
		var m SMSMessage
		if err := json.Unmarshal(content, &m); err != nil {
			return nil, fmt.Errorf("decoding sms content: %w", err)
		}
		return m, nil
	case ChannelPush:
		var payload map[string]interface{}
		if err := json.Unmarshal(content, &payload); err != nil {
			return nil, fmt.Errorf("decoding push content: %w", err)
		}
		return PushMessage{Payload: payload}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedChannel, channel)
	}
}
