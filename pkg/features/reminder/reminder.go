// Package reminder holds the Reminder record shared by all handlers.
package reminder

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Slimo300/Smart-Reminder/pkg/features/notifier"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
)

// Attribute names in the reminders table.
const (
	AttrUserID     = "userId"
	AttrReminderID = "reminderId"
	AttrStatus     = "status"
	AttrTriggerAt  = "triggerAt"
)

// TimestampLayout is RFC 3339 with millisecond precision, always in UTC.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

type Reminder struct {
	UserID           string                 `json:"userId" dynamodbav:"userId"`
	ReminderID       string                 `json:"reminderId" dynamodbav:"reminderId"`
	Title            string                 `json:"title" dynamodbav:"title"`
	Description      string                 `json:"description" dynamodbav:"description"`
	TriggerAt        int64                  `json:"triggerAt" dynamodbav:"triggerAt"`
	CreatedAt        string                 `json:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt        string                 `json:"updatedAt" dynamodbav:"updatedAt"`
	Status           Status                 `json:"status" dynamodbav:"status"`
	NotificationType notifier.Channel       `json:"notificationType" dynamodbav:"notificationType"`
	Metadata         map[string]interface{} `json:"metadata" dynamodbav:"metadata"`
}

// Timestamp formats t the way createdAt and updatedAt are stored.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

var ErrInvalidTriggerAt = errors.New("triggerAt must be epoch milliseconds or an RFC 3339 timestamp")

// ParseTriggerAt accepts a JSON number of epoch milliseconds, a string
// holding such a number or an RFC 3339 timestamp, and returns epoch
// milliseconds.
func ParseTriggerAt(raw json.RawMessage) (int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, ErrInvalidTriggerAt
	}

	if raw[0] != '"' {
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return 0, ErrInvalidTriggerAt
		}
		return parseMillis(n.String())
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, ErrInvalidTriggerAt
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidTriggerAt
	}
	if millis, err := parseMillis(s); err == nil {
		return millis, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return 0, ErrInvalidTriggerAt
	}
	millis := t.UnixMilli()
	if millis < 0 {
		return 0, ErrInvalidTriggerAt
	}
	return millis, nil
}

func parseMillis(s string) (int64, error) {
	if millis, err := strconv.ParseInt(s, 10, 64); err == nil {
		if millis < 0 {
			return 0, ErrInvalidTriggerAt
		}
		return millis, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	// float64(math.MaxInt64) rounds up to 2^63, which no longer fits
	if err != nil || math.IsNaN(f) || f < 0 || f >= math.MaxInt64 {
		return 0, ErrInvalidTriggerAt
	}
	return int64(f), nil
}
