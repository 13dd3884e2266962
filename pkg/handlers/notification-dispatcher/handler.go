package notificationdispatcher

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Slimo300/Smart-Reminder/pkg/features/notifier"
)

// Event is the payload other functions invoke the dispatcher with.
type Event struct {
	UserID  string           `json:"userId"`
	Type    notifier.Channel `json:"type"`
	Content json.RawMessage  `json:"content"`
}

type Sender interface {
	Send(ctx context.Context, userID string, msg notifier.Message) error
}

type Handler struct {
	Notifier Sender
	// Logger defaults to the global zerolog logger.
	Logger   *zerolog.Logger
}

// Handle returns the routing or transport error to the invoker as is.
func (h *Handler) Handle(ctx context.Context, event Event) error {

	msg, err := notifier.DecodeMessage(event.Type, event.Content)
	if err != nil {
		h.logger().Error().Err(err).Str("userId", event.UserID).Str("type", string(event.Type)).Msg("cannot dispatch notification")
		return err
	}

	if err := h.Notifier.Send(ctx, event.UserID, msg); err != nil {
		h.logger().Error().Err(err).Str("userId", event.UserID).Str("type", string(event.Type)).Msg("notification transport failed")
		return err
	}

	h.logger().Info().Str("userId", event.UserID).Str("type", string(event.Type)).Msg("notification dispatched")
	return nil
}

func (h *Handler) logger() *zerolog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return &log.Logger
}
