package websocket

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// ClientFrame is a control frame sent by the browser.
type ClientFrame struct {
	// Type is "read" to acknowledge a notification
	Type           string `json:"type"`
	NotificationID int64  `json:"notificationId,omitempty"`
}

// ReadMarker records that a user has seen a notification.
type ReadMarker interface {
	MarkReadByUser(ctx context.Context, userID, notificationID int64) error
}

// MessageHandler applies client frames.
type MessageHandler struct {
	reads   ReadMarker
	timeout time.Duration
	logger  zerolog.Logger
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(reads ReadMarker, logger zerolog.Logger) *MessageHandler {
	return &MessageHandler{reads: reads, timeout: 5 * time.Second, logger: logger}
}

// Handle processes one frame from userID. Unknown frame types are ignored.
func (h *MessageHandler) Handle(userID int64, frame ClientFrame) {
	switch frame.Type {
	case "read":
		if frame.NotificationID <= 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
		defer cancel()
		if err := h.reads.MarkReadByUser(ctx, userID, frame.NotificationID); err != nil {
			h.logger.Debug().Err(err).
				Int64("userID", userID).
				Int64("notificationID", frame.NotificationID).
				Msg("Failed to mark notification read from websocket")
		}
	default:
		h.logger.Debug().Str("type", frame.Type).Int64("userID", userID).Msg("Ignoring unknown client frame")
	}
}
