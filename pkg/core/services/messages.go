package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/locum-dental/pkg/core/apperr"
	"github.com/jakechorley/locum-dental/pkg/core/messagegate"
	"github.com/jakechorley/locum-dental/pkg/db"
	"github.com/jakechorley/locum-dental/pkg/session"
)

// MessageStore defines the database operations needed for booking chat
type MessageStore interface {
	GetBookingView(ctx context.Context, id string) (*db.BookingView, error)
	InsertMessage(ctx context.Context, message *db.Message) error
	GetMessages(ctx context.Context, bookingID string) ([]db.Message, error)
}

// SendMessage screens text through the gate and appends it to the booking's chat.
// Blocked text is never written. Returns the conversation re-read after the insert.
func SendMessage(ctx context.Context, store MessageStore, gate *messagegate.Gate, logger *zap.Logger, s *session.Session, bookingID, text string) ([]db.Message, error) {
	const op = "send message"

	if err := requireSession(op, s); err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.Rejected(op, "message is empty")
	}

	if verdict := gate.Validate(text); !verdict.Allowed {
		logger.Info("Message blocked",
			zap.String("booking_id", bookingID),
			zap.String("sender_id", s.ProfileID),
			zap.String("rule", verdict.Rule))
		return nil, apperr.Rejected(op, messagegate.RejectionMessage)
	}

	if _, err := loadParticipantView(ctx, store, op, s, bookingID); err != nil {
		return nil, err
	}

	message := &db.Message{
		ID:        uuid.New().String(),
		BookingID: bookingID,
		SenderID:  s.ProfileID,
		Body:      text,
	}
	if err := store.InsertMessage(ctx, message); err != nil {
		return nil, apperr.Upstream(op, err)
	}

	logger.Debug("Message sent", zap.String("booking_id", bookingID), zap.String("message_id", message.ID))

	messages, err := store.GetMessages(ctx, bookingID)
	if err != nil {
		return nil, apperr.Upstream(op, err)
	}
	return messages, nil
}

// ListMessages returns a booking's chat, oldest first, to one of its participants
func ListMessages(ctx context.Context, store MessageStore, logger *zap.Logger, s *session.Session, bookingID string) ([]db.Message, error) {
	const op = "list messages"

	if _, err := loadParticipantView(ctx, store, op, s, bookingID); err != nil {
		return nil, err
	}

	messages, err := store.GetMessages(ctx, bookingID)
	if err != nil {
		return nil, apperr.Upstream(op, err)
	}

	logger.Debug("Listed messages", zap.String("booking_id", bookingID), zap.Int("count", len(messages)))
	return messages, nil
}
