package postgres

import (
	"context"
	"fmt"

	"github.com/jakechorley/locum-dental/pkg/db"
)

// InsertMessage appends a chat message. The creation time is assigned by the database.
func (d *DB) InsertMessage(ctx context.Context, message *db.Message) error {
	err := d.pool.QueryRow(ctx, `
		INSERT INTO messages (id, booking_id, sender_id, body)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, message.ID, message.BookingID, message.SenderID, message.Body).Scan(&message.CreatedAt)
	if err != nil {
		return storeErr("insert message", err)
	}
	return nil
}

// GetMessages retrieves the conversation of a booking, oldest first
func (d *DB) GetMessages(ctx context.Context, bookingID string) ([]db.Message, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, booking_id, sender_id, body, created_at
		FROM messages
		WHERE booking_id = $1
		ORDER BY created_at, id
	`, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []db.Message
	for rows.Next() {
		var m db.Message
		if err := rows.Scan(&m.ID, &m.BookingID, &m.SenderID, &m.Body, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	return messages, nil
}
