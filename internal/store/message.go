package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/EliasObeid9-02/ChatLite/internal/models"
	"github.com/EliasObeid9-02/ChatLite/internal/snowflake"
)

// AppendMessage stores a new message with a server-assigned timestamp.
// The timestamp never goes below the channel's previous message, so the
// per-channel order is authoritative here regardless of client clocks.
func (s *Store) AppendMessage(ctx context.Context, channelID int64, senderID int64, content string) (models.Message, error) {
	var msg models.Message

	if strings.TrimSpace(content) == "" {
		return msg, fmt.Errorf("%w: message content is empty", ErrValidation)
	}

	messageID, err := snowflake.Generate()
	if err != nil {
		return msg, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return msg, err
	}
	defer tx.Rollback()

	var channelExists bool
	err = tx.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM channels WHERE id = ?)", channelID).Scan(&channelExists)
	if err != nil {
		return msg, err
	}
	if !channelExists {
		return msg, fmt.Errorf("%w: channel %d", ErrNotFound, channelID)
	}

	var previousTimestamp int64
	err = tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(timestamp), 0) FROM messages WHERE channel_id = ?", channelID).Scan(&previousTimestamp)
	if err != nil {
		return msg, err
	}

	timestamp := s.now().UnixMilli()
	if timestamp < previousTimestamp {
		timestamp = previousTimestamp
	}

	msg = models.Message{
		ID:        messageID,
		ChannelID: channelID,
		SenderID:  senderID,
		Content:   content,
		Timestamp: timestamp,
	}

	_, err = tx.ExecContext(ctx, "INSERT INTO messages (id, channel_id, user_id, content, timestamp) VALUES (?, ?, ?, ?, ?)",
		msg.ID, msg.ChannelID, msg.SenderID, msg.Content, msg.Timestamp)
	if err != nil {
		return msg, err
	}

	return msg, tx.Commit()
}

// LastTwo returns at most the two most recent messages of the channel,
// newest first. Ties on timestamp fall back to insertion order via the ID.
func (s *Store) LastTwo(ctx context.Context, channelID int64) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, channel_id, user_id, content, timestamp FROM messages WHERE channel_id = ? ORDER BY timestamp DESC, id DESC LIMIT 2", channelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []models.Message{}

	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

// MessagesOf returns the full channel history in timestamp order with the
// senders' display fields joined in.
func (s *Store) MessagesOf(ctx context.Context, channelID int64) ([]models.MessageWithSender, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			m.id, m.channel_id, m.user_id, m.content, m.timestamp,
			u.display_name, u.picture
		FROM
			messages m
		LEFT JOIN
			users u ON m.user_id = u.id
		WHERE
			m.channel_id = ?
		ORDER BY
			m.timestamp ASC, m.id ASC`, channelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []models.MessageWithSender{}

	for rows.Next() {
		var entry models.MessageWithSender
		var senderID sql.NullInt64
		var displayName, picture sql.NullString

		err := rows.Scan(&entry.Message.ID, &entry.Message.ChannelID, &senderID,
			&entry.Message.Content, &entry.Message.Timestamp, &displayName, &picture)
		if err != nil {
			return nil, err
		}

		entry.Message.SenderID = senderID.Int64
		entry.Sender = models.User{
			ID:          senderID.Int64,
			DisplayName: displayName.String,
			Picture:     picture.String,
		}
		if entry.Sender.Picture == "" {
			entry.Sender.Picture = models.DefaultAvatar
		}

		messages = append(messages, entry)
	}

	return messages, rows.Err()
}

func scanMessage(row rowScanner) (models.Message, error) {
	var msg models.Message
	var senderID sql.NullInt64

	err := row.Scan(&msg.ID, &msg.ChannelID, &senderID, &msg.Content, &msg.Timestamp)
	if err != nil {
		return msg, err
	}

	msg.SenderID = senderID.Int64
	return msg, nil
}
