package store

import (
	"context"
	"fmt"
	"strings"
)

// ToggleReaction adds the (message, user, emoji) reaction if it is absent
// and removes it if present, reporting which happened. The add is a single
// conditional insert rather than a read followed by a write, so two
// concurrent toggles of the same key settle on exactly one final state.
func (s *Store) ToggleReaction(ctx context.Context, messageID int64, userID int64, emoji string) (bool, error) {
	if strings.TrimSpace(emoji) == "" {
		return false, fmt.Errorf("%w: emoji is empty", ErrValidation)
	}

	var messageExists bool
	err := s.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM messages WHERE id = ?)", messageID).Scan(&messageExists)
	if err != nil {
		return false, err
	}
	if !messageExists {
		return false, fmt.Errorf("%w: message %d", ErrNotFound, messageID)
	}

	result, err := s.db.ExecContext(ctx, s.insertIgnore+" INTO reactions (message_id, user_id, emoji) VALUES (?, ?, ?)", messageID, userID, emoji)
	if err != nil {
		return false, err
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if inserted > 0 {
		return true, nil
	}

	_, err = s.db.ExecContext(ctx, "DELETE FROM reactions WHERE message_id = ? AND user_id = ? AND emoji = ?", messageID, userID, emoji)
	return false, err
}

// ReactionCounts maps each emoji used on the message to how many users
// reacted with it. Emojis with no remaining reactions are absent.
func (s *Store) ReactionCounts(ctx context.Context, messageID int64) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT emoji, COUNT(*) FROM reactions WHERE message_id = ? GROUP BY emoji", messageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}

	for rows.Next() {
		var emoji string
		var count int
		if err := rows.Scan(&emoji, &count); err != nil {
			return nil, err
		}
		counts[emoji] = count
	}

	return counts, rows.Err()
}

// ReactedEmojis returns the set of emojis the user has reacted with on
// the message.
func (s *Store) ReactedEmojis(ctx context.Context, messageID int64, userID int64) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT emoji FROM reactions WHERE message_id = ? AND user_id = ?", messageID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reacted := map[string]struct{}{}

	for rows.Next() {
		var emoji string
		if err := rows.Scan(&emoji); err != nil {
			return nil, err
		}
		reacted[emoji] = struct{}{}
	}

	return reacted, rows.Err()
}
