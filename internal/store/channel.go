package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/EliasObeid9-02/ChatLite/internal/models"
	"github.com/EliasObeid9-02/ChatLite/internal/snowflake"
)

// CreateChannel generates the channel ID and invite code and inserts the
// owner into the member set in the same transaction.
func (s *Store) CreateChannel(ctx context.Context, name string, description string, ownerID int64) (models.Channel, error) {
	var channel models.Channel

	if strings.TrimSpace(name) == "" {
		return channel, fmt.Errorf("%w: channel name is empty", ErrValidation)
	}

	channelID, err := snowflake.Generate()
	if err != nil {
		return channel, err
	}

	channel = models.Channel{
		ID:          channelID,
		OwnerID:     ownerID,
		Name:        name,
		Description: description,
		InviteCode:  uuid.NewString(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return channel, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, "INSERT INTO channels (id, owner_id, name, description, invite_code) VALUES (?, ?, ?, ?, ?)",
		channel.ID, channel.OwnerID, channel.Name, channel.Description, channel.InviteCode)
	if err != nil {
		return channel, err
	}

	_, err = tx.ExecContext(ctx, "INSERT INTO channel_members (channel_id, user_id) VALUES (?, ?)", channel.ID, ownerID)
	if err != nil {
		return channel, err
	}

	return channel, tx.Commit()
}

// JoinByInvite resolves the invite code and adds the user to the member
// set. Joining a channel the user is already in is a no-op. The lookup and
// the membership insert share a transaction so a join racing an invite
// rotation can't slip through with the old code.
func (s *Store) JoinByInvite(ctx context.Context, inviteCode string, userID int64) (models.Channel, error) {
	var channel models.Channel

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return channel, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, "SELECT id, owner_id, name, description, invite_code FROM channels WHERE invite_code = ?", inviteCode)
	channel, err = scanChannel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return channel, fmt.Errorf("%w: unknown invite code", ErrNotFound)
	} else if err != nil {
		return channel, err
	}

	_, err = tx.ExecContext(ctx, s.insertIgnore+" INTO channel_members (channel_id, user_id) VALUES (?, ?)", channel.ID, userID)
	if err != nil {
		return channel, err
	}

	return channel, tx.Commit()
}

// RotateInviteCode swaps in a fresh invite code, invalidating the old one
// immediately. Only the channel owner may rotate.
func (s *Store) RotateInviteCode(ctx context.Context, channelID int64, requesterID int64) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	var ownerID int64
	err = tx.QueryRowContext(ctx, "SELECT owner_id FROM channels WHERE id = ?", channelID).Scan(&ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: channel %d", ErrNotFound, channelID)
	} else if err != nil {
		return "", err
	}

	if ownerID != requesterID {
		return "", fmt.Errorf("%w: only the channel owner can rotate the invite code", ErrPermission)
	}

	newCode := uuid.NewString()

	_, err = tx.ExecContext(ctx, "UPDATE channels SET invite_code = ? WHERE id = ?", newCode, channelID)
	if err != nil {
		return "", err
	}

	return newCode, tx.Commit()
}

func (s *Store) IsMember(ctx context.Context, channelID int64, userID int64) (bool, error) {
	var isMember bool
	err := s.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM channel_members WHERE channel_id = ? AND user_id = ?)", channelID, userID).Scan(&isMember)
	if err != nil {
		return false, err
	}
	return isMember, nil
}

func (s *Store) ChannelByID(ctx context.Context, channelID int64) (models.Channel, error) {
	row := s.db.QueryRowContext(ctx, "SELECT id, owner_id, name, description, invite_code FROM channels WHERE id = ?", channelID)
	channel, err := scanChannel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return channel, fmt.Errorf("%w: channel %d", ErrNotFound, channelID)
	}
	return channel, err
}

// ChannelsOf lists the channels the user is a member of.
func (s *Store) ChannelsOf(ctx context.Context, userID int64) ([]models.Channel, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			c.id, c.owner_id, c.name, c.description, c.invite_code
		FROM
			channels c
		JOIN
			channel_members m ON c.id = m.channel_id
		WHERE
			m.user_id = ?`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	channels := []models.Channel{}

	for rows.Next() {
		channel, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, channel)
	}

	return channels, rows.Err()
}

func (s *Store) MemberCount(ctx context.Context, channelID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM channel_members WHERE channel_id = ?", channelID).Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChannel(row rowScanner) (models.Channel, error) {
	var channel models.Channel
	var description sql.NullString

	err := row.Scan(&channel.ID, &channel.OwnerID, &channel.Name, &description, &channel.InviteCode)
	if err != nil {
		return channel, err
	}

	channel.Description = description.String
	return channel, nil
}
