package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/EliasObeid9-02/ChatLite/internal/models"
)

// CreateUser inserts the account together with its profile fields
// (display name, picture) as one statement. There is no separate profile
// row to forget about. A username that got taken since the caller last
// looked comes back as ErrValidation, not as a bare driver error.
func (s *Store) CreateUser(ctx context.Context, user models.User) error {
	_, err := s.db.ExecContext(ctx, "INSERT INTO users (id, username, email, display_name, picture, password) VALUES (?, ?, ?, ?, ?, ?)",
		user.ID, user.Username, user.Email, user.DisplayName, user.Picture, user.Password)
	if err != nil && isDuplicateKey(err) {
		return fmt.Errorf("%w: username %s is already taken", ErrValidation, user.Username)
	}
	return err
}

func (s *Store) UserByID(ctx context.Context, userID int64) (models.User, error) {
	var user models.User
	var picture sql.NullString

	err := s.db.QueryRowContext(ctx, "SELECT id, username, display_name, picture FROM users WHERE id = ?", userID).
		Scan(&user.ID, &user.Username, &user.DisplayName, &picture)
	if errors.Is(err, sql.ErrNoRows) {
		return user, fmt.Errorf("%w: user %d", ErrNotFound, userID)
	} else if err != nil {
		return user, err
	}

	user.Picture = picture.String
	if user.Picture == "" {
		user.Picture = models.DefaultAvatar
	}
	return user, nil
}

func (s *Store) UserByUsername(ctx context.Context, username string) (models.User, error) {
	var user models.User
	var picture sql.NullString

	err := s.db.QueryRowContext(ctx, "SELECT id, username, display_name, picture, password FROM users WHERE username = ?", username).
		Scan(&user.ID, &user.Username, &user.DisplayName, &picture, &user.Password)
	if errors.Is(err, sql.ErrNoRows) {
		return user, fmt.Errorf("%w: user %s", ErrNotFound, username)
	} else if err != nil {
		return user, err
	}

	user.Picture = picture.String
	return user, nil
}

func (s *Store) UserExists(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE id = ?)", userID).Scan(&exists)
	return exists, err
}
