package store

import (
	"database/sql"
	"time"
)

// Store wraps the sql database with the channel membership and
// message/reaction operations. It is the single ordering authority for
// message timestamps.
type Store struct {
	db *sql.DB

	// "INSERT OR IGNORE" on sqlite, "INSERT IGNORE" on mysql/mariadb
	insertIgnore string

	now func() time.Time
}

func New(db *sql.DB, selfContained bool) *Store {
	insertIgnore := "INSERT IGNORE"
	if selfContained {
		insertIgnore = "INSERT OR IGNORE"
	}

	return &Store{
		db:           db,
		insertIgnore: insertIgnore,
		now:          time.Now,
	}
}
