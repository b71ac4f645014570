package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Directory resolves user ids to display attributes. This core never
// mutates user records; the identity system owns them.
type Directory interface {
	Resolve(ctx context.Context, id uuid.UUID) (*DisplayInfo, error)
}

type PostgresDirectory struct {
	db *sql.DB
}

func NewPostgresDirectory(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

func (d *PostgresDirectory) Resolve(ctx context.Context, id uuid.UUID) (*DisplayInfo, error) {
	var (
		username  string
		avatarURL sql.NullString
	)
	err := d.db.QueryRowContext(ctx, `
		SELECT username, avatar_url FROM users WHERE id = $1
	`, id).Scan(&username, &avatarURL)
	if errors.Is(err, sql.ErrNoRows) {
		return &DisplayInfo{ID: id}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user %s: %w", id, err)
	}

	info := &DisplayInfo{ID: id, Username: &username}
	if avatarURL.Valid {
		info.AvatarURL = &avatarURL.String
	}
	return info, nil
}
