package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"

	"github.com/preesha73/chathub/server/domain"
	"github.com/preesha73/chathub/server/usecase"
)

type Repository struct {
	db *sql.DB
}

func New(db *sql.DB) usecase.Repository {
	return &Repository{db: db}
}

// Migrate creates the schema if it does not exist.
func Migrate(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			username      TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			display_name  TEXT NOT NULL,
			created_at    TIMESTAMP NOT NULL
		);
		CREATE TABLE IF NOT EXISTS messages (
			id          TEXT PRIMARY KEY,
			room        TEXT NOT NULL,
			sender_id   TEXT NOT NULL,
			sender_name TEXT NOT NULL,
			body        TEXT NOT NULL,
			created_at  TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_messages_room_created
			ON messages (room, created_at);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (r *Repository) CreateUser(ctx context.Context, user domain.Identity, username, passwordHash string) error {
	query := "INSERT INTO users (id, username, password_hash, display_name, created_at) VALUES (?, ?, ?, ?, ?)"
	if _, err := r.db.ExecContext(ctx, query, user.ID, username, passwordHash, user.DisplayName, time.Now().UTC()); err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return usecase.ErrAlreadyExists
		}
		return fmt.Errorf("failed to insert user '%s': %w", username, err)
	}
	return nil
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (domain.Identity, string, error) {
	query := "SELECT id, display_name, password_hash FROM users WHERE username = ?"

	var identity domain.Identity
	var hash string
	if err := r.db.QueryRowContext(ctx, query, username).Scan(&identity.ID, &identity.DisplayName, &hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Identity{}, "", usecase.ErrNotFound
		}
		return domain.Identity{}, "", fmt.Errorf("error querying user '%s': %w", username, err)
	}
	return identity, hash, nil
}

// SaveMessage assigns the message id and timestamp. ULIDs sort in creation
// order, which keeps the store the ordering authority for a room.
func (r *Repository) SaveMessage(ctx context.Context, room string, sender domain.Identity, body string) (domain.Message, error) {
	id := ulid.Make().String()
	createdAt := time.Now().UTC()

	query := "INSERT INTO messages (id, room, sender_id, sender_name, body, created_at) VALUES (?, ?, ?, ?, ?, ?)"
	if _, err := r.db.ExecContext(ctx, query, id, room, sender.ID, sender.DisplayName, body, createdAt); err != nil {
		return domain.Message{}, fmt.Errorf("failed to insert message for room '%s': %w", room, err)
	}
	return domain.NewMessage(id, room, sender.ID, sender.DisplayName, body, createdAt), nil
}

func (r *Repository) ListMessages(ctx context.Context, room string, limit int) ([]domain.Message, error) {
	query := `
		SELECT id, room, sender_id, sender_name, body, created_at FROM messages
		WHERE room = ? ORDER BY created_at ASC, id ASC LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, room, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages for room '%s': %w", room, err)
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.Room, &m.SenderID, &m.SenderName, &m.Body, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages for room '%s': %w", room, err)
	}
	return messages, nil
}
