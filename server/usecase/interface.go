package usecase

import (
	"context"
	"errors"

	"github.com/preesha73/chathub/server/domain"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

type Repository interface {
	// Accounts
	CreateUser(ctx context.Context, user domain.Identity, username, passwordHash string) error
	GetUserByUsername(ctx context.Context, username string) (domain.Identity, string, error)

	// Messages
	SaveMessage(ctx context.Context, room string, sender domain.Identity, body string) (domain.Message, error)
	ListMessages(ctx context.Context, room string, limit int) ([]domain.Message, error)
}
