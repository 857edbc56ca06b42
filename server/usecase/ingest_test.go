package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preesha73/chathub/server/domain"
)

func TestIngest_Persist(t *testing.T) {
	repo := newFakeRepo()
	ingest := NewIngest(repo)
	sender := domain.NewIdentity("u1", "alice")

	msg, err := ingest.Persist(context.Background(), "general", sender, "  hello  ")
	require.NoError(t, err)
	assert.Equal(t, "hello", msg.Body, "leading and trailing whitespace is stripped")
	assert.Equal(t, "general", msg.Room)
	assert.Equal(t, "u1", msg.SenderID)
	assert.Equal(t, "alice", msg.SenderName)
	assert.NotEmpty(t, msg.ID)
	assert.False(t, msg.CreatedAt.IsZero())
}

func TestIngest_RejectsEmpty(t *testing.T) {
	ingest := NewIngest(newFakeRepo())
	sender := domain.NewIdentity("u1", "alice")

	_, err := ingest.Persist(context.Background(), "general", sender, "   \t\n  ")
	assert.ErrorIs(t, err, domain.ErrEmptyMessage)
}

func TestIngest_RejectsOversized(t *testing.T) {
	repo := newFakeRepo()
	ingest := NewIngest(repo)
	sender := domain.NewIdentity("u1", "alice")

	// boundary: exactly 500 runes passes, 501 fails
	_, err := ingest.Persist(context.Background(), "general", sender, strings.Repeat("x", 500))
	require.NoError(t, err)

	_, err = ingest.Persist(context.Background(), "general", sender, strings.Repeat("x", 501))
	assert.ErrorIs(t, err, domain.ErrMessageTooLong)
	assert.Len(t, repo.messages, 1)
}

func TestIngest_LengthCountsRunes(t *testing.T) {
	ingest := NewIngest(newFakeRepo())
	sender := domain.NewIdentity("u1", "alice")

	// 500 multi-byte runes exceed 500 bytes but stay within the limit
	_, err := ingest.Persist(context.Background(), "general", sender, strings.Repeat("é", 500))
	assert.NoError(t, err)
}

func TestIngest_WrapsStoreFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.saveErr = errors.New("database is locked")
	ingest := NewIngest(repo)
	sender := domain.NewIdentity("u1", "alice")

	_, err := ingest.Persist(context.Background(), "general", sender, "hello")
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Contains(t, err.Error(), "database is locked")
}
