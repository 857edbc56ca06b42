package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/preesha73/chathub/server/domain"
)

const maxMessageRunes = 500

// Ingest is the message ingest pipeline: it validates an accepted send and
// hands it to the durable store, which assigns id and timestamp. The stored
// message already carries the sender's display name so the hub can
// broadcast it as-is.
type Ingest struct {
	repo Repository
}

func NewIngest(repo Repository) *Ingest {
	return &Ingest{repo: repo}
}

func (i *Ingest) Persist(ctx context.Context, room string, sender domain.Identity, text string) (domain.Message, error) {
	body := strings.TrimSpace(text)
	if body == "" {
		return domain.Message{}, domain.ErrEmptyMessage
	}
	if len([]rune(body)) > maxMessageRunes {
		return domain.Message{}, domain.ErrMessageTooLong
	}

	msg, err := i.repo.SaveMessage(ctx, room, sender, body)
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return msg, nil
}
