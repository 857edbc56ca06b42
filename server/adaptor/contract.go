//go:generate mockgen -destination=mock_contract_test.go -package=${GOPACKAGE} -source=contract.go
package adaptor

import (
	"context"

	"github.com/preesha73/chathub/server/domain"
)

type Accounts interface {
	CreateAccount(ctx context.Context, username, password string) (domain.Identity, error)
	Login(ctx context.Context, username, password string) (string, domain.Identity, error)
	VerifyToken(tokenString string) (domain.Identity, error)
	History(ctx context.Context, room string, limit int) ([]domain.Message, error)
}
