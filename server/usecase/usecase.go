package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/preesha73/chathub/server/domain"
)

const tokenTTL = 24 * time.Hour

type Usecase struct {
	repo   Repository
	secret []byte
}

func New(repo Repository, jwtSecret string) *Usecase {
	return &Usecase{
		repo:   repo,
		secret: []byte(jwtSecret),
	}
}

type accountClaims struct {
	jwt.RegisteredClaims
	DisplayName string `json:"name"`
}

func (u *Usecase) CreateAccount(ctx context.Context, username, password string) (domain.Identity, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return domain.Identity{}, fmt.Errorf("username and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("failed to hash password: %w", err)
	}

	identity := domain.NewIdentity(uuid.NewString(), username)
	if err := u.repo.CreateUser(ctx, identity, username, string(hash)); err != nil {
		return domain.Identity{}, fmt.Errorf("failed to create user: %w", err)
	}
	return identity, nil
}

func (u *Usecase) Login(ctx context.Context, username, password string) (string, domain.Identity, error) {
	identity, hash, err := u.repo.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", domain.Identity{}, domain.ErrUnauthenticated
		}
		return "", domain.Identity{}, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return "", domain.Identity{}, domain.ErrUnauthenticated
	}

	now := time.Now()
	claims := accountClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
		DisplayName: identity.DisplayName,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(u.secret)
	if err != nil {
		return "", domain.Identity{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, identity, nil
}

// VerifyToken resolves a bearer credential to an identity. It is called
// once per connection, before the hub registers it.
func (u *Usecase) VerifyToken(tokenString string) (domain.Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &accountClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return u.secret, nil
	})
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}

	claims, ok := token.Claims.(*accountClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return domain.Identity{}, domain.ErrUnauthenticated
	}
	return domain.NewIdentity(claims.Subject, claims.DisplayName), nil
}

func (u *Usecase) History(ctx context.Context, room string, limit int) ([]domain.Message, error) {
	messages, err := u.repo.ListMessages(ctx, room, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}
