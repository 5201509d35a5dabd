package service

import (
	"context"
	"time"

	"bagshop/internal/models"

	"github.com/google/uuid"
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
	NeedsRehash(hash string) bool
}

// AccessSubject — то, что попадает в access-токен покупателя.
type AccessSubject struct {
	CustomerID uuid.UUID
	Role       models.Role
	Email      string
}

type Claims struct {
	UserID  uuid.UUID
	Role    string
	Email   string
	TokenID string
	Exp     time.Time
}

type TokenProvider interface {
	SignAccess(ctx context.Context, sub AccessSubject, ttl time.Duration) (token string, exp time.Time, err error)
	ParseAndValidateAccess(ctx context.Context, token string) (*Claims, error)
}
