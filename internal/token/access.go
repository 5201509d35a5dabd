// Package token выпускает и проверяет access-токены магазина (HS256).
package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bagshop/internal/models"
	"bagshop/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrUnknownRole = errors.New("token carries unknown role")

// shopClaims: sub — id покупателя, role решает доступ к /admin,
// email нужен витрине без похода в БД.
type shopClaims struct {
	Role  models.Role `json:"role"`
	Email string      `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Issuer подписывает токены одним общим секретом.
type Issuer struct {
	secret   []byte
	issuer   string
	audience string
	now      func() time.Time
}

func NewIssuer(secret, issuer, audience string) *Issuer {
	return &Issuer{secret: []byte(secret), issuer: issuer, audience: audience, now: time.Now}
}

func (i *Issuer) SignAccess(ctx context.Context, sub service.AccessSubject, ttl time.Duration) (string, time.Time, error) {
	issued := i.now()
	exp := issued.Add(ttl)

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, shopClaims{
		Role:  sub.Role,
		Email: sub.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    i.issuer,
			Subject:   sub.CustomerID.String(),
			Audience:  jwt.ClaimStrings{i.audience},
			IssuedAt:  jwt.NewNumericDate(issued),
			NotBefore: jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	signed, err := tok.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, exp, nil
}

func (i *Issuer) ParseAndValidateAccess(ctx context.Context, raw string) (*service.Claims, error) {
	var sc shopClaims
	_, err := jwt.ParseWithClaims(raw, &sc, func(*jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithAudience(i.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, err
	}

	switch sc.Role {
	case models.RoleCustomer, models.RoleAdmin:
	default:
		return nil, ErrUnknownRole
	}
	customerID, err := uuid.Parse(sc.Subject)
	if err != nil {
		return nil, fmt.Errorf("token subject: %w", err)
	}

	return &service.Claims{
		UserID:  customerID,
		Role:    string(sc.Role),
		Email:   sc.Email,
		TokenID: sc.ID,
		Exp:     sc.ExpiresAt.Time,
	}, nil
}
