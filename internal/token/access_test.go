package token

import (
	"context"
	"testing"
	"time"

	"bagshop/internal/models"
	"bagshop/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func subject(role models.Role) service.AccessSubject {
	return service.AccessSubject{CustomerID: uuid.New(), Role: role, Email: "ann@example.com"}
}

func TestIssuer_RoundTrip(t *testing.T) {
	i := NewIssuer("secret", "bagshop", "bagshop-web")
	ctx := context.Background()
	sub := subject(models.RoleAdmin)

	tok, exp, err := i.SignAccess(ctx, sub, time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := i.ParseAndValidateAccess(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, sub.CustomerID, claims.UserID)
	assert.Equal(t, "ROLE_ADMIN", claims.Role)
	assert.Equal(t, "ann@example.com", claims.Email)
	assert.NotEmpty(t, claims.TokenID)

	// у каждого токена свой jti
	tok2, _, err := i.SignAccess(ctx, sub, time.Hour)
	require.NoError(t, err)
	claims2, err := i.ParseAndValidateAccess(ctx, tok2)
	require.NoError(t, err)
	assert.NotEqual(t, claims.TokenID, claims2.TokenID)
}

func TestIssuer_Rejects(t *testing.T) {
	ctx := context.Background()
	i := NewIssuer("secret", "bagshop", "bagshop-web")

	other := NewIssuer("other-secret", "bagshop", "bagshop-web")
	tok, _, err := other.SignAccess(ctx, subject(models.RoleCustomer), time.Hour)
	require.NoError(t, err)
	_, err = i.ParseAndValidateAccess(ctx, tok)
	assert.Error(t, err, "wrong secret")

	wrongAud := NewIssuer("secret", "bagshop", "admin-panel")
	tok, _, _ = wrongAud.SignAccess(ctx, subject(models.RoleCustomer), time.Hour)
	_, err = i.ParseAndValidateAccess(ctx, tok)
	assert.Error(t, err, "wrong audience")

	tok, _, _ = i.SignAccess(ctx, subject(models.RoleCustomer), time.Hour)
	i.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = i.ParseAndValidateAccess(ctx, tok)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	i.now = time.Now

	_, err = i.ParseAndValidateAccess(ctx, "not-a-jwt")
	assert.Error(t, err)
}

func TestIssuer_RejectsUnknownRole(t *testing.T) {
	ctx := context.Background()
	i := NewIssuer("secret", "bagshop", "bagshop-web")

	tok, _, err := i.SignAccess(ctx, subject("ROLE_ROOT"), time.Hour)
	require.NoError(t, err)
	_, err = i.ParseAndValidateAccess(ctx, tok)
	assert.ErrorIs(t, err, ErrUnknownRole)
}

func TestIssuer_RejectsOtherAlgorithm(t *testing.T) {
	i := NewIssuer("secret", "bagshop", "bagshop-web")
	now := time.Now()

	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, shopClaims{
		Role: models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "bagshop",
			Subject:   uuid.NewString(),
			Audience:  jwt.ClaimStrings{"bagshop-web"},
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	})
	raw, err := tok.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = i.ParseAndValidateAccess(context.Background(), raw)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}
