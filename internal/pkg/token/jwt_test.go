package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := NewService("segredo", time.Hour)

	tok, jti, err := svc.GenerateToken(42, "a@b.com")
	require.NoError(t, err)
	assert.NotEmpty(t, tok)
	assert.NotEmpty(t, jti)

	claims, err := svc.ValidateToken(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "a@b.com", claims.Email)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, jti, claims.ID)
	assert.Equal(t, time.Hour, svc.Expiry())
}

func TestGenerateToken_UniqueJTI(t *testing.T) {
	svc := NewService("segredo", time.Hour)

	_, first, err := svc.GenerateToken(1, "a@b.com")
	require.NoError(t, err)
	_, second, err := svc.GenerateToken(1, "a@b.com")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	tok, _, err := NewService("segredo", time.Hour).GenerateToken(1, "a@b.com")
	require.NoError(t, err)

	_, err = NewService("outro", time.Hour).ValidateToken(tok)

	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestValidateToken_Expired(t *testing.T) {
	svc := NewService("segredo", -time.Minute)
	tok, _, err := svc.GenerateToken(1, "a@b.com")
	require.NoError(t, err)

	_, err = svc.ValidateToken(tok)

	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestValidateToken_Garbage(t *testing.T) {
	_, err := NewService("segredo", time.Hour).ValidateToken("nao-e-um-jwt")

	assert.Error(t, err)
}

func TestValidateToken_RejectsOtherAlgorithms(t *testing.T) {
	claims := SessionClaims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "x",
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewService("segredo", time.Hour).ValidateToken(tok)

	assert.Error(t, err)
}
