package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "GoUsers-Console"

// TokenService define o contrato para manipulação de JWTs de sessão.
type TokenService interface {
	GenerateToken(userID int64, email string) (token string, jti string, err error)
	ValidateToken(tokenString string) (*SessionClaims, error)
	Expiry() time.Duration
}

// SessionClaims identifica o usuário da sessão. O jti (RegisteredClaims.ID)
// é o identificador que fica gravado no Redis.
type SessionClaims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Service implementa a interface TokenService com HS256.
type Service struct {
	secretKey []byte
	expiry    time.Duration
}

// NewService cria uma nova instância do serviço Token.
func NewService(secretKey string, expiry time.Duration) *Service {
	return &Service{
		secretKey: []byte(secretKey),
		expiry:    expiry,
	}
}

// Expiry devolve a validade configurada dos tokens.
func (s *Service) Expiry() time.Duration {
	return s.expiry
}

// GenerateToken cria um JWT assinado para o usuário e devolve também o seu jti.
func (s *Service) GenerateToken(userID int64, email string) (string, string, error) {
	now := time.Now()
	jti := uuid.NewString()

	claims := SessionClaims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   strconv.FormatInt(userID, 10),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", "", fmt.Errorf("falha ao assinar o token: %w", err)
	}

	return tokenString, jti, nil
}

// ValidateToken valida assinatura, validade e emissor, e retorna as claims.
func (s *Service) ValidateToken(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de assinatura inesperado: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	}, jwt.WithIssuer(issuer))

	if err != nil {
		return nil, fmt.Errorf("token inválido: %w", err)
	}

	if !token.Valid {
		return nil, errors.New("token não é válido")
	}
	if claims.ID == "" || claims.UserID <= 0 {
		return nil, errors.New("token sem identificação de sessão")
	}

	return claims, nil
}

var _ TokenService = (*Service)(nil)
