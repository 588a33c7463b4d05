package sessionservice

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gousers/internal/domain"
	apperror "gousers/internal/errors"
	"gousers/internal/pkg/cache"
	"gousers/internal/pkg/logger"
	"gousers/internal/pkg/token"
)

const (
	sessionKeyPrefix  = "session:user:"
	attemptsKeyPrefix = "login-attempts:"
)

func sessionKey(userID int64) string {
	return sessionKeyPrefix + strconv.FormatInt(userID, 10)
}

func attemptsKey(email string) string {
	return attemptsKeyPrefix + email
}

// Service guarda no Redis o jti da sessão ativa de cada usuário (uma por usuário)
// e o contador de falhas de login por email.
type Service struct {
	cache       cache.Client
	tokens      token.TokenService
	maxAttempts int
	lockPeriod  time.Duration
	logger      logger.Logger
}

// NewService cria uma nova instância do Service.
func NewService(cacheClient cache.Client, tokens token.TokenService, maxAttempts int, lockPeriod time.Duration, logger logger.Logger) *Service {
	return &Service{
		cache:       cacheClient,
		tokens:      tokens,
		maxAttempts: maxAttempts,
		lockPeriod:  lockPeriod,
		logger:      logger,
	}
}

// Start emite um token para o usuário e o torna a sessão ativa, substituindo a anterior.
func (s *Service) Start(ctx context.Context, user domain.User) (string, error) {
	if !user.IsPersisted() {
		return "", apperror.NewValidationError("O usuário ou seu ID não podem ser nulos.")
	}

	tokenString, jti, err := s.tokens.GenerateToken(user.ID, user.Email)
	if err != nil {
		s.logger.Error("Falha ao gerar token de sessão.", err)
		return "", apperror.NewInternalError("Falha ao gerar token de sessão.", err)
	}

	if err := s.cache.Set(ctx, sessionKey(user.ID), jti, s.tokens.Expiry()); err != nil {
		s.logger.Error("Falha ao gravar sessão no Redis.", err)
		return "", apperror.NewDBError("Falha ao gravar sessão", err)
	}

	s.logger.Info("Sessão iniciada.", map[string]interface{}{"user_id": user.ID, "jti": jti})
	return tokenString, nil
}

// Validate confere assinatura e validade do token e se ele ainda é a sessão ativa.
func (s *Service) Validate(ctx context.Context, tokenString string) (int64, error) {
	claims, err := s.tokens.ValidateToken(tokenString)
	if err != nil {
		s.logger.Info("Token de sessão rejeitado.", map[string]interface{}{"error": err.Error()})
		return 0, apperror.NewUnauthorizedError("Token inválido ou expirado.", err)
	}

	active, err := s.cache.Get(ctx, sessionKey(claims.UserID))
	if errors.Is(err, cache.ErrCacheMiss) {
		return 0, apperror.NewUnauthorizedError("Sessão encerrada ou revogada.", nil)
	}
	if err != nil {
		s.logger.Error("Falha ao consultar sessão no Redis.", err)
		return 0, apperror.NewDBError("Falha ao consultar sessão", err)
	}
	if active != claims.ID {
		return 0, apperror.NewUnauthorizedError("Sessão substituída por um login mais recente.", nil)
	}

	return claims.UserID, nil
}

// Revoke encerra a sessão ativa do usuário, se houver.
func (s *Service) Revoke(ctx context.Context, userID int64) error {
	if err := s.cache.Delete(ctx, sessionKey(userID)); err != nil {
		s.logger.Error("Falha ao revogar sessão.", err)
		return apperror.NewDBError("Falha ao revogar sessão", err)
	}
	s.logger.Info("Sessão revogada.", map[string]interface{}{"user_id": userID})
	return nil
}

// AllowLogin devolve false enquanto o email estiver bloqueado por excesso de falhas.
func (s *Service) AllowLogin(ctx context.Context, email string) (bool, error) {
	raw, err := s.cache.Get(ctx, attemptsKey(email))
	if errors.Is(err, cache.ErrCacheMiss) {
		return true, nil
	}
	if err != nil {
		s.logger.Error("Falha ao consultar tentativas de login.", err)
		return false, apperror.NewDBError("Falha ao consultar tentativas de login", err)
	}

	count, err := strconv.Atoi(raw)
	if err != nil {
		return false, apperror.NewInternalError(fmt.Sprintf("Contador de tentativas corrompido: %q", raw), err)
	}
	return count < s.maxAttempts, nil
}

// RecordFailure conta uma falha; a janela começa na primeira falha e dura lockPeriod.
func (s *Service) RecordFailure(ctx context.Context, email string) error {
	count, err := s.cache.Incr(ctx, attemptsKey(email), s.lockPeriod)
	if err != nil {
		s.logger.Error("Falha ao registrar tentativa de login.", err)
		return apperror.NewDBError("Falha ao registrar tentativa de login", err)
	}
	if count >= int64(s.maxAttempts) {
		s.logger.Warn("Login bloqueado por excesso de tentativas.", map[string]interface{}{"email": email, "attempts": count})
	}
	return nil
}

// ResetFailures zera o contador após um login bem-sucedido.
func (s *Service) ResetFailures(ctx context.Context, email string) error {
	if err := s.cache.Delete(ctx, attemptsKey(email)); err != nil {
		return apperror.NewDBError("Falha ao zerar tentativas de login", err)
	}
	return nil
}

var _ domain.SessionService = (*Service)(nil)
