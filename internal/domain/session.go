package domain

import "context"

// SessionService controla sessões de login e o limite de tentativas por email.
type SessionService interface {
	Start(ctx context.Context, user User) (string, error)
	Validate(ctx context.Context, token string) (int64, error)
	Revoke(ctx context.Context, userID int64) error

	AllowLogin(ctx context.Context, email string) (bool, error)
	RecordFailure(ctx context.Context, email string) error
	ResetFailures(ctx context.Context, email string) error
}
