package domain

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// User representa a entidade do usuário no sistema.
// ID é atribuído pelo banco na criação; zero significa "ainda não persistido".
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"` // Nunca exposto
	Age          *int      `json:"age,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// String nunca inclui o hash da senha.
func (u User) String() string {
	age := "null"
	if u.Age != nil {
		age = strconv.Itoa(*u.Age)
	}
	return fmt.Sprintf("User{id=%d, email='%s', name='%s', age=%s}", u.ID, u.Email, u.Name, age)
}

// IsPersisted indica se o usuário já recebeu um ID do banco.
func (u User) IsPersisted() bool {
	return u.ID != 0
}

// IntPtr é um atalho para preencher campos opcionais como Age.
func IntPtr(v int) *int {
	return &v
}

// UserRepository define o contrato de persistência para a entidade User.
// Leituras devolvem found=false (sem erro) quando não há linha correspondente.
type UserRepository interface {
	Create(ctx context.Context, user User) (User, error)
	FindByID(ctx context.Context, id int64) (User, bool, error)
	FindByEmail(ctx context.Context, email string) (User, bool, error)
	ListAll(ctx context.Context) ([]User, error)
	Update(ctx context.Context, user User) (User, error)
	Delete(ctx context.Context, id int64) (bool, error)
	Close() error
}

// UserService define o contrato de lógica de negócio para a entidade User.
type UserService interface {
	Register(ctx context.Context, email, name, password string, age *int) (User, error)
	Authenticate(ctx context.Context, email, password string) (User, bool, error)
	FindByID(ctx context.Context, id int64) (User, bool, error)
	FindByEmail(ctx context.Context, email string) (User, bool, error)
	ListAll(ctx context.Context) ([]User, error)
	Update(ctx context.Context, user User) (User, error)
	ChangePassword(ctx context.Context, id int64, newPassword string) (User, error)
	Delete(ctx context.Context, id int64) (bool, error)
	Close() error
}

// PasswordHasher abstrai o algoritmo de hash das senhas.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hashed string) bool
}
