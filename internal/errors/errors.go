package errors

import (
	"errors"
	"fmt"
)

// AppError é a interface central para todos os erros customizados da aplicação.
// Ela permite que o código externo (Console) acesse a Categoria e a Mensagem do erro.
type AppError interface {
	Error() string    // Implementa a interface error padrão do Go
	Category() string // Categoria do erro (e.g., "VALIDATION_ERROR", "NOT_FOUND", "STORAGE_ERROR")
	Unwrap() error    // Permite encapsular erros subjacentes (original error)
}

// Categorias expostas ao Console.
const (
	CategoryValidation   = "VALIDATION_ERROR"
	CategoryNotFound     = "NOT_FOUND"
	CategoryConflict     = "CONFLICT"
	CategoryStorage      = "STORAGE_ERROR"
	CategoryInternal     = "INTERNAL_ERROR"
	CategoryUnauthorized = "UNAUTHORIZED"
	CategoryUnknown      = "UNKNOWN_ERROR"
)

// --- Tipos de Erro Específicos (Erros de Domínio) ---

// ValidationError representa falhas de validação de dados de entrada.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string    { return fmt.Sprintf("Erro de Validação: %s", e.Msg) }
func (e *ValidationError) Category() string { return CategoryValidation }
func (e *ValidationError) Unwrap() error    { return nil }

// NewValidationError cria um novo erro de validação.
func NewValidationError(msg string) AppError {
	return &ValidationError{Msg: msg}
}

// NotFoundError representa a ausência de um recurso obrigatório.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string    { return fmt.Sprintf("Recurso não encontrado: %s", e.Msg) }
func (e *NotFoundError) Category() string { return CategoryNotFound }
func (e *NotFoundError) Unwrap() error    { return nil }

// NewNotFoundError cria um novo erro de recurso não encontrado.
func NewNotFoundError(msg string) AppError {
	return &NotFoundError{Msg: msg}
}

// ConflictError representa um conflito de unicidade (e-mail duplicado).
type ConflictError struct {
	Msg string
	Err error // Violação de constraint do driver, quando vier do DB
}

func (e *ConflictError) Error() string    { return fmt.Sprintf("Conflito de estado: %s", e.Msg) }
func (e *ConflictError) Category() string { return CategoryConflict }
func (e *ConflictError) Unwrap() error    { return e.Err }

// NewConflictError cria um novo erro de conflito detectado pela camada de serviço.
func NewConflictError(msg string) AppError {
	return &ConflictError{Msg: msg}
}

// NewConstraintError cria um erro de conflito a partir da constraint UNIQUE do DB.
func NewConstraintError(msg string, err error) AppError {
	return &ConflictError{Msg: msg, Err: err}
}

// UnauthorizedError representa um token de sessão inválido, expirado ou revogado.
type UnauthorizedError struct {
	Msg string
	Err error
}

func (e *UnauthorizedError) Error() string    { return fmt.Sprintf("Não autorizado: %s", e.Msg) }
func (e *UnauthorizedError) Category() string { return CategoryUnauthorized }
func (e *UnauthorizedError) Unwrap() error    { return e.Err }

// NewUnauthorizedError cria um erro de sessão não autorizada.
func NewUnauthorizedError(msg string, err error) AppError {
	return &UnauthorizedError{Msg: msg, Err: err}
}

// --- Tipos de Erro de Infraestrutura (Encapsulamento) ---

// StorageError representa falhas de transação ou conectividade com o banco de dados.
type StorageError struct {
	Msg string
	Err error // Erro original subjacente (e.g., erro do driver SQL)
}

func (e *StorageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("Erro de Armazenamento: %s", e.Msg)
	}
	return fmt.Sprintf("Erro de Armazenamento: %s (DB): %s", e.Msg, e.Err.Error())
}
func (e *StorageError) Category() string { return CategoryStorage }
func (e *StorageError) Unwrap() error    { return e.Err }

// NewDBError cria um StorageError para falhas no DB.
func NewDBError(msg string, err error) AppError {
	return &StorageError{Msg: msg, Err: err}
}

// InternalError representa falhas inesperadas fora do armazenamento (e.g., hashing).
type InternalError struct {
	Msg string
	Err error
}

func (e *InternalError) Error() string    { return fmt.Sprintf("Erro Interno: %s", e.Msg) }
func (e *InternalError) Category() string { return CategoryInternal }
func (e *InternalError) Unwrap() error    { return e.Err }

// NewInternalError cria um erro interno.
func NewInternalError(msg string, err error) AppError {
	return &InternalError{Msg: msg, Err: err}
}

// --- Helper para o Console (Tradução Final) ---

// Describe recebe um erro e devolve a categoria e a mensagem exibidas ao usuário.
func Describe(err error) (string, string) {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr.Category(), appErr.Error()
	}

	// Erro não tipado: tratado como erro genérico.
	return CategoryUnknown, "Ocorreu um erro inesperado."
}

// CategoryOf devolve apenas a categoria do erro (string vazia para nil).
func CategoryOf(err error) string {
	if err == nil {
		return ""
	}
	category, _ := Describe(err)
	return category
}
