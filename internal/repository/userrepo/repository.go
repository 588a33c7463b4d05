package userrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lib/pq"

	"gousers/internal/domain"
	apperror "gousers/internal/errors"
	"gousers/internal/pkg/logger"
)

// uniqueViolation é o SQLSTATE do PostgreSQL para violação de constraint UNIQUE.
const uniqueViolation = "23505"

const defaultDBTimeout = 5 * time.Second

const userColumns = `id, email, name, password_hash, age, created_at, updated_at`

// UserRepository implementa a interface domain.UserRepository sobre PostgreSQL.
// Cada operação de escrita roda em sua própria transação.
type UserRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger

	closeOnce sync.Once
	closeErr  error
}

// NewUserRepository cria uma nova instância do UserRepository, injetando o DB.
func NewUserRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *UserRepository {
	if dbTimeout <= 0 {
		dbTimeout = defaultDBTimeout
	}
	return &UserRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// rowScanner cobre *sql.Row e *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (domain.User, error) {
	var (
		user domain.User
		age  sql.NullInt64
	)
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&age,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}
	if age.Valid {
		user.Age = domain.IntPtr(int(age.Int64))
	}
	return user, nil
}

func nullableAge(age *int) interface{} {
	if age == nil {
		return nil
	}
	return int64(*age)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// translateWriteError converte erros do driver em erros tipados.
func translateWriteError(msg string, email string, err error) error {
	if isUniqueViolation(err) {
		return apperror.NewConstraintError(fmt.Sprintf("O email '%s' já está registrado.", email), err)
	}
	return apperror.NewDBError(msg, err)
}

// Create insere um novo usuário; o ID é gerado pelo banco (BIGSERIAL).
func (r *UserRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	r.logger.Debug("Iniciando Create de usuário no repositório.", map[string]interface{}{"email": user.Email})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		r.logger.Error("Falha ao iniciar transação de Create.", err)
		return domain.User{}, apperror.NewDBError("Falha ao iniciar transação", err)
	}
	// Depois do Commit, Rollback é um no-op (sql.ErrTxDone).
	defer tx.Rollback()

	now := time.Now().UTC()
	query := `
        INSERT INTO users (email, name, password_hash, age, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at, updated_at`

	err = tx.QueryRowContext(ctxTimeout, query,
		user.Email,
		user.Name,
		user.PasswordHash,
		nullableAge(user.Age),
		now,
		now,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		r.logger.Error("Falha ao inserir usuário no DB.", err)
		return domain.User{}, translateWriteError("Falha ao criar usuário", user.Email, err)
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("Falha ao confirmar transação de Create.", err)
		return domain.User{}, translateWriteError("Falha ao confirmar criação de usuário", user.Email, err)
	}

	r.logger.Info("Usuário salvo com sucesso no repositório.", map[string]interface{}{"user_id": user.ID, "email": user.Email})
	return user, nil
}

// FindByID busca um usuário pelo ID. Ausência não é erro.
func (r *UserRepository) FindByID(ctx context.Context, id int64) (domain.User, bool, error) {
	r.logger.Debug("Iniciando FindByID de usuário no repositório.", map[string]interface{}{"user_id": id})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.DB.QueryRowContext(ctxTimeout, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		r.logger.Info("Usuário não encontrado no DB por ID.", map[string]interface{}{"user_id": id})
		return domain.User{}, false, nil
	}
	if err != nil {
		r.logger.Error("Falha ao buscar usuário por ID no DB.", err)
		return domain.User{}, false, apperror.NewDBError("Falha ao buscar usuário por ID", err)
	}

	return user, true, nil
}

// FindByEmail busca um usuário pelo endereço de e-mail (comparação exata).
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (domain.User, bool, error) {
	r.logger.Debug("Iniciando FindByEmail de usuário no repositório.", map[string]interface{}{"email": email})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 ORDER BY id LIMIT 1`

	user, err := scanUser(r.DB.QueryRowContext(ctxTimeout, query, email))
	if errors.Is(err, sql.ErrNoRows) {
		r.logger.Info("Usuário não encontrado no DB por email.", map[string]interface{}{"email": email})
		return domain.User{}, false, nil
	}
	if err != nil {
		r.logger.Error("Falha ao buscar usuário por email no DB.", err)
		return domain.User{}, false, apperror.NewDBError("Falha ao buscar usuário por email", err)
	}

	return user, true, nil
}

// ListAll busca todos os usuários em ordem de inserção.
func (r *UserRepository) ListAll(ctx context.Context) ([]domain.User, error) {
	r.logger.Debug("Iniciando ListAll no repositório.", nil)

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + userColumns + ` FROM users ORDER BY id`

	rows, err := r.DB.QueryContext(ctxTimeout, query)
	if err != nil {
		r.logger.Error("Falha ao executar ListAll query.", err)
		return nil, apperror.NewDBError("Falha ao listar usuários", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			r.logger.Error("Falha ao mapear usuário na iteração de ListAll.", err)
			return nil, apperror.NewDBError("Falha ao mapear usuários do DB", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Erro após iteração das linhas de usuários.", err)
		return nil, apperror.NewDBError("Erro após iteração de usuários", err)
	}

	r.logger.Info("ListAll concluído com sucesso.", map[string]interface{}{"total_users": len(users)})
	return users, nil
}

// Update sobrescreve email, nome, hash e idade do usuário com o ID informado.
func (r *UserRepository) Update(ctx context.Context, user domain.User) (domain.User, error) {
	r.logger.Debug("Iniciando Update de usuário no repositório.", map[string]interface{}{"user_id": user.ID, "email": user.Email})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		r.logger.Error("Falha ao iniciar transação de Update.", err)
		return domain.User{}, apperror.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	query := `
        UPDATE users
        SET email = $1, name = $2, password_hash = $3, age = $4, updated_at = $5
        WHERE id = $6
        RETURNING ` + userColumns

	updated, err := scanUser(tx.QueryRowContext(ctxTimeout, query,
		user.Email,
		user.Name,
		user.PasswordHash,
		nullableAge(user.Age),
		time.Now().UTC(),
		user.ID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		r.logger.Info("Usuário não encontrado para atualização.", map[string]interface{}{"user_id": user.ID})
		return domain.User{}, apperror.NewNotFoundError(fmt.Sprintf("Usuário com ID %d não encontrado para atualização.", user.ID))
	}
	if err != nil {
		r.logger.Error("Falha ao atualizar usuário no DB.", err)
		return domain.User{}, translateWriteError("Falha ao atualizar usuário", user.Email, err)
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("Falha ao confirmar transação de Update.", err)
		return domain.User{}, translateWriteError("Falha ao confirmar atualização de usuário", user.Email, err)
	}

	r.logger.Info("Usuário atualizado com sucesso.", map[string]interface{}{"user_id": updated.ID, "email": updated.Email})
	return updated, nil
}

// Delete remove um usuário pelo ID. Retorna false (sem erro) se o ID não existir.
func (r *UserRepository) Delete(ctx context.Context, id int64) (bool, error) {
	r.logger.Debug("Iniciando Delete de usuário no repositório.", map[string]interface{}{"user_id": id})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		r.logger.Error("Falha ao iniciar transação de Delete.", err)
		return false, apperror.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctxTimeout, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Falha ao deletar usuário do DB.", err)
		return false, apperror.NewDBError("Falha ao deletar usuário", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		r.logger.Error("Falha ao verificar linhas afetadas após Delete.", err)
		return false, apperror.NewDBError("Falha ao verificar linhas afetadas", err)
	}

	if rowsAffected == 0 {
		r.logger.Info("Usuário não encontrado para exclusão.", map[string]interface{}{"user_id": id})
		return false, nil
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("Falha ao confirmar transação de Delete.", err)
		return false, apperror.NewDBError("Falha ao confirmar exclusão de usuário", err)
	}

	r.logger.Info("Usuário deletado com sucesso.", map[string]interface{}{"user_id": id})
	return true, nil
}

// Close libera o pool de conexões. Chamadas repetidas devolvem o mesmo resultado.
func (r *UserRepository) Close() error {
	r.closeOnce.Do(func() {
		r.closeErr = r.DB.Close()
		if r.closeErr != nil {
			r.logger.Error("Falha ao fechar conexões do DB.", r.closeErr)
			return
		}
		r.logger.Info("Conexões do DB encerradas.", nil)
	})
	return r.closeErr
}

var _ domain.UserRepository = (*UserRepository)(nil)
