package userrepo_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gousers/internal/domain"
	apperror "gousers/internal/errors"
	"gousers/internal/pkg/logger"
	"gousers/internal/repository/userrepo"
)

var userCols = []string{"id", "email", "name", "password_hash", "age", "created_at", "updated_at"}

func newTestRepo(t *testing.T) (*userrepo.UserRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	log := logger.NewLoggerWithOutput("debug", "test", io.Discard)
	return userrepo.NewUserRepository(db, time.Second, log), mock
}

// --- Create ---

func TestCreate_Success(t *testing.T) {
	repo, mock := newTestRepo(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO users").
		WithArgs("a@b.com", "Ana", "hash", int64(30), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(1), now, now))
	mock.ExpectCommit()

	created, err := repo.Create(context.Background(), domain.User{
		Email: "a@b.com", Name: "Ana", PasswordHash: "hash", Age: domain.IntPtr(30),
	})

	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, "a@b.com", created.Email)
	assert.Equal(t, 30, *created.Age)
	assert.Equal(t, now, created.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_NullAge(t *testing.T) {
	repo, mock := newTestRepo(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO users").
		WithArgs("b@c.com", "Bia", "hash", nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(2), now, now))
	mock.ExpectCommit()

	created, err := repo.Create(context.Background(), domain.User{Email: "b@c.com", Name: "Bia", PasswordHash: "hash"})

	require.NoError(t, err)
	assert.Nil(t, created.Age)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_Fail_UniqueViolation(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO users").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), domain.User{Email: "a@b.com", Name: "Ana", PasswordHash: "hash"})

	assert.Error(t, err)
	assert.IsType(t, &apperror.ConflictError{}, err)
	assert.Contains(t, err.Error(), "a@b.com")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_Fail_DBError(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO users").WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), domain.User{Email: "a@b.com", Name: "Ana", PasswordHash: "hash"})

	assert.IsType(t, &apperror.StorageError{}, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_Fail_BeginTx(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectBegin().WillReturnError(errors.New("pool exhausted"))

	_, err := repo.Create(context.Background(), domain.User{Email: "a@b.com", Name: "Ana", PasswordHash: "hash"})

	assert.IsType(t, &apperror.StorageError{}, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// --- FindByID / FindByEmail ---

func TestFindByID_Found(t *testing.T) {
	repo, mock := newTestRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT (.+) FROM users WHERE id = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(int64(1), "a@b.com", "Ana", "hash", int64(30), now, now))

	user, found, err := repo.FindByID(context.Background(), 1)

	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Ana", user.Name)
	assert.Equal(t, "hash", user.PasswordHash)
	assert.Equal(t, 30, *user.Age)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByID_Miss(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery(`SELECT (.+) FROM users WHERE id = \$1`).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows(userCols))

	user, found, err := repo.FindByID(context.Background(), 99)

	assert.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, domain.User{}, user)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByID_Fail_DBError(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery(`SELECT (.+) FROM users WHERE id = \$1`).WillReturnError(errors.New("conn refused"))

	_, found, err := repo.FindByID(context.Background(), 1)

	assert.False(t, found)
	assert.IsType(t, &apperror.StorageError{}, err)
}

func TestFindByEmail_Found(t *testing.T) {
	repo, mock := newTestRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT (.+) FROM users WHERE email = \$1`).
		WithArgs("a@b.com").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(int64(4), "a@b.com", "Ana", "hash", nil, now, now))

	user, found, err := repo.FindByEmail(context.Background(), "a@b.com")

	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(4), user.ID)
	assert.Nil(t, user.Age)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByEmail_Miss(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery(`SELECT (.+) FROM users WHERE email = \$1`).
		WithArgs("x@y.com").
		WillReturnRows(sqlmock.NewRows(userCols))

	_, found, err := repo.FindByEmail(context.Background(), "x@y.com")

	assert.NoError(t, err)
	assert.False(t, found)
}

// --- ListAll ---

func TestListAll_Success(t *testing.T) {
	repo, mock := newTestRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT (.+) FROM users ORDER BY id`).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(int64(1), "a@b.com", "Ana", "h1", int64(30), now, now).
			AddRow(int64(2), "b@c.com", "Bia", "h2", nil, now, now))

	users, err := repo.ListAll(context.Background())

	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, int64(1), users[0].ID)
	assert.Equal(t, "Bia", users[1].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAll_EmptyIsNotError(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery(`SELECT (.+) FROM users ORDER BY id`).WillReturnRows(sqlmock.NewRows(userCols))

	users, err := repo.ListAll(context.Background())

	assert.NoError(t, err)
	assert.NotNil(t, users)
	assert.Len(t, users, 0)
}

func TestListAll_Fail_RowError(t *testing.T) {
	repo, mock := newTestRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT (.+) FROM users ORDER BY id`).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(int64(1), "a@b.com", "Ana", "h1", nil, now, now).
			RowError(0, errors.New("network error")))

	_, err := repo.ListAll(context.Background())

	assert.IsType(t, &apperror.StorageError{}, err)
}

// --- Update ---

func TestUpdate_Success(t *testing.T) {
	repo, mock := newTestRepo(t)
	created := time.Now().Add(-time.Hour).UTC()
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE users").
		WithArgs("novo@b.com", "Ana Maria", "hash", int64(31), sqlmock.AnyArg(), int64(1)).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(int64(1), "novo@b.com", "Ana Maria", "hash", int64(31), created, now))
	mock.ExpectCommit()

	updated, err := repo.Update(context.Background(), domain.User{
		ID: 1, Email: "novo@b.com", Name: "Ana Maria", PasswordHash: "hash", Age: domain.IntPtr(31),
	})

	require.NoError(t, err)
	assert.Equal(t, int64(1), updated.ID)
	assert.Equal(t, "novo@b.com", updated.Email)
	assert.Equal(t, "hash", updated.PasswordHash)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_Fail_NotFound(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE users").WillReturnRows(sqlmock.NewRows(userCols))
	mock.ExpectRollback()

	_, err := repo.Update(context.Background(), domain.User{ID: 42, Email: "a@b.com", Name: "Ana", PasswordHash: "hash"})

	assert.IsType(t, &apperror.NotFoundError{}, err)
	assert.Contains(t, err.Error(), "42")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_Fail_UniqueViolation(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE users").WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	_, err := repo.Update(context.Background(), domain.User{ID: 1, Email: "dup@b.com", Name: "Ana", PasswordHash: "hash"})

	assert.IsType(t, &apperror.ConflictError{}, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// --- Delete ---

func TestDelete_Existing(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	deleted, err := repo.Delete(context.Background(), 1)

	assert.NoError(t, err)
	assert.True(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_MissingRollsBack(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).WithArgs(int64(7)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	deleted, err := repo.Delete(context.Background(), 7)

	assert.NoError(t, err)
	assert.False(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_Fail_DBError(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM users`).WillReturnError(errors.New("deadlock detected"))
	mock.ExpectRollback()

	deleted, err := repo.Delete(context.Background(), 1)

	assert.False(t, deleted)
	assert.IsType(t, &apperror.StorageError{}, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// --- Close ---

func TestClose_Idempotent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	repo := userrepo.NewUserRepository(db, 0, logger.NewLoggerWithOutput("debug", "test", io.Discard))

	mock.ExpectClose()

	assert.NoError(t, repo.Close())
	assert.NoError(t, repo.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}
