package database

import (
	"testing"
	"testing/fstest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigurePool(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ConfigurePool(db)

	assert.Equal(t, 5, db.Stats().MaxOpenConnections)
}

func TestNewPostgresDB_Unreachable(t *testing.T) {
	db, err := NewPostgresDB("postgres://u:p@127.0.0.1:1/nada?sslmode=disable&connect_timeout=1")

	assert.Error(t, err)
	assert.Nil(t, db)
}

func TestMigrate_UnknownDir(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	err = Migrate(db, fstest.MapFS{}, "inexistente", "status")

	assert.Error(t, err)
}
