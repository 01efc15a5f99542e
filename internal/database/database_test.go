package database

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestConfig_DSN(t *testing.T) {
	cfg := Config{Host: "db", Port: "5432", Database: "roof", Username: "u", Password: "p", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=roof sslmode=disable", cfg.DSN())
}

func TestHealthCheck_NilDB(t *testing.T) {
	assert.ErrorIs(t, HealthCheck(nil), ErrNotInitialized)
	assert.NoError(t, Close(nil))
}

func TestHealthCheck_Ping(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{DisableAutomaticPing: true})
	require.NoError(t, err)

	mock.ExpectPing()
	assert.NoError(t, HealthCheck(db))

	mock.ExpectClose()
	assert.NoError(t, Close(db))
	assert.NoError(t, mock.ExpectationsWereMet())
}
