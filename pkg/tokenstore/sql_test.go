package tokenstore

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newSQLBackend(t *testing.T) (*SQLBackend, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return NewSQLBackend(db), mock
}

func TestSQLBackend_Get(t *testing.T) {
	b, mock := newSQLBackend(t)

	mock.ExpectQuery("SELECT \\* FROM `session_tokens` WHERE `key` = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"key", "value", "updated_at"}).
			AddRow("auditorium_access_token", "A1", time.Now()))

	v, err := b.Get(context.Background(), "auditorium_access_token")
	require.NoError(t, err)
	assert.Equal(t, "A1", v)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLBackend_GetMissing(t *testing.T) {
	b, mock := newSQLBackend(t)

	mock.ExpectQuery("SELECT \\* FROM `session_tokens`").
		WillReturnRows(sqlmock.NewRows([]string{"key", "value", "updated_at"}))

	_, err := b.Get(context.Background(), "auditorium_access_token")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLBackend_SetUpserts(t *testing.T) {
	b, mock := newSQLBackend(t)

	mock.ExpectExec("INSERT INTO `session_tokens`.*ON DUPLICATE KEY UPDATE").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, b.Set(context.Background(), "auditorium_access_token", "A2"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLBackend_Delete(t *testing.T) {
	b, mock := newSQLBackend(t)

	mock.ExpectExec("DELETE FROM `session_tokens` WHERE `key` IN").
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, b.Delete(context.Background(), "a", "b"))
	require.NoError(t, b.Delete(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLBackend_Close(t *testing.T) {
	b, mock := newSQLBackend(t)

	mock.ExpectClose()
	require.NoError(t, b.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}
