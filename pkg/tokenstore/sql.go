package tokenstore

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SessionToken is one persisted key of the token pair.
type SessionToken struct {
	Key       string `gorm:"primaryKey;size:128"`
	Value     string `gorm:"type:text"`
	UpdatedAt time.Time
}

func (SessionToken) TableName() string { return "session_tokens" }

type SQLBackend struct {
	db *gorm.DB
}

func NewSQLBackend(db *gorm.DB) *SQLBackend {
	return &SQLBackend{db: db}
}

// Migrate creates the session_tokens table when missing.
func (r *SQLBackend) Migrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&SessionToken{})
}

func (r *SQLBackend) Get(ctx context.Context, key string) (string, error) {
	var row SessionToken
	err := r.db.WithContext(ctx).Where("`key` = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return row.Value, nil
}

func (r *SQLBackend) Set(ctx context.Context, key, value string) error {
	row := SessionToken{Key: key, Value: value}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
}

func (r *SQLBackend) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("`key` IN ?", keys).Delete(&SessionToken{}).Error
}

func (r *SQLBackend) PingContext(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the underlying connection pool.
func (r *SQLBackend) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
