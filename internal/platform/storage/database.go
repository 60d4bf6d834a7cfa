package storage

import (
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"luaspark-server/internal/platform/errors"
)

// UserRecord is the sqlite representation of a registered user. Memory holds
// the JSON-encoded conversation window.
type UserRecord struct {
	ID           uint      `gorm:"primaryKey"`
	Email        string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	HasPaid      bool      `gorm:"not null;default:false"`
	Memory       []byte    `gorm:"type:blob"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time
}

// Open initialises a sqlite database handle and runs migrations.
func Open(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		dsn = "data/luaspark.db"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "storage.open", "failed to open sqlite database", err)
	}

	if err := db.AutoMigrate(&UserRecord{}); err != nil {
		return nil, errors.Wrap(errors.KindStorage, "storage.migrate", "failed to migrate user table", err)
	}
	return db, nil
}
