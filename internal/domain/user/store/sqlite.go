package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"luaspark-server/internal/domain/user/model"
	"luaspark-server/internal/platform/storage"
)

type sqliteStore struct {
	db *gorm.DB
}

// NewSQLite builds a sqlite-backed user store. Writes go through on Put, so
// Flush is a no-op.
func NewSQLite(db *gorm.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlite store requires database handle")
	}
	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) Get(ctx context.Context, email string) (model.User, error) {
	var record storage.UserRecord
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.User{}, fmt.Errorf("%w: %s", ErrNotFound, email)
	}
	if err != nil {
		return model.User{}, err
	}
	return fromRecord(record)
}

func (s *sqliteStore) Put(ctx context.Context, u model.User) error {
	if u.Email == "" {
		return fmt.Errorf("email required")
	}
	memory, err := json.Marshal(u.Memory)
	if err != nil {
		return err
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ?", u.Email).Delete(&storage.UserRecord{}).Error; err != nil {
			return err
		}
		record := &storage.UserRecord{
			Email:        u.Email,
			PasswordHash: u.PasswordHash,
			HasPaid:      u.HasPaid,
			Memory:       memory,
			CreatedAt:    u.CreatedAt,
		}
		return tx.Create(record).Error
	})
}

func (s *sqliteStore) All(ctx context.Context) ([]model.User, error) {
	var records []storage.UserRecord
	if err := s.db.WithContext(ctx).Find(&records).Error; err != nil {
		return nil, err
	}
	users := make([]model.User, 0, len(records))
	for _, record := range records {
		u, err := fromRecord(record)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

func (s *sqliteStore) Flush(context.Context) error {
	return nil
}

func (s *sqliteStore) Stats(ctx context.Context) (map[string]any, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&storage.UserRecord{}).Count(&total).Error; err != nil {
		return nil, err
	}
	var paid int64
	if err := s.db.WithContext(ctx).Model(&storage.UserRecord{}).Where("has_paid = ?", true).Count(&paid).Error; err != nil {
		return nil, err
	}
	return map[string]any{
		"type":  "sqlite",
		"total": total,
		"paid":  paid,
	}, nil
}

func (s *sqliteStore) Close(context.Context) error {
	return nil
}

func fromRecord(record storage.UserRecord) (model.User, error) {
	u := model.User{
		Email:        record.Email,
		PasswordHash: record.PasswordHash,
		HasPaid:      record.HasPaid,
		CreatedAt:    record.CreatedAt,
	}
	if len(record.Memory) > 0 {
		if err := json.Unmarshal(record.Memory, &u.Memory); err != nil {
			return model.User{}, fmt.Errorf("decode memory for %s: %w", record.Email, err)
		}
	}
	return u, nil
}
