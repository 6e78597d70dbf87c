// Package repo holds the gorm plumbing shared by the seller and sale repositories.
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Base carries the gorm handle a repository runs on.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the handle bound to ctx. A nil ctx yields the raw handle.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Tx rebinds the base to tx. A nil tx keeps the current handle.
func (b Base) Tx(tx *gorm.DB) Base {
	if tx == nil {
		return b
	}
	return Base{db: tx}
}

// FindOne loads the first row of T matching query. A missing row is (nil, nil)
// so callers decide whether absence is an error.
func FindOne[T any](db *gorm.DB, query any, args ...any) (*T, error) {
	var row T
	err := db.Where(query, args...).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}
