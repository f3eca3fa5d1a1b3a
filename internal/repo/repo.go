package repo

import (
	"context"

	"gorm.io/gorm"
)

// GormRepo wraps a *gorm.DB. Inside Transaction the DB is the transaction itself,
// so every method on the handed-out repo runs in that transaction.
type GormRepo struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}

// Transaction commits when fn returns nil and rolls back otherwise,
// including when ctx is cancelled before commit.
func (r *GormRepo) Transaction(ctx context.Context, fn func(tx *GormRepo) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormRepo{DB: tx})
	})
}
