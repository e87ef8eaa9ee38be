package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base provides the shared connection handling for domain repositories.
type Base struct {
	db *gorm.DB
}

// NewBase constructs a Base repository backed by the provided GORM connection.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the GORM connection bound to the supplied context (if any).
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Rebind returns a Base using tx, or the receiver when tx is nil so callers
// can pass through an absent transaction.
func (b Base) Rebind(tx *gorm.DB) Base {
	if tx == nil {
		return b
	}
	return Base{db: tx}
}

// Affected unwraps a write result into its row count.
func Affected(result *gorm.DB) (int64, error) {
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
