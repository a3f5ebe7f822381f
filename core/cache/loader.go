package cache

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// GormLoader is a Loader backed by a GORM model. Attribute names map to the
// table columns they are stored in.
type GormLoader[T any] struct {
	db      *gorm.DB
	columns map[string]string
}

// NewGormLoader creates a loader for entity type T. columns maps each
// cacheable attribute name to its database column.
func NewGormLoader[T any](db *gorm.DB, columns map[string]string) *GormLoader[T] {
	return &GormLoader[T]{db: db, columns: columns}
}

func (l *GormLoader[T]) column(attr string) (string, error) {
	col, ok := l.columns[attr]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownAttribute, attr)
	}
	return col, nil
}

// LoadOne returns the single row matching attr=key.
func (l *GormLoader[T]) LoadOne(ctx context.Context, attr, key string) (T, bool, error) {
	var zero T
	col, err := l.column(attr)
	if err != nil {
		return zero, false, err
	}

	var rows []T
	if err := l.db.WithContext(ctx).Where(col+" = ?", key).Limit(1).Find(&rows).Error; err != nil {
		return zero, false, err
	}
	if len(rows) == 0 {
		return zero, false, nil
	}
	return rows[0], true, nil
}

// LoadMany returns all rows whose attr value is in keys, in one query.
func (l *GormLoader[T]) LoadMany(ctx context.Context, attr string, keys []string) ([]T, error) {
	col, err := l.column(attr)
	if err != nil {
		return nil, err
	}

	var rows []T
	if err := l.db.WithContext(ctx).Where(col+" IN ?", keys).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// LoadAll returns every row of the type.
func (l *GormLoader[T]) LoadAll(ctx context.Context) ([]T, error) {
	var rows []T
	if err := l.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
