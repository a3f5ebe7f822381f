package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// sequenceRow mirrors the projection of one sequence reservation round trip.
type sequenceRow struct {
	NextVal   int64 `gorm:"column:next_val"`
	Increment int64 `gorm:"column:increment"`
}

// SequenceSource reserves contiguous ID ranges from a database-side sequence.
// One round trip yields the sequence's current value together with its
// configured increment, so the caller owns [next_val, next_val+increment).
type SequenceSource struct {
	db   *gorm.DB
	name string
}

// NewSequenceSource returns a SequenceSource for the named sequence.
func NewSequenceSource(db *gorm.DB, name string) *SequenceSource {
	return &SequenceSource{db: db, name: name}
}

// NextRange reserves the next contiguous range from the sequence.
// It returns the first reserved value and the count of reserved values.
func (s *SequenceSource) NextRange(ctx context.Context) (int64, int64, error) {
	if s.db.Dialector.Name() == "sqlite" {
		return s.nextRangeSQLite(ctx)
	}

	// MariaDB exposes a sequence as a one-row table carrying its increment,
	// so the value and the range size come back in a single round trip.
	var row sequenceRow
	res := s.db.WithContext(ctx).
		Raw(fmt.Sprintf("SELECT NEXTVAL(%s) AS next_val, increment FROM %s", s.name, s.name)).
		Scan(&row)
	if res.Error != nil {
		return 0, 0, fmt.Errorf("sequence %s: %w", s.name, res.Error)
	}
	if res.RowsAffected == 0 || row.Increment <= 0 {
		return 0, 0, fmt.Errorf("sequence %s returned no usable row", s.name)
	}
	return row.NextVal, row.Increment, nil
}

// nextRangeSQLite emulates NEXTVAL against the one-row table created by
// EnsureSequence. SQLite has no native sequences; tests run on this path.
func (s *SequenceSource) nextRangeSQLite(ctx context.Context) (int64, int64, error) {
	var row sequenceRow
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Raw(fmt.Sprintf("SELECT next_val, increment FROM %s", s.name)).Scan(&row)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 || row.Increment <= 0 {
			return fmt.Errorf("sequence %s returned no usable row", s.name)
		}
		return tx.Exec(fmt.Sprintf("UPDATE %s SET next_val = next_val + increment", s.name)).Error
	})
	if err != nil {
		return 0, 0, fmt.Errorf("sequence %s: %w", s.name, err)
	}
	return row.NextVal, row.Increment, nil
}

// EnsureSequence creates the backing sequence if it does not exist yet.
// On MariaDB this issues CREATE SEQUENCE; on SQLite it creates the one-row
// emulation table used by the tests.
func EnsureSequence(db *gorm.DB, name string, start, increment int64) error {
	if db.Dialector.Name() == "sqlite" {
		if err := db.Exec(fmt.Sprintf(
			"CREATE TABLE IF NOT EXISTS %s (next_val INTEGER NOT NULL, increment INTEGER NOT NULL)", name)).Error; err != nil {
			return err
		}
		var count int64
		if err := db.Raw(fmt.Sprintf("SELECT COUNT(*) FROM %s", name)).Scan(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return db.Exec(fmt.Sprintf("INSERT INTO %s (next_val, increment) VALUES (?, ?)", name),
				start, increment).Error
		}
		return nil
	}

	return db.Exec(fmt.Sprintf(
		"CREATE SEQUENCE IF NOT EXISTS %s START WITH %d INCREMENT BY %d CACHE 10",
		name, start, increment)).Error
}
