package database

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func TestSequenceSource_NextRange(t *testing.T) {
	db, mock := setupMockDB(t)

	rows := sqlmock.NewRows([]string{"next_val", "increment"}).AddRow(5001, 1000)
	mock.ExpectQuery("SELECT NEXTVAL\\(id_seq\\) AS next_val, increment FROM id_seq").WillReturnRows(rows)

	src := NewSequenceSource(db, "id_seq")
	start, count, err := src.NextRange(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, int64(5001), start)
	assert.Equal(t, int64(1000), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSequenceSource_NextRange_NoRow(t *testing.T) {
	db, mock := setupMockDB(t)

	rows := sqlmock.NewRows([]string{"next_val", "increment"})
	mock.ExpectQuery("SELECT NEXTVAL\\(id_seq\\) AS next_val, increment FROM id_seq").WillReturnRows(rows)

	src := NewSequenceSource(db, "id_seq")
	_, _, err := src.NextRange(context.Background())
	assert.Error(t, err)
}

func TestSequenceSource_SQLite(t *testing.T) {
	db, err := Connect(Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)

	require.NoError(t, EnsureSequence(db, "id_seq", 1, 100))
	// Creating twice must be a no-op.
	require.NoError(t, EnsureSequence(db, "id_seq", 1, 100))

	src := NewSequenceSource(db, "id_seq")

	start, count, err := src.NextRange(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), start)
	assert.Equal(t, int64(100), count)

	// Ranges must be contiguous and non-overlapping across refills.
	start2, count2, err := src.NextRange(context.Background())
	require.NoError(t, err)
	assert.Equal(t, start+count, start2)
	assert.Equal(t, int64(100), count2)
}
