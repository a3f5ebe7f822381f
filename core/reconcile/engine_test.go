package reconcile

import (
	"context"
	"fmt"
	"strconv"
	"testing"
	"time"

	"market-sync/core/cache"
	"market-sync/core/database"
	"market-sync/core/idgen"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// listing is a minimal cacheable entity used to exercise the engine.
type listing struct {
	ID          int64  `gorm:"column:id;primaryKey"`
	Code        string `gorm:"column:code;uniqueIndex"`
	Name        string `gorm:"column:name"`
	Active      bool   `gorm:"column:active"`
	UpdateCount int    `gorm:"column:update_count"`
	UpdateTime  time.Time
}

func (listing) TableName() string { return "listings" }

type listingRec struct {
	Code string
	Name string
}

type engineEnv struct {
	db    *gorm.DB
	alloc *idgen.Allocator
	spec  *Spec[*listing, listingRec]
}

func setupEngine(t *testing.T) *engineEnv {
	t.Helper()

	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&listing{}))
	require.NoError(t, database.EnsureSequence(db, "id_seq", 1, 50))

	alloc := idgen.New(database.NewSequenceSource(db, "id_seq"), zap.NewNop())

	loader := cache.NewGormLoader[*listing](db, map[string]string{
		"id":   "id",
		"code": "code",
	})
	c, err := cache.New("listing", loader, zap.NewNop(),
		cache.Attr[*listing]{Name: "id", Key: func(l *listing) string { return strconv.FormatInt(l.ID, 10) }},
		cache.Attr[*listing]{Name: "code", Key: func(l *listing) string { return l.Code }},
	)
	require.NoError(t, err)

	spec := &Spec[*listing, listingRec]{
		Name:    "listing",
		Cache:   c,
		KeyAttr: "code",
		Key: func(r listingRec) (string, error) {
			if r.Code == "" {
				return "", fmt.Errorf("empty code")
			}
			return r.Code, nil
		},
		Fields: []Field[*listing, listingRec]{
			{
				Name:     "name",
				Current:  func(l *listing) any { return l.Name },
				Incoming: func(r listingRec) any { return r.Name },
				Assign:   func(l *listing, r listingRec) { l.Name = r.Name },
			},
		},
		New: func(r listingRec, id int64) (*listing, error) {
			return &listing{ID: id, Code: r.Code, Name: r.Name, Active: true, UpdateTime: time.Now()}, nil
		},
		Touch: func(l *listing) {
			l.UpdateCount++
			l.UpdateTime = time.Now()
		},
		Vanished: func(ctx context.Context, tx *gorm.DB, seen map[string]struct{}) (int, error) {
			var active []*listing
			if err := tx.Where("active = ?", true).Find(&active).Error; err != nil {
				return 0, err
			}
			n := 0
			for _, l := range active {
				if _, ok := seen[l.Code]; ok {
					continue
				}
				if err := tx.Model(l).Update("active", false).Error; err != nil {
					return 0, err
				}
				n++
			}
			return n, nil
		},
	}

	return &engineEnv{db: db, alloc: alloc, spec: spec}
}

func (e *engineEnv) run(t *testing.T, batch []listingRec) Result {
	t.Helper()
	res, err := Run(context.Background(), e.db, e.alloc, e.spec, batch, zap.NewNop())
	require.NoError(t, err)
	return res
}

func TestRun_NewEntities(t *testing.T) {
	env := setupEngine(t)

	res := env.run(t, []listingRec{
		{Code: "AAPLXNAS", Name: "Apple"},
		{Code: "MSFTXNAS", Name: "Microsoft"},
	})
	assert.Equal(t, 2, res.New)
	assert.Equal(t, 0, res.Updated)
	assert.Equal(t, 0, res.Unchanged)

	var rows []listing
	require.NoError(t, env.db.Order("id").Find(&rows).Error)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1), rows[0].ID)
	assert.Equal(t, int64(2), rows[1].ID)
	assert.True(t, rows[0].Active)
}

func TestRun_Idempotence(t *testing.T) {
	env := setupEngine(t)
	batch := []listingRec{
		{Code: "AAPLXNAS", Name: "Apple"},
		{Code: "MSFTXNAS", Name: "Microsoft"},
	}

	env.run(t, batch)
	res := env.run(t, batch)

	assert.Equal(t, 0, res.New)
	assert.Equal(t, 0, res.Updated)
	assert.Equal(t, 0, res.Vanished)
	assert.Equal(t, 2, res.Unchanged)
}

func TestRun_FieldChange(t *testing.T) {
	env := setupEngine(t)
	env.run(t, []listingRec{{Code: "AAPLXNAS", Name: "Apple"}})

	res := env.run(t, []listingRec{{Code: "AAPLXNAS", Name: "Apple Inc"}})
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 0, res.New)

	var row listing
	require.NoError(t, env.db.Where("code = ?", "AAPLXNAS").First(&row).Error)
	assert.Equal(t, "Apple Inc", row.Name)
	assert.Equal(t, 1, row.UpdateCount)
}

func TestRun_UnchangedKeepsRevision(t *testing.T) {
	env := setupEngine(t)
	env.run(t, []listingRec{{Code: "AAPLXNAS", Name: "Apple"}})
	env.run(t, []listingRec{{Code: "AAPLXNAS", Name: "Apple"}})

	var row listing
	require.NoError(t, env.db.Where("code = ?", "AAPLXNAS").First(&row).Error)
	assert.Equal(t, 0, row.UpdateCount)
}

func TestRun_VanishedDetection(t *testing.T) {
	env := setupEngine(t)
	env.run(t, []listingRec{
		{Code: "AAPLXNAS", Name: "Apple"},
		{Code: "ENRNXNYS", Name: "Enron"},
	})

	// Enron disappears from the feed, Apple changes a field in the same batch.
	res := env.run(t, []listingRec{{Code: "AAPLXNAS", Name: "Apple Inc"}})
	assert.Equal(t, 1, res.Vanished)
	assert.Equal(t, 1, res.Updated)

	var gone, still listing
	require.NoError(t, env.db.Where("code = ?", "ENRNXNYS").First(&gone).Error)
	require.NoError(t, env.db.Where("code = ?", "AAPLXNAS").First(&still).Error)
	assert.False(t, gone.Active)
	assert.True(t, still.Active)

	// The row is retired, not deleted.
	var count int64
	require.NoError(t, env.db.Model(&listing{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestRun_RejectsMalformedAndDuplicateKeys(t *testing.T) {
	env := setupEngine(t)

	res := env.run(t, []listingRec{
		{Code: "", Name: "No Key"},
		{Code: "AAPLXNAS", Name: "Apple"},
		{Code: "AAPLXNAS", Name: "Apple Again"},
	})
	assert.Equal(t, 2, res.Rejected)
	assert.Equal(t, 1, res.New)

	// The first occurrence wins.
	var row listing
	require.NoError(t, env.db.Where("code = ?", "AAPLXNAS").First(&row).Error)
	assert.Equal(t, "Apple", row.Name)
}

func TestRun_SecondaryCollisionIsStillNew(t *testing.T) {
	env := setupEngine(t)
	env.run(t, []listingRec{{Code: "AAPLXNAS", Name: "Apple"}})

	// Same name (a non-key field) under a different natural key must be
	// treated as a new entity, never matched by the colliding field.
	res := env.run(t, []listingRec{
		{Code: "AAPLXNAS", Name: "Apple"},
		{Code: "AAPLXLON", Name: "Apple"},
	})
	assert.Equal(t, 1, res.New)
	assert.Equal(t, 1, res.Unchanged)
}

func TestRun_AllocatorFailurePropagates(t *testing.T) {
	env := setupEngine(t)

	// Drop the sequence backing table; refill must fail and surface as an
	// allocator-exhaustion error.
	require.NoError(t, env.db.Exec("DROP TABLE id_seq").Error)

	_, err := Run(context.Background(), env.db, env.alloc, env.spec,
		[]listingRec{{Code: "AAPLXNAS", Name: "Apple"}}, zap.NewNop())
	assert.ErrorIs(t, err, idgen.ErrExhausted)
}
