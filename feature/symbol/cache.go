package symbol

import (
	"strconv"

	"market-sync/core/cache"
	"market-sync/feature/symbol/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AttrID and AttrUID are the cacheable attributes of a Symbol.
const (
	AttrID  = "id"
	AttrUID = "uid"
)

// NewCache creates the symbol cache backed by the symbol table.
func NewCache(db *gorm.DB, log *zap.Logger) (*cache.Cache[*models.Symbol], error) {
	loader := cache.NewGormLoader[*models.Symbol](db, map[string]string{
		AttrID:  "id",
		AttrUID: "uid",
	})
	return cache.New("symbol", loader, log,
		cache.Attr[*models.Symbol]{Name: AttrID, Key: func(s *models.Symbol) string {
			return strconv.FormatInt(s.ID, 10)
		}},
		cache.Attr[*models.Symbol]{Name: AttrUID, Key: func(s *models.Symbol) string {
			return s.UID
		}},
	)
}
