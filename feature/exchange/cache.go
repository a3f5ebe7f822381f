package exchange

import (
	"strconv"

	"market-sync/core/cache"
	"market-sync/feature/exchange/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AttrID and AttrMic are the cacheable attributes of an Exchange.
const (
	AttrID  = "id"
	AttrMic = "mic"
)

// NewCache creates the exchange cache backed by the exchange table.
func NewCache(db *gorm.DB, log *zap.Logger) (*cache.Cache[*models.Exchange], error) {
	loader := cache.NewGormLoader[*models.Exchange](db, map[string]string{
		AttrID:  "id",
		AttrMic: "mic",
	})
	return cache.New("exchange", loader, log,
		cache.Attr[*models.Exchange]{Name: AttrID, Key: func(e *models.Exchange) string {
			return strconv.FormatInt(e.ID, 10)
		}},
		cache.Attr[*models.Exchange]{Name: AttrMic, Key: func(e *models.Exchange) string {
			return e.Mic
		}},
	)
}
