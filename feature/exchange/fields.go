package exchange

import (
	"fmt"
	"time"

	"market-sync/core/cache"
	"market-sync/core/reconcile"
	"market-sync/feature/exchange/models"
)

func textField(name string, cur func(*models.Exchange) **string, inc func(models.Record) *string) reconcile.Field[*models.Exchange, models.Record] {
	return reconcile.Field[*models.Exchange, models.Record]{
		Name:     name,
		Current:  func(e *models.Exchange) any { return *cur(e) },
		Incoming: func(r models.Record) any { return inc(r) },
		Assign:   func(e *models.Exchange, r models.Record) { *cur(e) = inc(r) },
	}
}

func dateField(name string, cur func(*models.Exchange) **time.Time, inc func(models.Record) *time.Time) reconcile.Field[*models.Exchange, models.Record] {
	return reconcile.Field[*models.Exchange, models.Record]{
		Name:     name,
		Current:  func(e *models.Exchange) any { return *cur(e) },
		Incoming: func(r models.Record) any { return inc(r) },
		Assign:   func(e *models.Exchange, r models.Record) { *cur(e) = inc(r) },
	}
}

// Fields is the declarative list of tracked Exchange fields. The MIC is the
// natural key and is not tracked.
func Fields() []reconcile.Field[*models.Exchange, models.Record] {
	return []reconcile.Field[*models.Exchange, models.Record]{
		textField("operating_mic", func(e *models.Exchange) **string { return &e.OperatingMic }, func(r models.Record) *string { return r.OperatingMic }),
		textField("oprt_sgmt", func(e *models.Exchange) **string { return &e.Segment }, func(r models.Record) *string { return r.Segment }),
		textField("market_name", func(e *models.Exchange) **string { return &e.MarketName }, func(r models.Record) *string { return r.MarketName }),
		textField("legal_entity_name", func(e *models.Exchange) **string { return &e.LegalEntityName }, func(r models.Record) *string { return r.LegalEntityName }),
		textField("lei", func(e *models.Exchange) **string { return &e.Lei }, func(r models.Record) *string { return r.Lei }),
		textField("market_category_code", func(e *models.Exchange) **string { return &e.MarketCategoryCode }, func(r models.Record) *string { return r.MarketCategoryCode }),
		textField("acronym", func(e *models.Exchange) **string { return &e.Acronym }, func(r models.Record) *string { return r.Acronym }),
		textField("iso_country_code", func(e *models.Exchange) **string { return &e.CountryCode }, func(r models.Record) *string { return r.CountryCode }),
		textField("city", func(e *models.Exchange) **string { return &e.City }, func(r models.Record) *string { return r.City }),
		textField("website", func(e *models.Exchange) **string { return &e.Website }, func(r models.Record) *string { return r.Website }),
		textField("status", func(e *models.Exchange) **string { return &e.Status }, func(r models.Record) *string { return r.Status }),
		dateField("creation_date", func(e *models.Exchange) **time.Time { return &e.CreationDate }, func(r models.Record) *time.Time { return r.CreationDate }),
		dateField("last_update_date", func(e *models.Exchange) **time.Time { return &e.LastUpdateDate }, func(r models.Record) *time.Time { return r.LastUpdateDate }),
		dateField("last_validation_date", func(e *models.Exchange) **time.Time { return &e.LastValidationDate }, func(r models.Record) *time.Time { return r.LastValidationDate }),
		dateField("expiry_date", func(e *models.Exchange) **time.Time { return &e.ExpiryDate }, func(r models.Record) *time.Time { return r.ExpiryDate }),
		textField("comments", func(e *models.Exchange) **string { return &e.Comments }, func(r models.Record) *string { return r.Comments }),
	}
}

// NewSpec builds the reconciliation spec over the given cache. The registry
// is authoritative for every MIC, so there is no vanished handling: a MIC that
// drops out keeps its row, with the registry marking it expired instead.
func NewSpec(c *cache.Cache[*models.Exchange]) *reconcile.Spec[*models.Exchange, models.Record] {
	return &reconcile.Spec[*models.Exchange, models.Record]{
		Name:    "exchange",
		Cache:   c,
		KeyAttr: AttrMic,
		Key: func(r models.Record) (string, error) {
			if r.Mic == "" {
				return "", fmt.Errorf("row without MIC")
			}
			return r.Mic, nil
		},
		Fields: Fields(),
		New: func(r models.Record, id int64) (*models.Exchange, error) {
			e := &models.Exchange{ID: id, Mic: r.Mic, UpdateTime: time.Now()}
			for _, f := range Fields() {
				f.Assign(e, r)
			}
			return e, nil
		},
		Touch: func(e *models.Exchange) {
			e.UpdateCount++
			e.UpdateTime = time.Now()
		},
	}
}
