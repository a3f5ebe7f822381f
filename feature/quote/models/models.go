package models

import "time"

// Quote is one end-of-day snapshot quote for a symbol. Rows are append-only;
// the unique (symbol_id, quote_time) pair plus conflict-ignoring inserts make
// re-runs of a collection idempotent.
type Quote struct {
	ID            int64     `gorm:"column:id;primaryKey"`
	SymbolID      int64     `gorm:"column:symbol_id;uniqueIndex:idx_quote_symbol_time"`
	Price         float64   `gorm:"column:current_price"`
	Change        float64   `gorm:"column:day_change"`
	PercentChange float64   `gorm:"column:percent_change"`
	High          float64   `gorm:"column:high"`
	Low           float64   `gorm:"column:low"`
	Open          float64   `gorm:"column:open"`
	PreviousClose float64   `gorm:"column:previous_close"`
	QuoteTime     time.Time `gorm:"column:quote_time;uniqueIndex:idx_quote_symbol_time"`
}

// TableName overrides the table name.
func (Quote) TableName() string {
	return "quote"
}

// DailyBar is one historical daily candle for a symbol, append-only with the
// same idempotence scheme as Quote.
type DailyBar struct {
	ID       int64     `gorm:"column:id;primaryKey"`
	SymbolID int64     `gorm:"column:symbol_id;uniqueIndex:idx_bar_symbol_date"`
	Date     time.Time `gorm:"column:bar_date;uniqueIndex:idx_bar_symbol_date"`
	Open     float64   `gorm:"column:open"`
	High     float64   `gorm:"column:high"`
	Low      float64   `gorm:"column:low"`
	Close    float64   `gorm:"column:close"`
	AdjClose float64   `gorm:"column:adj_close"`
	Volume   int64     `gorm:"column:volume"`
}

// TableName overrides the table name.
func (DailyBar) TableName() string {
	return "daily_bar"
}
