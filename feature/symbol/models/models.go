package models

import "time"

// Symbol represents one listed instrument reported by the reference feed.
//
// The plain ticker is not unique across venues, so the natural key is the
// UID, ticker concatenated with the listing MIC. FeedListed tracks whether
// the feed still reports the instrument; retired symbols keep their row and
// history but drop out of quote collection.
type Symbol struct {
	ID             int64      `gorm:"column:id;primaryKey"`
	UID            string     `gorm:"column:uid;uniqueIndex"`
	Ticker         string     `gorm:"column:symbol;index"`
	Mic            string     `gorm:"column:mic"`
	ExchangeID     int64      `gorm:"column:exchange_id;index"`
	Currency       *string    `gorm:"column:currency"`
	Description    *string    `gorm:"column:description"`
	DisplaySymbol  *string    `gorm:"column:display_symbol"`
	Figi           *string    `gorm:"column:figi"`
	ShareClassFigi *string    `gorm:"column:share_class_figi"`
	Ticker2        *string    `gorm:"column:symbol2"`
	Type           *string    `gorm:"column:type"`
	FeedListed     bool       `gorm:"column:feed_listed;index"`
	LastQuoteCheck *time.Time `gorm:"column:last_quote_check"`
	LastBarCheck   *time.Time `gorm:"column:last_bar_check"`
	UpdateTime     time.Time  `gorm:"column:update_time"`
	UpdateCount    int        `gorm:"column:update_count"`
}

// TableName overrides the table name.
func (Symbol) TableName() string {
	return "symbol"
}

// UIDOf derives the natural key for a ticker listed on a venue.
func UIDOf(ticker, mic string) string {
	return ticker + mic
}
