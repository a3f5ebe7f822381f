package models

import "time"

// Exchange represents one ISO 10383 market identifier record.
//
// The identifier is issued by the shared ID allocator and never changes. The
// MIC is the natural key the import reconciles on. Every descriptive column
// from the registry is nullable because the registry itself leaves most of
// them blank for inactive or segment MICs.
type Exchange struct {
	ID                 int64      `gorm:"column:id;primaryKey"`
	Mic                string     `gorm:"column:mic;uniqueIndex;size:4"`
	OperatingMic       *string    `gorm:"column:operating_mic;size:4"`
	Segment            *string    `gorm:"column:oprt_sgmt;size:4"`
	MarketName         *string    `gorm:"column:market_name"`
	LegalEntityName    *string    `gorm:"column:legal_entity_name"`
	Lei                *string    `gorm:"column:lei;size:20"`
	MarketCategoryCode *string    `gorm:"column:market_category_code"`
	Acronym            *string    `gorm:"column:acronym"`
	CountryCode        *string    `gorm:"column:iso_country_code;size:2"`
	City               *string    `gorm:"column:city"`
	Website            *string    `gorm:"column:website"`
	Status             *string    `gorm:"column:status"`
	CreationDate       *time.Time `gorm:"column:creation_date"`
	LastUpdateDate     *time.Time `gorm:"column:last_update_date"`
	LastValidationDate *time.Time `gorm:"column:last_validation_date"`
	ExpiryDate         *time.Time `gorm:"column:expiry_date"`
	Comments           *string    `gorm:"column:comments"`
	UpdateTime         time.Time  `gorm:"column:update_time"`
	UpdateCount        int        `gorm:"column:update_count"`
}

// TableName overrides the table name.
func (Exchange) TableName() string {
	return "exchange"
}

// Record is one parsed row of the ISO 10383 CSV before reconciliation.
// Absent registry values are nil, never the empty string.
type Record struct {
	Mic                string
	OperatingMic       *string
	Segment            *string
	MarketName         *string
	LegalEntityName    *string
	Lei                *string
	MarketCategoryCode *string
	Acronym            *string
	CountryCode        *string
	City               *string
	Website            *string
	Status             *string
	CreationDate       *time.Time
	LastUpdateDate     *time.Time
	LastValidationDate *time.Time
	ExpiryDate         *time.Time
	Comments           *string
}
