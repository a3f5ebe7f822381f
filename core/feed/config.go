package feed

// Config holds configuration for the external market-data providers and the
// resilience wrapper around them.
type Config struct {
	// APIKey is the reference/quote provider API key.
	APIKey string `mapstructure:"api_key" default:""`
	// Venue is the market venue synchronized by default.
	Venue string `mapstructure:"venue" default:"US"`
	// MinRequestIntervalMS is the minimum spacing between requests to one
	// provider, in milliseconds.
	MinRequestIntervalMS int `mapstructure:"min_request_interval_ms" default:"1000"`
	// RetryPauseSeconds is the pause before the single retry after a
	// non-timeout transient failure.
	RetryPauseSeconds int `mapstructure:"retry_pause_seconds" default:"1"`
	// TimeoutPauseSeconds is the pause before the single retry after a
	// timeout failure.
	TimeoutPauseSeconds int `mapstructure:"timeout_pause_seconds" default:"10"`
	// TimeoutSeconds is the HTTP request timeout.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
	// PublishHour is the local hour at which end-of-day data is published.
	PublishHour int `mapstructure:"publish_hour" default:"19"`
	// BackfillDays is the minimum staleness, in days, before historical bars
	// are fetched again for a symbol.
	BackfillDays int `mapstructure:"backfill_days" default:"1"`
}
