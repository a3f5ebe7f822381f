// Package symbol synchronizes listed instruments against the reference feed.
//
// Identity is the UID, ticker plus listing MIC, because tickers repeat across
// venues. A sync reconciles the feed's full listing through the generic
// engine: descriptive fields are tracked per field, the listing venue is
// resolved through the exchange cache, and instruments the feed stops
// reporting are delisted in place rather than deleted.
package symbol
