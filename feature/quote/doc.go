// Package quote collects end-of-day quotes and historical daily bars.
//
// Quote collection is gated on the venue being closed and keyed to a
// publication cutoff: quotes published before the cutoff roll back across
// holidays and weekends to the last trading day. Both quote and bar tables
// are append-only with conflict-ignoring inserts, so an interrupted run can
// simply be repeated.
package quote
