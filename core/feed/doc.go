// Package feed wraps external market-data providers with the resilience
// machinery the synchronization loops depend on.
//
// A Provider is the raw capability surface of one source (list symbols, get
// quote, get market status, get daily bars). The Client wrapper adds:
//
//   - rate limiting: a per-provider minimum spacing between calls, enforced
//     by an explicit Limiter object owned by the client;
//   - retry: a transient failure recycles the underlying provider connection
//     and retries exactly once, pausing longer for timeouts; a permission
//     failure (403 class) is logged and skipped, never retried;
//   - market-status caching: a venue's status is trusted within the same
//     wall-clock half-hour bucket it was observed in.
//
// EODCutoff resolves when "yesterday's" end-of-day data became final,
// accounting for the daily publish hour, weekends and venue holidays. The
// reconciliation loops must not mark a symbol checked unless the fetch
// genuinely succeeded or is known final; the wrapper's contracts exist to
// make that distinction possible.
package feed
