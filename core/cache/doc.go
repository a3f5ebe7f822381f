// Package cache provides a per-entity-type cache-aside layer keyed by a
// declared set of unique attributes.
//
// Each entity type obtains its cache from an explicit constructor call that
// declares the cacheable attributes (for example "id" and "mic" for an
// exchange, "id" and "uid" for a symbol). There is no implicit registration
// tied to type declaration; the wiring is visible at the call site.
//
// # Lock Discipline
//
// One mutex per cache instance guards both the attribute maps and the
// read-then-fill composite of GetOrLoad and GetAllOrLoad. Caches of different
// types never share a lock, so cross-type operations cannot deadlock.
//
// # Staleness
//
// The cache is not invalidated by store writes performed elsewhere in the
// process. Writers that persist a changed entity must re-Put the refreshed
// copy; the reconciliation engine does so after every merge.
package cache
