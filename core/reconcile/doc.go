// Package reconcile converges local entity state with batches of externally
// observed records using natural-key identity.
//
// A Spec bundles everything type-specific: the natural-key extraction, the
// entity cache used for resolution, a declarative list of tracked fields, the
// constructor for new entities, and an optional vanished-record hook. The
// generic Run routine then classifies every record as new, changed, unchanged
// or rejected and emits the minimal set of writes needed to converge.
//
// Change detection is exact per-field comparison, deliberately not a content
// hash: the per-field approach yields an audit trail of what changed and
// cannot produce a false "unchanged" verdict.
//
// All writes of one batch are applied in a single store transaction, merges
// before inserts before deactivation. Partial application is not possible;
// identifiers and cache entries produced for a batch that fails to commit are
// discarded with the run.
package reconcile
