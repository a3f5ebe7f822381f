// Package idgen supplies unique integer identifiers for new entities without
// a store round trip per object.
//
// The Allocator keeps an in-memory pool of identifiers reserved from a
// database-side sequence with a large increment (see core/database's
// SequenceSource). Popping and refilling are atomic with respect to each
// other, so concurrent callers never receive the same identifier twice and an
// emptying pool never triggers two refills that both believe they succeeded.
//
// Identifiers carry no meaning beyond uniqueness. Gaps caused by discarded
// entities or failed batch commits are expected and acceptable.
package idgen
