// Package database provides the connection to the relational store and the
// sequence primitive that backs client-side identifier allocation.
//
// Connect opens a GORM connection for the configured driver: MySQL/MariaDB in
// production, SQLite for tests. SequenceSource reads a contiguous identifier
// range from a database-side sequence in one round trip; the sequence's large
// increment is what lets the allocator amortize store round trips.
package database
