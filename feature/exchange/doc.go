// Package exchange imports the ISO 10383 market identifier (MIC) registry.
//
// The published CSV is downloaded, archived as a dated snapshot, decoded from
// latin-1 and reconciled into the exchange table through the generic engine.
// The MIC is the natural key; every other registry column is a tracked field,
// so a re-import only writes rows whose registry data actually changed.
package exchange
