// Package geo provides the static place-name index and great-circle
// distance math used by the proximity fallback.
//
// The index is built once, injected into the engine, and never mutated,
// so it is safe to share across concurrent lookups. Name resolution is
// deliberately simple: exact match first, then the first entry where
// either string contains the other, in index insertion order.
package geo
