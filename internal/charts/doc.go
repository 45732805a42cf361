// Package charts keeps the ordered collection of saved chart records.
//
// The collection is held in memory and mirrored to a store.KV under the
// "zwds-saved-charts" key as a JSON array, newest first. Every mutation
// encodes the new list and writes it durably before the in-memory view
// changes, so a rejected write leaves both views at their prior state.
//
// Identity lookups go through an index from chart identity key to record
// ids. If duplicate identities ever exist the newest record wins.
//
// AttachInterpretation layers the interpretation cache on top: it patches
// the active record, else the identity match, else inserts a new record,
// all under the store lock.
package charts
