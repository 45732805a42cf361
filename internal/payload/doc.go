// Package payload compiles a chart's astrolabe into the structured document
// sent to the reasoning service.
//
// Build is pure. Identical inputs always render to identical bytes, so the
// rendered document can be snapshot-tested and hashed. Top-level keys and
// their order are fixed; palace-keyed blocks follow the target selection
// order.
package payload
