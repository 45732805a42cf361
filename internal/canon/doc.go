// Package canon provides the canonical value model and serialization used for
// content-addressed identity in ziwei.
//
// Identity keys are computed over RFC 8785 canonical JSON:
//   - object keys sorted by UTF-16 code units
//   - strings NFC normalized, no HTML escaping
//   - no floats and no null
//
// canon imports nothing internal; chart and payload build on it.
package canon
