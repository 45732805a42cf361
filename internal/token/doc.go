// Package token mints the opaque identifiers used across ziwei.
//
// Chart record ids and analysis request tokens are UUIDv7 strings, which sort
// by creation time. Tests swap in FixedGenerator and FixedClock so that ids,
// timestamps and golden output stay deterministic.
package token
