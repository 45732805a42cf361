// Package analysis runs interpretation requests for one displayed chart.
//
// A Session moves Idle → Requesting → Succeeded or Failed and may be
// restarted from either end state. Only one request is in flight per
// session: Start while Requesting returns ErrAlreadyInFlight and dispatches
// nothing.
//
// Each Start mints a request token and resolves the backing record before
// the request goes out. Token and record id travel together as a
// RequestContext, and the response is committed against that record id.
// Switching charts with SetChart invalidates the token, so a late response
// for the previous chart is dropped with ErrSuperseded.
package analysis
