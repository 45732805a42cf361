// Package reasoner is the boundary to the interpretation service.
//
// A Reasoner takes the two-message analysis request and returns the
// generated interpretation text. Proxy posts to a companion HTTP endpoint
// ({base}/api/interpret); Direct calls an OpenAI-compatible chat model via
// eino. Handler is the server side of that endpoint, and NewServer mounts it
// on a kratos HTTP server.
//
// All failures are reported as *chart.Error: ConfigurationMissing before a
// request is made, NetworkOrServiceFailure for anything after. Nothing is
// retried.
package reasoner
