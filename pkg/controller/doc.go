// Package controller contains HTTP middlewares and helper handlers used by the API server.
//
// Provided middlewares:
//   - WithCORS: Adds permissive CORS headers and handles OPTIONS preflight.
//   - WithLogger: Attaches a request-scoped logger and request ID to the context and logs access info.
//   - WithRateLimit: Throttles requests per client IP with a token bucket.
//
// Provided helpers:
//   - Pprof: Serves the net/http/pprof endpoints under a path prefix.
package controller
