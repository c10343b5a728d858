// Package service coordinates the sentiment classifier, the query embedder and
// the vector store behind the HTTP API. It is structured into small files by
// concern:
//
//   - service.go: Service type, constructor, Predict and Recommend.
//   - config.go: Config and package defaults; New applies defaults.
//   - types.go: component interfaces and lifecycle states.
//   - errors.go: error types and helpers (IsDependencyUnavailable, IsInvalidInput).
//   - breaker.go: circuit breakers guarding the embedder and the vector store.
//   - status.go: readiness and /status reporting.
//   - metrics.go: domain Prometheus metrics.
//
// Components may be nil. A nil component is reported as unavailable and the
// operations that need it fail with a dependency-unavailable error, which the
// HTTP layer maps to 503.
package service
