// Package server exposes the job pipeline over a JSON HTTP API.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method-qualified patterns.
//
// # API Surface
//
//	POST /api/fetch       → resolve a catalog link to a track descriptor
//	POST /api/download    → submit a download job, returns the job id
//	GET  /api/status/{id} → current job status snapshot
//	GET  /api/jobs        → all known jobs
//	GET  /api/file/{id}   → serve the artifact of a completed job
//	GET  /health          → liveness probe
//
// Status responses mirror the in-memory job record: stage name, percent
// progress, message, track metadata, and on completion the artifact path
// with its measured size and bitrate.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
