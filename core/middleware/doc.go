// Package middleware contains HTTP middleware for the Fiber application.
//
// # Components
//
//   - Auth: API key check on every route except the configured skip list
//     (the start command leaves /health public). Keys are read from X-API-Key
//     or an "Authorization: Bearer" header.
//   - RayID: Reuses the caller's X-Ray-ID or generates one, stores it in the
//     request locals for logger.WithRayID and echoes it on the response.
//
// RayID must be registered first so every later log line carries the id.
package middleware
