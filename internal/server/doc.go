// Package server provides HTTP routing and middleware for the Calchart web application.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Middleware
//
// [Logging] logs each request with its method, path, status, and duration.
// [Recover] turns handler panics into 500 responses instead of dropped connections.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
//
// The web package (internal/web) builds the application's handlers on top of
// this infrastructure: the page controller, the show export endpoint, and the
// login and Members Only bridge endpoints.
package server
