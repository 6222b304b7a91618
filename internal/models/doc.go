// Package models defines domain entities and persistence interfaces for the Calchart show service.
//
// The package contains the persistent entities backing the web application:
//   - [User] : Calchart accounts, either local (password) or imported from Members Only (API token)
//   - [Show] : a marching-band show with its JSON data document
//   - [Session] : a cookie-backed login session with its CSRF token
//
// All persistent entities implement the Model interface providing ID generation, timestamps, validation, and soft delete support.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
