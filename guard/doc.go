// Package guard decides whether a protected view may render for the current
// session, and adapts that decision to net/http.
//
// # Routes
//
//   - [DefaultRoutes] is the application's route table.
//   - [Evaluate] is the pure decision for one route.
//   - [Router] resolves a path against a table; unknown paths are public.
//   - [Middleware] re-evaluates on every request and redirects to login.
//
// # Architecture boundaries
//
// This package only reads a session. It never validates tokens, calls the
// remote service, or mutates the session store; a session is present only
// after the client's bootstrap or login established it.
package guard
