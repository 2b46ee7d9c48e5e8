// Package gateway issues HTTP calls to the remote health service on two channels.
//
// # Channels
//
//   - [Public] never attaches a credential. Login, registration, verification and
//     the OAuth bootstrap calls go through it because they must work without a session.
//   - [Authenticated] asks its [TokenSource] for the current bearer token right before
//     each call and sends it as an Authorization header when one exists. A missing
//     token is not a local error: the request is sent bare and the server rejects it.
//
// # Errors
//
// Every failure is one of three typed errors, matching the client's error taxonomy:
// [TransportError] (no response reached), [HTTPError] (non-2xx, with the structured
// detail field parsed out of the body) and [MalformedError] (2xx whose body lacks a
// field the caller needs). [Kind] classifies any error chain.
//
// # What this package must NOT do
//
//   - Retry. Retry policy belongs to the caller.
//   - Mutate session state. The gateway only reads the token.
//   - Surface raw server text to end users. Mapping detail codes to messages is the
//     root package's job.
package gateway
