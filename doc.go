// Package goAuthClient is the client side of a remote authentication service:
// it restores a persisted session at startup, performs password login, logout,
// e-mail registration with one-time-code verification, and completes an OAuth
// redirect flow whose code is exchanged for an access token.
//
// A [Client] is built once through [Builder.Build] and is safe for concurrent
// use. Every authentication operation is non-reentrant: a second call while one
// is in flight returns [ErrOperationPending] without touching the network.
//
// # Architecture boundaries
//
// goAuthClient is the public surface. It exposes [Client], [Builder], [Config],
// [Registration] and the sentinel errors. The HTTP wire format lives in
// gateway, token persistence and the session state machine live in session,
// and the unverified claim decoding lives in jwt. Flow orchestration, audit
// dispatch and metric counters live under internal/ and are never exported.
//
// # What this package must NOT do
//
//   - Verify token signatures. The remote service is the authority; local
//     claim decoding only avoids a round trip for a token that is already
//     expired.
//   - Keep passwords or one-time codes after the call that used them returns.
//   - Perform I/O during construction other than opening the configured
//     token slot.
//   - Import any sub-package that re-imports goAuthClient.
package goAuthClient
