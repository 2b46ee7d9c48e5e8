// Package session holds the client's current authenticated session and the
// durable token slot that outlives it.
//
// # Store and slots
//
// [Store] is the single process-wide holder of the current [Session]. The
// bearer token is mirrored into a [TokenSlot]; identity is never persisted and
// must be re-derived from the token on every start. Slot implementations:
//
//   - [MemorySlot]: process-local, for tests and ephemeral clients.
//   - [FileSlot]: JSON file under the user's config directory (0600).
//   - [SealedFileSlot]: the same file with the token sealed to an age X25519 key.
//   - [RedisSlot]: a single Redis key, for clients sharing a session.
//
// # Write path
//
// Writers are serialized. [Store.Set] writes the slot before publishing the
// in-memory session; [Store.Clear] erases the slot and drops the in-memory
// session under the same lock. Observers registered with [Store.Subscribe]
// run synchronously, in registration order, before the writer returns.
//
// # What this package must NOT do
//
//   - Import goAuthClient or gateway (no upward imports).
//   - Decide whether a token is valid. Validation belongs to the bootstrapper.
//   - Log or print token material.
package session
