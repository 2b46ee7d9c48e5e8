// Package jwt reads access-token claims on the client side and mints
// service-shaped tokens for the mock remote service.
//
// [Inspect] never verifies signatures. The client uses it only to pre-check
// expiry before spending a network round trip; the remote introspection
// endpoint remains the authority. [Manager] signs and verifies tokens and is
// used by internal/mockservice.
package jwt
