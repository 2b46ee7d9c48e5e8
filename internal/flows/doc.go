// Package flows contains pure-function orchestrators for every Client operation.
//
// Each flow function (RunBootstrap, RunLogin, RunRegisterSubmit, etc.) accepts a
// typed dependency struct and returns results without side-effects beyond those
// dependencies. This keeps the Client type thin and lets every branch of the
// lifecycle be tested against a fake remote service.
//
// # Architecture boundaries
//
// Flow functions coordinate calls to the request gateway, the session store,
// the audit dispatcher, and metrics. They do NOT own any of these resources;
// ownership stays with the Client. Registration flows take and return a
// RegistrationState value; the Client holds it between calls.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goAuthClient (to avoid import cycles).
//   - Perform I/O directly. All I/O is mediated through dependency interfaces.
//   - Log token, password, or OTP material.
package flows
