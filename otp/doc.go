// Package otp is the four-cell one-time-code entry used by registration.
//
// [Input] holds the editing rules and is independent of any terminal. [Model]
// wraps it as a bubbletea component: Enter emits a [SubmitMsg], and further
// submits are ignored until the owner reports the result with a [ResultMsg]
// or calls [Model.SetPending].
package otp
