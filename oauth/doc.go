// Package oauth holds the loopback listener a command-line client uses to
// receive the provider redirect of an OAuth sign-in.
//
// The listener serves the callback path exactly once. Correlation of code and
// state, replay protection and the token exchange stay in the client.
package oauth
