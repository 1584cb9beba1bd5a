// Package security implements the gate every meta box save goes through: a
// role-based capability check and a signed, action-bound nonce. The current
// user travels in the request context.
package security
