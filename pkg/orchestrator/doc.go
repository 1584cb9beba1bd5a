// Package orchestrator wires the pieces a meta box host needs (store, nonce
// signer, authorizer, templates, box definitions) into a ready Host, filling
// in built-in defaults for anything the caller leaves out.
package orchestrator
