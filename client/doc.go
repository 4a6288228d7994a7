// Package client publishes and resolves peer records against a relay.
//
// Resolve never trusts the relay: every record is parsed, bound to the
// requested identity and signature-checked before it is returned.
package client
