// Package jwt seals persisted session payloads as signed compact tokens so a
// restore can reject payloads that were edited at rest.
//
// A [Manager] signs with HS256 or Ed25519 and verifies with strict algorithm,
// issuer, audience and kid checks. It does not encrypt: the payload stays
// readable to anyone with access to the backend.
package jwt
