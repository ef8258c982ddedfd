// Package session provides the persisted session model, its versioned JSON
// envelope, and the durable key-value backends that hold it between process
// restarts.
//
// # Storage layout
//
// A session lives under one well-known key (default "user"). The value is a
// JSON envelope {"v":1,"sid":...,"created_at":...,"user":{...}}. Payloads
// written before the envelope existed are a bare identity object; they are
// read as schema version 0 and rewritten on the next [Adapter.Load].
//
// # Architecture boundaries
//
// This package owns the [Session] model, the codec, the [Backend] port and its
// implementations, and the [Adapter] that ties them together. It does NOT
// authenticate credentials or hold the live in-memory session; those belong to
// the root package's SessionStore.
//
// # What this package must NOT do
//
//   - Import the root vertixauth package (no upward imports).
//   - Return a malformed payload to the caller: Load fails open to "no session".
//   - Persist credentials of any kind.
package session
