// Package revoke tracks token ids that were explicitly invalidated before
// their natural expiry: logouts, rotated refresh tokens, and detected reuse.
// In-memory, Redis, and Postgres stores share the same interface so a
// single-process deployment can later externalize the state without
// touching callers.
package revoke
