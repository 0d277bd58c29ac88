// Package authcore is the token-based session security core of the
// veilmail service: issuance, verification, revocation, and single-use
// rotation of bearer credential pairs, plus the tiered request throttle
// guarding the same entry points.
//
// The [Engine] is the request-time orchestrator. It extracts the bearer
// credential, verifies it, consults the revocation store, confirms the
// principal still exists, and binds a request-scoped [Identity], or
// returns a [Rejection] at the first failing stage. Mutable shared state
// (the revocation list and the throttle counters) lives behind narrow
// store interfaces with in-memory, Redis, and Postgres implementations, so
// a single process can start in-memory and a multi-instance deployment can
// externalize the state without touching callers.
package authcore
