// Package authcore is an embeddable authentication and session-security
// core: credential verification, kind-tagged JWT issuance, Redis-backed
// token revocation, per-user device tracking, TOTP two-factor
// authentication with recovery codes, and step-up grants for sensitive
// operations.
//
// The package is a library, not a service. Persistence is delegated to
// the caller through the [UserStore] interface; transport, cookies, and
// mail delivery stay outside. Engine methods are safe to call from
// multiple goroutines after initialization through [Builder.Build].
//
// # Security model
//
// Tokens are stateless JWTs, but every access and refresh token id is
// also recorded in a Redis revocation cache for its lifetime. A token
// whose entry is gone — revoked or naturally expired — is rejected even
// with a valid signature, and a cache outage rejects rather than
// accepts (liveness fails closed). Refresh tokens are single-use: the
// entry is consumed atomically on exchange, so a replay loses the race
// every time.
package authcore
