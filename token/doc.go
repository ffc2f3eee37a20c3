// Package token mints and validates the signed, kind-tagged JWTs the
// engine hands out: access, refresh, two-factor-pending, step-up, and
// two-factor-setup. The manager is stateless; revocation and single-use
// semantics live in the liveness cache.
package token
