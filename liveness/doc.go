// Package liveness is the Redis-backed revocation cache: one
// self-evicting entry per live token id, an atomic consume for refresh
// rotation, and a per-user index for revoke-all.
package liveness
