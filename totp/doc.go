// Package totp implements RFC 6238 time-based one-time passwords:
// secret generation, otpauth provisioning URIs, and constant-time code
// verification with a configurable clock-skew window.
package totp
