// Package crypt encrypts short secrets at rest with AES-GCM. Its one
// consumer is the TOTP secret stored on the user document.
package crypt
