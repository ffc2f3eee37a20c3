// Package password provides argon2id hashing and constant-time
// verification of credentials and recovery codes, encoded as PHC
// strings so parameters can change without invalidating stored hashes.
package password
