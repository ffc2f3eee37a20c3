package authcore

import "errors"

var (
	// ErrInvalidCredentials is returned on unknown email or wrong password.
	// The two cases are never distinguished, to prevent account enumeration.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountNotFound is returned when a user id resolves to nothing.
	ErrAccountNotFound = errors.New("account not found")
	// ErrEmailExists is returned when registering or changing to an email
	// that is already taken.
	ErrEmailExists = errors.New("email already exists")
	// ErrTokenInvalid is returned on signature or format failure, and on
	// replay of a retired refresh token.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired is returned when a token is past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenKindMismatch is returned when a token is presented outside
	// the context it was minted for.
	ErrTokenKindMismatch = errors.New("token kind mismatch")
	// ErrTokenRevoked is returned when a structurally valid access token
	// has no live revocation entry. Cache unavailability maps here too:
	// liveness checks fail closed.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrDeviceMismatch is returned when a token's device id does not
	// match the device presenting it.
	ErrDeviceMismatch = errors.New("device mismatch")
	// ErrTwoFactorRequired is returned when an operation needs a 2FA code
	// that was not supplied.
	ErrTwoFactorRequired = errors.New("two-factor authentication required")
	// ErrTwoFactorNotEnabled is returned when a 2FA-only operation is
	// invoked for an account without 2FA.
	ErrTwoFactorNotEnabled = errors.New("two-factor authentication not enabled")
	// ErrTwoFactorAlreadyEnabled is returned when setup is started for an
	// account that already has 2FA. It must be disabled first.
	ErrTwoFactorAlreadyEnabled = errors.New("two-factor authentication already enabled")
	// ErrInvalidTwoFactorCode is returned on a wrong TOTP code.
	ErrInvalidTwoFactorCode = errors.New("invalid two-factor code")
	// ErrInvalidRecoveryCode is returned when no stored recovery code
	// hash matches, including replay of an already consumed code.
	ErrInvalidRecoveryCode = errors.New("invalid recovery code")
	// ErrStepUpRequired is returned when a sensitive operation is invoked
	// without a valid step-up grant.
	ErrStepUpRequired = errors.New("step-up authentication required")
	// ErrSessionCreationFailed is returned when the revocation cache
	// cannot record a freshly minted token. The login is aborted rather
	// than issuing a token the cache could never revoke.
	ErrSessionCreationFailed = errors.New("session creation failed")
	// ErrCacheUnavailable wraps revocation-cache backend failures on
	// non-validation paths.
	ErrCacheUnavailable = errors.New("revocation cache unavailable")
	// ErrEngineNotReady is returned when the engine is missing a
	// required collaborator.
	ErrEngineNotReady = errors.New("engine not initialized")
)
