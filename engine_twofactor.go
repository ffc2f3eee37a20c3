package authcore

import (
	"context"
	"time"

	"github.com/MrEthical07/authcore/internal"
	"github.com/MrEthical07/authcore/token"
	"github.com/MrEthical07/authcore/totp"
)

// BeginTwoFactorSetup generates a candidate TOTP secret and a batch of
// recovery codes and binds them into a short-lived setup token. Nothing
// is persisted: a setup abandoned here leaves no residue, and the
// returned recovery codes exist only in this response and inside the
// token until the handshake completes.
func (e *Engine) BeginTwoFactorSetup(ctx context.Context, userID string) (*TwoFactorSetup, error) {
	user, err := e.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Security.TwoFactor.Enabled {
		return nil, ErrTwoFactorAlreadyEnabled
	}

	_, secret, err := e.totp.GenerateSecret()
	if err != nil {
		return nil, err
	}

	codes := make([]string, e.config.TwoFactor.RecoveryCodeCount)
	for i := range codes {
		codes[i], err = internal.NewRecoveryCode(e.config.TwoFactor.RecoveryCodeLength)
		if err != nil {
			return nil, err
		}
	}

	setup, err := e.tokens.IssueSetup(user.ID, secret, codes)
	if err != nil {
		return nil, err
	}

	return &TwoFactorSetup{
		SecretBase32:  secret,
		OTPAuthURL:    e.totp.ProvisionURI(secret, user.Email),
		RecoveryCodes: codes,
		SetupToken:    setup.Token,
	}, nil
}

// CompleteTwoFactorSetup redeems a setup token with a code from the
// newly enrolled authenticator. On success the candidate secret is
// encrypted at rest, the recovery codes are hashed onto the document,
// and every previously live session is revoked: a session hijacked
// before 2FA was on must not survive it being turned on. A setup token
// cannot be redeemed twice; once enabled, redeeming fails.
func (e *Engine) CompleteTwoFactorSetup(ctx context.Context, userID, setupToken, code string) (*UserDocument, error) {
	claims, err := e.tokens.Parse(setupToken, token.KindTwoFactorSetup)
	if err != nil {
		return nil, tokenErr(err)
	}
	if claims.Subject != userID {
		return nil, ErrTokenInvalid
	}

	user, err := e.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Security.TwoFactor.Enabled {
		return nil, ErrTokenInvalid
	}

	candidate, err := totp.DecodeSecret(claims.Secret)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	ok, err := e.totp.Verify(candidate, code, time.Now())
	if err != nil || !ok {
		e.emitAudit("2fa_enabled", userID, "", "", false, ErrInvalidTwoFactorCode)
		return nil, ErrInvalidTwoFactorCode
	}

	encrypted, err := e.secrets.Encrypt(claims.Secret)
	if err != nil {
		return nil, err
	}
	hashes := make([]string, len(claims.RecoveryCodes))
	for i, rc := range claims.RecoveryCodes {
		hashes[i], err = e.hasher.Hash(rc)
		if err != nil {
			return nil, err
		}
	}

	// Revoke before persisting: if the cache write fails the account is
	// left without 2FA but with sessions intact, never the reverse.
	if err := e.liveness.RevokeAll(ctx, user.ID); err != nil {
		return nil, cacheErr(err)
	}

	user.Security.TwoFactor = TwoFactorDetails{
		Enabled:       true,
		Secret:        encrypted,
		RecoveryCodes: hashes,
	}
	user.ClearDevices()

	saved, err := e.users.Save(ctx, user)
	if err != nil {
		return nil, err
	}

	e.emitAudit("2fa_enabled", userID, "", "", true, nil)
	e.log.Info().Str("user", userID).Msg("two-factor enabled, all sessions revoked")
	return saved, nil
}

// DisableTwoFactor clears the 2FA fields. It is gated by a fresh
// step-up grant; existing sessions stay live since removing the second
// factor does not reduce the trust they were established with.
func (e *Engine) DisableTwoFactor(ctx context.Context, userID, stepUpToken string) (*UserDocument, error) {
	if err := e.CheckStepUp(ctx, userID, stepUpToken); err != nil {
		return nil, err
	}

	user, err := e.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.Security.TwoFactor.Enabled {
		return nil, ErrTwoFactorNotEnabled
	}

	user.Security.TwoFactor = TwoFactorDetails{}
	saved, err := e.users.Save(ctx, user)
	if err != nil {
		return nil, err
	}

	e.emitAudit("2fa_disabled", userID, "", "", true, nil)
	return saved, nil
}

// validateTwoFactorCode decrypts the stored secret and checks the code
// within the configured skew window.
func (e *Engine) validateTwoFactorCode(user *UserDocument, code string) error {
	secretBase32, err := e.secrets.Decrypt(user.Security.TwoFactor.Secret)
	if err != nil {
		return ErrInvalidTwoFactorCode
	}
	secret, err := totp.DecodeSecret(secretBase32)
	if err != nil {
		return ErrInvalidTwoFactorCode
	}
	ok, err := e.totp.Verify(secret, code, time.Now())
	if err != nil || !ok {
		return ErrInvalidTwoFactorCode
	}
	return nil
}

// consumeRecoveryCode removes the first stored hash matching the code.
// Each code works once; a replay finds no remaining match.
func (e *Engine) consumeRecoveryCode(user *UserDocument, code string) error {
	codes := user.Security.TwoFactor.RecoveryCodes
	for i, hash := range codes {
		ok, err := e.hasher.Verify(code, hash)
		if err != nil {
			continue
		}
		if ok {
			user.Security.TwoFactor.RecoveryCodes = append(codes[:i:i], codes[i+1:]...)
			return nil
		}
	}
	return ErrInvalidRecoveryCode
}
