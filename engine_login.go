package authcore

import (
	"context"
	"strings"
	"time"

	"github.com/MrEthical07/authcore/internal"
	"github.com/MrEthical07/authcore/token"
)

// Register creates a new account and logs it straight in. The email must
// be unused; the password is hashed before anything is persisted. The
// fresh account starts without 2FA and with an unverified email.
func (e *Engine) Register(ctx context.Context, req RegisterRequest, device DeviceInfo, ip string) (*LoginResult, error) {
	email := normalizeEmail(req.Email)

	exists, err := e.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		e.emitAudit("register", "", device.ID, ip, false, ErrEmailExists)
		return nil, ErrEmailExists
	}

	hash, err := e.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	verificationSecret, err := internal.NewMailSecret()
	if err != nil {
		return nil, err
	}
	resetSecret, err := internal.NewMailSecret()
	if err != nil {
		return nil, err
	}

	user := &UserDocument{
		Email:        email,
		Name:         req.Name,
		PasswordHash: hash,
		Roles:        []string{"USER"},
		LastActive:   time.Now(),
		Security: SecurityDetails{
			Mail: MailDetails{
				VerificationSecret:  verificationSecret,
				PasswordResetSecret: resetSecret,
			},
		},
	}

	saved, err := e.users.Save(ctx, user)
	if err != nil {
		return nil, err
	}

	result, err := e.establishSession(ctx, saved, device, ip)
	e.emitAudit("register", saved.ID, device.ID, ip, err == nil, err)
	if err != nil {
		return nil, err
	}
	e.log.Debug().Str("user", saved.ID).Msg("account registered")
	return result, nil
}

// Login verifies the credentials and either establishes a session or,
// when the account has 2FA enabled, returns a short-lived pending token
// to be exchanged via [Engine.CompleteTwoFactorLogin]. Unknown email and
// wrong password are indistinguishable to the caller.
func (e *Engine) Login(ctx context.Context, email, password string, device DeviceInfo, ip string) (*LoginResult, error) {
	user, err := e.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		e.emitAudit("login", "", device.ID, ip, false, ErrInvalidCredentials)
		return nil, ErrInvalidCredentials
	}

	ok, err := e.hasher.Verify(password, user.PasswordHash)
	if err != nil || !ok {
		e.emitAudit("login", user.ID, device.ID, ip, false, ErrInvalidCredentials)
		return nil, ErrInvalidCredentials
	}

	if user.Security.TwoFactor.Enabled {
		pending, err := e.tokens.IssuePending(user.ID, device.ID)
		if err != nil {
			return nil, err
		}
		e.emitAudit("login_pending", user.ID, device.ID, ip, true, nil)
		return &LoginResult{TwoFactorRequired: true, PendingToken: pending.Token}, nil
	}

	result, err := e.establishSession(ctx, user, device, ip)
	e.emitAudit("login", user.ID, device.ID, ip, err == nil, err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CompleteTwoFactorLogin exchanges a pending token plus a valid TOTP
// code for a full session. The device presenting the code must be the
// one that earned the pending token.
func (e *Engine) CompleteTwoFactorLogin(ctx context.Context, pendingToken, code string, device DeviceInfo, ip string) (*LoginResult, error) {
	claims, err := e.tokens.Parse(pendingToken, token.KindTwoFactorPending)
	if err != nil {
		return nil, tokenErr(err)
	}
	if claims.DeviceID != device.ID {
		return nil, ErrDeviceMismatch
	}

	user, err := e.users.FindByID(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if !user.Security.TwoFactor.Enabled {
		return nil, ErrTwoFactorNotEnabled
	}

	if err := e.validateTwoFactorCode(user, code); err != nil {
		e.emitAudit("login_2fa", user.ID, device.ID, ip, false, err)
		return nil, err
	}

	result, err := e.establishSession(ctx, user, device, ip)
	e.emitAudit("login_2fa", user.ID, device.ID, ip, err == nil, err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RecoverLogin exchanges a pending token plus an unused recovery code
// for a session. The matched code is consumed, every other session is
// revoked, and the device list is cleared before the new session is
// established. Two-factor stays enabled with the remaining codes; only
// the step-up-gated [Engine.DisableTwoFactor] can turn it off.
func (e *Engine) RecoverLogin(ctx context.Context, pendingToken, recoveryCode string, device DeviceInfo, ip string) (*LoginResult, error) {
	claims, err := e.tokens.Parse(pendingToken, token.KindTwoFactorPending)
	if err != nil {
		return nil, tokenErr(err)
	}
	if claims.DeviceID != device.ID {
		return nil, ErrDeviceMismatch
	}

	user, err := e.users.FindByID(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if !user.Security.TwoFactor.Enabled {
		return nil, ErrTwoFactorNotEnabled
	}

	if err := e.consumeRecoveryCode(user, recoveryCode); err != nil {
		e.emitAudit("login_recovery", user.ID, device.ID, ip, false, err)
		return nil, err
	}

	// A consumed code is a full security reset for the session state:
	// everything authenticated before it dies with it.
	user.ClearDevices()
	if err := e.liveness.RevokeAll(ctx, user.ID); err != nil {
		return nil, cacheErr(err)
	}

	result, err := e.establishSession(ctx, user, device, ip)
	e.emitAudit("login_recovery", user.ID, device.ID, ip, err == nil, err)
	if err != nil {
		return nil, err
	}
	e.log.Info().Str("user", user.ID).Msg("recovery login, all prior sessions revoked")
	return result, nil
}

// establishSession mints an access/refresh pair, records both ids in the
// revocation cache, and persists the device on the user document. If the
// cache cannot record the tokens the session is aborted: a token the
// cache never saw could never be revoked.
func (e *Engine) establishSession(ctx context.Context, user *UserDocument, device DeviceInfo, ip string) (*LoginResult, error) {
	access, err := e.tokens.IssueAccess(user.ID, device.ID)
	if err != nil {
		return nil, err
	}
	refresh, err := e.tokens.IssueRefresh(user.ID, device.ID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := e.liveness.Record(ctx, user.ID, access.TokenID, access.ExpiresAt.Sub(now)); err != nil {
		return nil, ErrSessionCreationFailed
	}
	if err := e.liveness.Record(ctx, user.ID, refresh.TokenID, refresh.ExpiresAt.Sub(now)); err != nil {
		// Best effort: don't leave the half-recorded access entry behind.
		_ = e.liveness.Revoke(ctx, user.ID, access.TokenID)
		return nil, ErrSessionCreationFailed
	}

	location := e.resolveLocation(ctx, ip)
	user.UpsertDevice(device, ip, location, now)
	user.LastActive = now

	saved, err := e.users.Save(ctx, user)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken:  access.Token,
		RefreshToken: refresh.Token,
		User:         saved,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
