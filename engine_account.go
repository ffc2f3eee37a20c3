package authcore

import (
	"context"

	"github.com/MrEthical07/authcore/internal"
)

// ChangePassword replaces the password hash after re-verifying the
// current password and, when 2FA is enabled, a valid TOTP code.
// Existing sessions stay live; only future logins need the new password.
func (e *Engine) ChangePassword(ctx context.Context, userID, currentPassword, newPassword, twoFactorCode string) error {
	user, err := e.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := e.reverify(user, currentPassword, twoFactorCode); err != nil {
		e.emitAudit("password_changed", userID, "", "", false, err)
		return err
	}

	hash, err := e.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if _, err := e.users.Save(ctx, user); err != nil {
		return err
	}

	e.emitAudit("password_changed", userID, "", "", true, nil)
	return nil
}

// ChangeEmail moves the account to a new address after re-verifying the
// password and, when 2FA is enabled, a valid TOTP code. The new address
// must be unused; the verified flag resets and both mail secrets rotate,
// so links minted for the old address stop working.
func (e *Engine) ChangeEmail(ctx context.Context, userID, newEmail, password, twoFactorCode string) (*UserDocument, error) {
	email := normalizeEmail(newEmail)

	user, err := e.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := e.reverify(user, password, twoFactorCode); err != nil {
		e.emitAudit("email_changed", userID, "", "", false, err)
		return nil, err
	}

	exists, err := e.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailExists
	}

	verificationSecret, err := internal.NewMailSecret()
	if err != nil {
		return nil, err
	}
	resetSecret, err := internal.NewMailSecret()
	if err != nil {
		return nil, err
	}

	user.Email = email
	user.Security.Mail = MailDetails{
		Verified:            false,
		VerificationSecret:  verificationSecret,
		PasswordResetSecret: resetSecret,
	}

	saved, err := e.users.Save(ctx, user)
	if err != nil {
		return nil, err
	}

	e.emitAudit("email_changed", userID, "", "", true, nil)
	return saved, nil
}

// ChangeName updates the display name. No re-verification: the name is
// not a security attribute.
func (e *Engine) ChangeName(ctx context.Context, userID, name string) (*UserDocument, error) {
	user, err := e.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Name = name
	return e.users.Save(ctx, user)
}

// Devices lists the user's known devices.
func (e *Engine) Devices(ctx context.Context, userID string) ([]DeviceRecord, error) {
	user, err := e.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Devices, nil
}

// User fetches the account document.
func (e *Engine) User(ctx context.Context, userID string) (*UserDocument, error) {
	return e.users.FindByID(ctx, userID)
}

// reverify re-checks the password, and the second factor when enabled.
// Sensitive account mutations call this regardless of how recently the
// caller authenticated.
func (e *Engine) reverify(user *UserDocument, password, twoFactorCode string) error {
	ok, err := e.hasher.Verify(password, user.PasswordHash)
	if err != nil || !ok {
		return ErrInvalidCredentials
	}
	if user.Security.TwoFactor.Enabled {
		if twoFactorCode == "" {
			return ErrTwoFactorRequired
		}
		return e.validateTwoFactorCode(user, twoFactorCode)
	}
	return nil
}
