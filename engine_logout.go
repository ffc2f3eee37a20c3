package authcore

import "context"

// Logout ends the session behind the given principal: its token entry is
// revoked and the device is dropped from the user document. Other
// sessions of the same user are untouched.
//
// The principal's refresh token stays live until it expires or is
// replayed; callers that hold it should discard it.
func (e *Engine) Logout(ctx context.Context, principal *Principal) error {
	if err := e.liveness.Revoke(ctx, principal.UserID, principal.TokenID); err != nil {
		return cacheErr(err)
	}

	user, err := e.users.FindByID(ctx, principal.UserID)
	if err != nil {
		return err
	}
	user.RemoveDevice(principal.DeviceID)
	if _, err := e.users.Save(ctx, user); err != nil {
		return err
	}

	e.emitAudit("logout", principal.UserID, principal.DeviceID, "", true, nil)
	return nil
}

// LogoutAll revokes every live token of the user and clears the device
// list. Every session, on every device, dies at once.
func (e *Engine) LogoutAll(ctx context.Context, userID string) error {
	if err := e.liveness.RevokeAll(ctx, userID); err != nil {
		return cacheErr(err)
	}

	user, err := e.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	user.ClearDevices()
	if _, err := e.users.Save(ctx, user); err != nil {
		return err
	}

	e.emitAudit("logout_all", userID, "", "", true, nil)
	e.log.Debug().Str("user", userID).Msg("all sessions revoked")
	return nil
}

// DeleteAccount removes the user after revoking every live token, so no
// outstanding token survives its account.
func (e *Engine) DeleteAccount(ctx context.Context, userID string) error {
	if err := e.liveness.RevokeAll(ctx, userID); err != nil {
		return cacheErr(err)
	}
	if err := e.users.Delete(ctx, userID); err != nil {
		return err
	}

	e.emitAudit("account_deleted", userID, "", "", true, nil)
	return nil
}
