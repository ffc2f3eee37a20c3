package authcore

import (
	"context"

	"github.com/MrEthical07/authcore/token"
)

// GrantStepUp exchanges a fresh 2FA code for a short-lived elevated
// trust grant. When the account has no second factor the grant is minted
// without a code: step-up can never demand more than the account has.
// The grant is stateless; its blast radius is bounded by its TTL.
func (e *Engine) GrantStepUp(ctx context.Context, userID, code string) (string, error) {
	user, err := e.users.FindByID(ctx, userID)
	if err != nil {
		return "", err
	}

	if user.Security.TwoFactor.Enabled {
		if code == "" {
			return "", ErrTwoFactorRequired
		}
		if err := e.validateTwoFactorCode(user, code); err != nil {
			e.emitAudit("step_up", userID, "", "", false, err)
			return "", err
		}
	}

	grant, err := e.tokens.IssueStepUp(user.ID)
	if err != nil {
		return "", err
	}

	e.emitAudit("step_up", userID, "", "", true, nil)
	return grant.Token, nil
}

// CheckStepUp verifies an elevated-trust grant for the given user.
// Accounts without 2FA satisfy the check vacuously, matching how
// GrantStepUp mints their grants without a code.
func (e *Engine) CheckStepUp(ctx context.Context, userID, stepUpToken string) error {
	user, err := e.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.Security.TwoFactor.Enabled {
		return nil
	}

	if stepUpToken == "" {
		return ErrStepUpRequired
	}
	claims, err := e.tokens.Parse(stepUpToken, token.KindStepUp)
	if err != nil {
		return ErrStepUpRequired
	}
	if claims.Subject != userID {
		return ErrStepUpRequired
	}
	return nil
}
