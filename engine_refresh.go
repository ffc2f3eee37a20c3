package authcore

import (
	"context"
	"time"

	"github.com/MrEthical07/authcore/token"
)

// Refresh exchanges a refresh token for a fresh access/refresh pair.
// Each refresh token works exactly once: its cache entry is consumed
// atomically before the new pair is minted, so a replayed token fails
// with [ErrTokenInvalid] no matter how the first exchange raced it.
func (e *Engine) Refresh(ctx context.Context, refreshToken string, device DeviceInfo, ip string) (*TokenPair, error) {
	claims, err := e.tokens.Parse(refreshToken, token.KindRefresh)
	if err != nil {
		return nil, tokenErr(err)
	}
	if claims.DeviceID != device.ID {
		return nil, ErrDeviceMismatch
	}

	consumed, err := e.liveness.Consume(ctx, claims.Subject, claims.ID)
	if err != nil {
		return nil, cacheErr(err)
	}
	if !consumed {
		e.emitAudit("refresh", claims.Subject, device.ID, ip, false, ErrTokenInvalid)
		return nil, ErrTokenInvalid
	}

	user, err := e.users.FindByID(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}

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
		_ = e.liveness.Revoke(ctx, user.ID, access.TokenID)
		return nil, ErrSessionCreationFailed
	}

	location := e.resolveLocation(ctx, ip)
	user.UpsertDevice(device, ip, location, now)
	user.LastActive = now
	if _, err := e.users.Save(ctx, user); err != nil {
		return nil, err
	}

	e.emitAudit("refresh", user.ID, device.ID, ip, true, nil)
	return &TokenPair{AccessToken: access.Token, RefreshToken: refresh.Token}, nil
}
