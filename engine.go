package authcore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	internalaudit "github.com/MrEthical07/authcore/internal/audit"
	"github.com/MrEthical07/authcore/liveness"
	"github.com/MrEthical07/authcore/token"
	"github.com/MrEthical07/authcore/totp"
)

// Engine is the authentication core. It owns token minting and
// validation, the revocation cache, two-factor state, and the device
// list, and delegates persistence to the caller's [UserStore].
//
// All methods are safe for concurrent use.
type Engine struct {
	config    Config
	users     UserStore
	tokens    *token.Manager
	liveness  *liveness.Store
	totp      *totp.Generator
	hasher    Hasher
	secrets   SecretCipher
	locations LocationResolver
	audit     *internalaudit.Dispatcher
	log       zerolog.Logger
}

// Close drains and stops the audit dispatcher. The engine must not be
// used after Close returns.
func (e *Engine) Close() {
	e.audit.Close()
}

// AuditDropped reports how many audit events were discarded because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	return e.audit.Dropped()
}

// Ping verifies the revocation cache is reachable and reports latency.
func (e *Engine) Ping(ctx context.Context) (time.Duration, error) {
	latency, err := e.liveness.Ping(ctx)
	if err != nil {
		return latency, cacheErr(err)
	}
	return latency, nil
}

// Authenticate validates an access token and resolves the acting
// [Principal]: signature, expiry, kind, device binding, then liveness.
// A structurally valid token whose id is absent from the revocation
// cache is rejected; so is any token the cache cannot vouch for because
// the backend is down. Liveness fails closed.
func (e *Engine) Authenticate(ctx context.Context, accessToken, deviceID string) (*Principal, error) {
	claims, err := e.tokens.Parse(accessToken, token.KindAccess)
	if err != nil {
		return nil, tokenErr(err)
	}
	if claims.DeviceID != deviceID {
		return nil, ErrDeviceMismatch
	}

	live, err := e.liveness.IsLive(ctx, claims.Subject, claims.ID)
	if err != nil {
		e.log.Warn().Err(err).Msg("liveness check failed, rejecting token")
		return nil, ErrTokenRevoked
	}
	if !live {
		return nil, ErrTokenRevoked
	}

	return &Principal{
		UserID:   claims.Subject,
		DeviceID: claims.DeviceID,
		TokenID:  claims.ID,
	}, nil
}

// SessionCount reports how many live token entries the revocation cache
// holds for a user. Access and refresh tokens each count as one.
func (e *Engine) SessionCount(ctx context.Context, userID string) (int, error) {
	n, err := e.liveness.LiveCount(ctx, userID)
	if err != nil {
		return 0, cacheErr(err)
	}
	return n, nil
}

// tokenErr maps token codec errors onto the engine's sentinel taxonomy.
func tokenErr(err error) error {
	switch {
	case errors.Is(err, token.ErrExpired):
		return ErrTokenExpired
	case errors.Is(err, token.ErrKindMismatch):
		return ErrTokenKindMismatch
	default:
		return ErrTokenInvalid
	}
}

func cacheErr(err error) error {
	return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
}

func (e *Engine) emitAudit(eventType, userID, deviceID, ip string, success bool, opErr error) {
	event := internalaudit.Event{
		Timestamp: time.Now(),
		EventType: eventType,
		UserID:    userID,
		DeviceID:  deviceID,
		IP:        ip,
		Success:   success,
	}
	if opErr != nil {
		event.Error = opErr.Error()
	}
	e.audit.Emit(context.Background(), event)
}

// resolveLocation asks the optional resolver for a coarse location.
// Failures are logged and swallowed; a session never fails over geo data.
func (e *Engine) resolveLocation(ctx context.Context, ip string) *LocationSnapshot {
	if e.locations == nil || ip == "" {
		return nil
	}
	loc, err := e.locations.Resolve(ctx, ip)
	if err != nil {
		e.log.Debug().Err(err).Str("ip", ip).Msg("location resolution failed")
		return nil
	}
	return loc
}
