package authcore

import (
	"context"
	"errors"
	"testing"
)

func TestStepUpWithTwoFactor(t *testing.T) {
	engine, _, _ := newEngineTest(t)
	ctx := context.Background()

	reg := registerUser(t, engine, "alice@example.com", DeviceInfo{ID: "d-1"})
	secret, _ := enableTwoFactor(t, engine, reg.User.ID)

	// Missing and wrong codes are both rejected.
	if _, err := engine.GrantStepUp(ctx, reg.User.ID, ""); !errors.Is(err, ErrTwoFactorRequired) {
		t.Fatalf("expected ErrTwoFactorRequired, got %v", err)
	}
	if _, err := engine.GrantStepUp(ctx, reg.User.ID, "000000"); !errors.Is(err, ErrInvalidTwoFactorCode) {
		t.Fatalf("expected ErrInvalidTwoFactorCode, got %v", err)
	}

	grant, err := engine.GrantStepUp(ctx, reg.User.ID, codeFor(t, secret))
	if err != nil {
		t.Fatalf("grant step up: %v", err)
	}
	if err := engine.CheckStepUp(ctx, reg.User.ID, grant); err != nil {
		t.Fatalf("check step up: %v", err)
	}
}

func TestStepUpWithoutTwoFactorIsVacuous(t *testing.T) {
	engine, _, _ := newEngineTest(t)
	ctx := context.Background()

	reg := registerUser(t, engine, "alice@example.com", DeviceInfo{ID: "d-1"})

	// No second factor to prove: the grant is minted without a code and
	// the check passes even without a grant.
	grant, err := engine.GrantStepUp(ctx, reg.User.ID, "")
	if err != nil {
		t.Fatalf("grant step up: %v", err)
	}
	if grant == "" {
		t.Fatal("expected a grant token")
	}
	if err := engine.CheckStepUp(ctx, reg.User.ID, ""); err != nil {
		t.Fatalf("check step up without grant: %v", err)
	}
}

func TestStepUpGrantBoundToUser(t *testing.T) {
	engine, _, _ := newEngineTest(t)
	ctx := context.Background()

	alice := registerUser(t, engine, "alice@example.com", DeviceInfo{ID: "d-1"})
	bob := registerUser(t, engine, "bob@example.com", DeviceInfo{ID: "d-2"})
	aliceSecret, _ := enableTwoFactor(t, engine, alice.User.ID)
	enableTwoFactor(t, engine, bob.User.ID)

	grant, err := engine.GrantStepUp(ctx, alice.User.ID, codeFor(t, aliceSecret))
	if err != nil {
		t.Fatalf("grant step up: %v", err)
	}
	if err := engine.CheckStepUp(ctx, bob.User.ID, grant); !errors.Is(err, ErrStepUpRequired) {
		t.Fatalf("expected ErrStepUpRequired for foreign grant, got %v", err)
	}
}

func TestCheckStepUpRejectsOtherKinds(t *testing.T) {
	engine, _, _ := newEngineTest(t)
	ctx := context.Background()

	reg := registerUser(t, engine, "alice@example.com", DeviceInfo{ID: "d-1"})
	enableTwoFactor(t, engine, reg.User.ID)

	// An access token is not an elevated-trust grant.
	if err := engine.CheckStepUp(ctx, reg.User.ID, reg.AccessToken); !errors.Is(err, ErrStepUpRequired) {
		t.Fatalf("expected ErrStepUpRequired, got %v", err)
	}
}
