package authcore

import (
	"context"
	"errors"
	"testing"
)

func TestRefreshRotatesPair(t *testing.T) {
	engine, _, _ := newEngineTest(t)
	ctx := context.Background()
	device := DeviceInfo{ID: "d-1"}

	reg := registerUser(t, engine, "alice@example.com", device)

	pair, err := engine.Refresh(ctx, reg.RefreshToken, device, "")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected a full rotated pair")
	}
	if pair.RefreshToken == reg.RefreshToken {
		t.Fatal("rotation must mint a new refresh token")
	}

	if _, err := engine.Authenticate(ctx, pair.AccessToken, "d-1"); err != nil {
		t.Fatalf("authenticate with rotated access token: %v", err)
	}
}

func TestRefreshTokenIsSingleUse(t *testing.T) {
	engine, _, _ := newEngineTest(t)
	ctx := context.Background()
	device := DeviceInfo{ID: "d-1"}

	reg := registerUser(t, engine, "alice@example.com", device)

	if _, err := engine.Refresh(ctx, reg.RefreshToken, device, ""); err != nil {
		t.Fatalf("first refresh: %v", err)
	}
	if _, err := engine.Refresh(ctx, reg.RefreshToken, device, ""); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid on replay, got %v", err)
	}
}

func TestRefreshRejectsForeignDevice(t *testing.T) {
	engine, _, _ := newEngineTest(t)

	reg := registerUser(t, engine, "alice@example.com", DeviceInfo{ID: "d-1"})
	_, err := engine.Refresh(context.Background(), reg.RefreshToken, DeviceInfo{ID: "d-stolen"}, "")
	if !errors.Is(err, ErrDeviceMismatch) {
		t.Fatalf("expected ErrDeviceMismatch, got %v", err)
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	engine, _, _ := newEngineTest(t)

	reg := registerUser(t, engine, "alice@example.com", DeviceInfo{ID: "d-1"})
	_, err := engine.Refresh(context.Background(), reg.AccessToken, DeviceInfo{ID: "d-1"}, "")
	if !errors.Is(err, ErrTokenKindMismatch) {
		t.Fatalf("expected ErrTokenKindMismatch, got %v", err)
	}
}

func TestRefreshAfterLogoutAllFails(t *testing.T) {
	engine, _, _ := newEngineTest(t)
	ctx := context.Background()
	device := DeviceInfo{ID: "d-1"}

	reg := registerUser(t, engine, "alice@example.com", device)
	if err := engine.LogoutAll(ctx, reg.User.ID); err != nil {
		t.Fatalf("logout all: %v", err)
	}

	if _, err := engine.Refresh(ctx, reg.RefreshToken, device, ""); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid after logout all, got %v", err)
	}
}
