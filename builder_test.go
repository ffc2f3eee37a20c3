package authcore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestBuildRequiresCollaborators(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	if _, err := New().WithConfig(testEngineConfig()).WithUserStore(newFakeUserStore()).Build(); err == nil {
		t.Fatal("expected error without redis client")
	}
	if _, err := New().WithConfig(testEngineConfig()).WithRedis(rdb).Build(); err == nil {
		t.Fatal("expected error without user store")
	}

	cfg := testEngineConfig()
	cfg.TwoFactor.EncryptionKey = nil
	if _, err := New().WithConfig(cfg).WithRedis(rdb).WithUserStore(newFakeUserStore()).Build(); err == nil {
		t.Fatal("expected error without encryption key or custom cipher")
	}
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	cfg := testEngineConfig()
	cfg.Token.AccessTTL = 0
	if _, err := New().WithConfig(cfg).Build(); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestBuilderIsSingleUse(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	b := New().WithConfig(testEngineConfig()).WithRedis(rdb).WithUserStore(newFakeUserStore())
	engine, err := b.Build()
	if err != nil {
		t.Fatalf("first build: %v", err)
	}
	t.Cleanup(engine.Close)

	if _, err := b.Build(); err == nil {
		t.Fatal("expected error on second build")
	}
}

func TestAuditSinkReceivesEvents(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	sink := NewChannelSink(32)
	engine, err := New().
		WithConfig(testEngineConfig()).
		WithRedis(rdb).
		WithUserStore(newFakeUserStore()).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(engine.Close)

	if _, err := engine.Register(context.Background(), RegisterRequest{
		Email:    "alice@example.com",
		Password: testPassword,
	}, DeviceInfo{ID: "d-1"}, "203.0.113.7"); err != nil {
		t.Fatalf("register: %v", err)
	}

	select {
	case event := <-sink.Events():
		if event.EventType != "register" || !event.Success {
			t.Fatalf("unexpected event: %+v", event)
		}
		if event.IP != "203.0.113.7" || event.DeviceID != "d-1" {
			t.Fatalf("event missing request context: %+v", event)
		}
	case <-time.After(time.Second):
		t.Fatal("no audit event delivered")
	}
}

func TestAuditSinkSurvivesConfigOrder(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	// WithConfig after WithAuditSink must not drop the sink's enable.
	sink := NewChannelSink(32)
	engine, err := New().
		WithAuditSink(sink).
		WithConfig(testEngineConfig()).
		WithRedis(rdb).
		WithUserStore(newFakeUserStore()).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(engine.Close)

	if _, err := engine.Register(context.Background(), RegisterRequest{
		Email:    "alice@example.com",
		Password: testPassword,
	}, DeviceInfo{ID: "d-1"}, ""); err != nil {
		t.Fatalf("register: %v", err)
	}

	select {
	case event := <-sink.Events():
		if event.EventType != "register" {
			t.Fatalf("unexpected event: %+v", event)
		}
	case <-time.After(time.Second):
		t.Fatal("no audit event delivered")
	}
}

func TestPingReportsLatency(t *testing.T) {
	engine, _, mr := newEngineTest(t)

	if _, err := engine.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}

	mr.Close()
	if _, err := engine.Ping(context.Background()); err == nil {
		t.Fatal("expected error with cache down")
	}
}
