package authcore

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/authcore/totp"
)

// fakeUserStore is an in-memory UserStore. It hands out deep copies the
// way a real database driver would, so aliasing bugs in the engine
// surface as test failures instead of silently passing.
type fakeUserStore struct {
	mu     sync.Mutex
	nextID int
	users  map[string]*UserDocument
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*UserDocument)}
}

func (s *fakeUserStore) FindByID(_ context.Context, id string) (*UserDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return copyUser(user), nil
}

func (s *fakeUserStore) FindByEmail(_ context.Context, email string) (*UserDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Email == email {
			return copyUser(user), nil
		}
	}
	return nil, ErrAccountNotFound
}

func (s *fakeUserStore) ExistsByEmail(_ context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeUserStore) Save(_ context.Context, user *UserDocument) (*UserDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID == "" {
		s.nextID++
		user.ID = "u-" + strconv.Itoa(s.nextID)
	}
	s.users[user.ID] = copyUser(user)
	return copyUser(user), nil
}

func (s *fakeUserStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return ErrAccountNotFound
	}
	delete(s.users, id)
	return nil
}

func copyUser(u *UserDocument) *UserDocument {
	out := *u
	out.Roles = append([]string(nil), u.Roles...)
	out.Security.TwoFactor.RecoveryCodes = append([]string(nil), u.Security.TwoFactor.RecoveryCodes...)
	out.Devices = make([]DeviceRecord, len(u.Devices))
	for i, d := range u.Devices {
		out.Devices[i] = d
		if d.Location != nil {
			loc := *d.Location
			out.Devices[i].Location = &loc
		}
	}
	return &out
}

func testEngineConfig() Config {
	cfg := defaultConfig()
	cfg.Token.SigningMethod = "hs256"
	cfg.Token.PrivateKey = []byte("0123456789abcdef0123456789abcdef")
	cfg.TwoFactor.EncryptionKey = []byte("fedcba9876543210fedcba9876543210")
	// Floor-level argon2 costs keep the suite fast.
	cfg.Password = PasswordConfig{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   16,
	}
	return cfg
}

func newEngineTest(t *testing.T) (*Engine, *fakeUserStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	store := newFakeUserStore()
	engine, err := New().
		WithConfig(testEngineConfig()).
		WithRedis(rdb).
		WithUserStore(store).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)

	return engine, store, mr
}

func registerUser(t *testing.T, engine *Engine, email string, device DeviceInfo) *LoginResult {
	t.Helper()
	result, err := engine.Register(context.Background(), RegisterRequest{
		Email:    email,
		Password: "correct horse battery staple",
		Name:     "Test User",
	}, device, "203.0.113.7")
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return result
}

// enableTwoFactor walks the full setup handshake and returns the shared
// secret plus the plaintext recovery codes.
func enableTwoFactor(t *testing.T, engine *Engine, userID string) ([]byte, []string) {
	t.Helper()
	ctx := context.Background()

	setup, err := engine.BeginTwoFactorSetup(ctx, userID)
	if err != nil {
		t.Fatalf("begin 2fa setup: %v", err)
	}
	secret, err := totp.DecodeSecret(setup.SecretBase32)
	if err != nil {
		t.Fatalf("decode secret: %v", err)
	}

	if _, err := engine.CompleteTwoFactorSetup(ctx, userID, setup.SetupToken, codeFor(t, secret)); err != nil {
		t.Fatalf("complete 2fa setup: %v", err)
	}
	return secret, setup.RecoveryCodes
}

// codeFor computes the current TOTP code with the same parameters the
// test engine is configured with.
func codeFor(t *testing.T, secret []byte) string {
	t.Helper()
	g := totp.NewGenerator(totp.Config{Digits: 6, Period: 30})
	code, err := g.CodeAt(secret, time.Now())
	if err != nil {
		t.Fatalf("compute code: %v", err)
	}
	return code
}
