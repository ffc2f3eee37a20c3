package authcore

import (
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	internalaudit "github.com/MrEthical07/authcore/internal/audit"
	"github.com/MrEthical07/authcore/crypt"
	"github.com/MrEthical07/authcore/liveness"
	"github.com/MrEthical07/authcore/password"
	"github.com/MrEthical07/authcore/token"
	"github.com/MrEthical07/authcore/totp"
)

// Builder wires the engine's collaborators. Redis and a [UserStore] are
// required; hasher, cipher, logger, location resolver, and audit sink
// are optional with sensible defaults.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	users     UserStore
	hasher    Hasher
	cipher    SecretCipher
	locations LocationResolver
	auditSink AuditSink
	logger    *zerolog.Logger

	built bool
}

// New returns a Builder seeded with the default configuration.
func New() *Builder {
	return &Builder{config: defaultConfig()}
}

// WithConfig replaces the entire configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the client backing the revocation cache.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithUserStore sets the persistence collaborator.
func (b *Builder) WithUserStore(store UserStore) *Builder {
	b.users = store
	return b
}

// WithHasher overrides the default argon2id hasher.
func (b *Builder) WithHasher(h Hasher) *Builder {
	b.hasher = h
	return b
}

// WithSecretCipher overrides the default AES-GCM cipher.
func (b *Builder) WithSecretCipher(c SecretCipher) *Builder {
	b.cipher = c
	return b
}

// WithLocationResolver sets the optional IP-to-location collaborator.
func (b *Builder) WithLocationResolver(r LocationResolver) *Builder {
	b.locations = r
	return b
}

// WithAuditSink sets the audit event consumer and enables auditing.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = true
	return b
}

// WithLogger sets the structured logger. Defaults to a disabled logger.
func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.logger = &logger
	return b
}

// Build validates the configuration and assembles the [Engine].
// A Builder can be used once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	// A supplied sink always turns auditing on, regardless of the order
	// WithConfig and WithAuditSink were called in.
	if b.auditSink != nil {
		cfg.Audit.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.redis == nil {
		return nil, fmt.Errorf("%w: redis client required", ErrEngineNotReady)
	}
	if b.users == nil {
		return nil, fmt.Errorf("%w: user store required", ErrEngineNotReady)
	}

	tokens, err := token.NewManager(token.Config{
		SigningMethod: token.SigningMethod(cfg.Token.SigningMethod),
		PrivateKey:    cfg.Token.PrivateKey,
		PublicKey:     cfg.Token.PublicKey,
		Issuer:        cfg.Token.Issuer,
		Leeway:        cfg.Token.Leeway,
		AccessTTL:     cfg.Token.AccessTTL,
		RefreshTTL:    cfg.Token.RefreshTTL,
		PendingTTL:    cfg.Token.PendingTTL,
		SetupTTL:      cfg.Token.SetupTTL,
		StepUpTTL:     cfg.Token.StepUpTTL,
	})
	if err != nil {
		return nil, err
	}

	hasher := b.hasher
	if hasher == nil {
		hasher, err = password.NewArgon2(password.Config{
			Memory:      cfg.Password.Memory,
			Time:        cfg.Password.Time,
			Parallelism: cfg.Password.Parallelism,
			SaltLength:  cfg.Password.SaltLength,
			KeyLength:   cfg.Password.KeyLength,
		})
		if err != nil {
			return nil, err
		}
	}

	cipher := b.cipher
	if cipher == nil {
		cipher, err = crypt.NewCipher(cfg.TwoFactor.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("%w: two-factor encryption key required when no secret cipher is provided", ErrEngineNotReady)
		}
	}

	logger := zerolog.Nop()
	if b.logger != nil {
		logger = *b.logger
	}

	engine := &Engine{
		config:    cfg,
		users:     b.users,
		tokens:    tokens,
		liveness:  liveness.NewStore(b.redis, cfg.Cache.Prefix),
		totp: totp.NewGenerator(totp.Config{
			Issuer:    cfg.TwoFactor.Issuer,
			Digits:    cfg.TwoFactor.Digits,
			Period:    cfg.TwoFactor.Period,
			Algorithm: cfg.TwoFactor.Algorithm,
			Skew:      cfg.TwoFactor.Skew,
		}),
		hasher:    hasher,
		secrets:   cipher,
		locations: b.locations,
		audit: internalaudit.NewDispatcher(internalaudit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink),
		log: logger,
	}

	b.built = true
	return engine, nil
}
