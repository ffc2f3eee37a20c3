package authcore

import (
	"errors"
	"time"
)

// Config groups all engine settings. Instances are configured during
// initialization and treated as immutable afterwards.
type Config struct {
	Token     TokenConfig
	TwoFactor TwoFactorConfig
	Password  PasswordConfig
	Cache     CacheConfig
	Audit     AuditConfig
}

// TokenConfig holds the signing material and the lifetime of every
// token kind the codec mints.
type TokenConfig struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// PendingTTL bounds the window between credential verification and
	// the second factor on 2FA-gated logins.
	PendingTTL time.Duration
	// SetupTTL bounds the 2FA setup handshake.
	SetupTTL time.Duration
	// StepUpTTL bounds elevated-trust grants for sensitive operations.
	StepUpTTL time.Duration

	SigningMethod string // "ed25519" (default) or "hs256"
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Leeway        time.Duration
}

// TwoFactorConfig controls TOTP parameters, recovery-code batches, and
// the key protecting the TOTP secret at rest.
type TwoFactorConfig struct {
	Issuer             string
	Digits             int
	Period             int
	Algorithm          string
	Skew               int
	RecoveryCodeCount  int
	RecoveryCodeLength int
	// EncryptionKey is the AES key (16, 24, or 32 bytes) for the default
	// [SecretCipher]. Ignored when a custom cipher is supplied.
	EncryptionKey []byte
}

// PasswordConfig holds the argon2id parameters for the default hasher.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// CacheConfig controls the revocation cache key namespace.
type CacheConfig struct {
	Prefix string
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    720 * time.Hour,
			PendingTTL:    5 * time.Minute,
			SetupTTL:      10 * time.Minute,
			StepUpTTL:     5 * time.Minute,
			SigningMethod: "ed25519",
			Issuer:        "authcore",
		},
		TwoFactor: TwoFactorConfig{
			Issuer:             "authcore",
			Digits:             6,
			Period:             30,
			Algorithm:          "SHA1",
			Skew:               1,
			RecoveryCodeCount:  10,
			RecoveryCodeLength: 20,
		},
		Password: PasswordConfig{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Cache: CacheConfig{
			Prefix: "alt",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
	}
}

// Validate rejects configurations the engine cannot run safely with.
func (c Config) Validate() error {
	if c.Token.AccessTTL <= 0 || c.Token.RefreshTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	if c.Token.RefreshTTL < c.Token.AccessTTL {
		return errors.New("refresh TTL must not be shorter than access TTL")
	}
	if c.Token.PendingTTL <= 0 || c.Token.SetupTTL <= 0 || c.Token.StepUpTTL <= 0 {
		return errors.New("pending, setup, and step-up TTLs must be positive")
	}
	if c.TwoFactor.Digits < 6 || c.TwoFactor.Digits > 10 {
		return errors.New("totp digits must be between 6 and 10")
	}
	if c.TwoFactor.Period <= 0 {
		return errors.New("totp period must be positive")
	}
	if c.TwoFactor.Skew < 0 || c.TwoFactor.Skew > 2 {
		return errors.New("totp skew must be between 0 and 2 steps")
	}
	if c.TwoFactor.RecoveryCodeCount <= 0 {
		return errors.New("recovery code count must be positive")
	}
	if c.TwoFactor.RecoveryCodeLength < 8 || c.TwoFactor.RecoveryCodeLength > 64 {
		return errors.New("recovery code length must be between 8 and 64")
	}
	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.PrivateKey = cloneBytes(cfg.Token.PrivateKey)
	out.Token.PublicKey = cloneBytes(cfg.Token.PublicKey)
	out.TwoFactor.EncryptionKey = cloneBytes(cfg.TwoFactor.EncryptionKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
