package token

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind tags every issued token with the context it may be used in.
// Validation rejects a token presented outside its kind.
type Kind string

const (
	// KindAccess is a short-lived token presented on every authenticated call.
	KindAccess Kind = "access"
	// KindRefresh is a longer-lived single-use token exchanged for a new pair.
	KindRefresh Kind = "refresh"
	// KindTwoFactorPending parks a credential-verified login until the
	// second factor is provided.
	KindTwoFactorPending Kind = "2fa_pending"
	// KindStepUp is a short-lived elevated-trust grant for sensitive operations.
	KindStepUp Kind = "step_up"
	// KindTwoFactorSetup binds a candidate TOTP secret and recovery codes
	// to the user during the setup handshake. Nothing is persisted until
	// the setup token is redeemed.
	KindTwoFactorSetup Kind = "2fa_setup"
)

var (
	// ErrInvalid is returned on signature, format, or claim failures.
	ErrInvalid = errors.New("token invalid")
	// ErrExpired is returned when the token is past its expiry.
	ErrExpired = errors.New("token expired")
	// ErrKindMismatch is returned when a token is presented outside its kind.
	ErrKindMismatch = errors.New("token kind mismatch")
)

// SigningMethod selects the signature algorithm.
type SigningMethod string

const (
	MethodEd25519 SigningMethod = "ed25519"
	MethodHS256   SigningMethod = "hs256"
)

// Config holds the signing material and per-kind lifetimes.
type Config struct {
	SigningMethod SigningMethod
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Leeway        time.Duration

	AccessTTL  time.Duration
	RefreshTTL time.Duration
	PendingTTL time.Duration
	SetupTTL   time.Duration
	StepUpTTL  time.Duration
}

// Claims is the wire shape shared by all token kinds. Secret and
// RecoveryCodes are only populated on setup tokens.
type Claims struct {
	Kind          Kind     `json:"knd"`
	DeviceID      string   `json:"dev,omitempty"`
	Secret        string   `json:"sec,omitempty"`
	RecoveryCodes []string `json:"rec,omitempty"`
	jwt.RegisteredClaims
}

// Manager mints and validates signed tokens. It is stateless; liveness
// and single-use semantics are enforced by the caller against the
// revocation cache.
type Manager struct {
	config Config
}

// NewManager validates the signing configuration and returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.PendingTTL <= 0 || cfg.SetupTTL <= 0 || cfg.StepUpTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}

	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.PrivateKey) == 0 {
			return nil, errors.New("hs256 requires private key")
		}
	case MethodEd25519:
		if _, err := parseEdPrivateKey(cfg.PrivateKey); err != nil {
			return nil, err
		}
		if len(cfg.PublicKey) > 0 {
			if _, err := parseEdPublicKey(cfg.PublicKey); err != nil {
				return nil, err
			}
		}
	default:
		return nil, errors.New("unsupported signing method")
	}

	return &Manager{config: cfg}, nil
}

// Issued is the result of minting a token: the signed value plus the
// token id the caller records in the revocation cache.
type Issued struct {
	Token     string
	TokenID   string
	ExpiresAt time.Time
}

// IssueAccess mints an access token bound to the given device.
func (m *Manager) IssueAccess(userID, deviceID string) (*Issued, error) {
	return m.issue(KindAccess, userID, deviceID, m.config.AccessTTL, "", nil)
}

// IssueRefresh mints a refresh token bound to the given device.
func (m *Manager) IssueRefresh(userID, deviceID string) (*Issued, error) {
	return m.issue(KindRefresh, userID, deviceID, m.config.RefreshTTL, "", nil)
}

// IssuePending mints a two-factor-pending token. The session is not
// established until the pending token is exchanged with a valid code.
func (m *Manager) IssuePending(userID, deviceID string) (*Issued, error) {
	return m.issue(KindTwoFactorPending, userID, deviceID, m.config.PendingTTL, "", nil)
}

// IssueStepUp mints a stand-alone elevated-trust grant. There is no
// server-side tracking; its blast radius is bounded by StepUpTTL.
func (m *Manager) IssueStepUp(userID string) (*Issued, error) {
	return m.issue(KindStepUp, userID, "", m.config.StepUpTTL, "", nil)
}

// IssueSetup mints a setup token carrying the candidate secret and
// recovery codes so an abandoned setup leaves no persisted residue.
func (m *Manager) IssueSetup(userID, secretBase32 string, recoveryCodes []string) (*Issued, error) {
	return m.issue(KindTwoFactorSetup, userID, "", m.config.SetupTTL, secretBase32, recoveryCodes)
}

func (m *Manager) issue(kind Kind, userID, deviceID string, ttl time.Duration, secret string, codes []string) (*Issued, error) {
	if userID == "" {
		return nil, ErrInvalid
	}

	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := Claims{
		Kind:          kind,
		DeviceID:      deviceID,
		Secret:        secret,
		RecoveryCodes: codes,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Issuer:    m.config.Issuer,
		},
	}

	tok := jwt.NewWithClaims(m.method(), claims)
	key, err := m.signKey()
	if err != nil {
		return nil, err
	}
	signed, err := tok.SignedString(key)
	if err != nil {
		return nil, err
	}

	return &Issued{Token: signed, TokenID: claims.ID, ExpiresAt: expiresAt}, nil
}

// Parse validates signature and expiry and enforces the expected kind.
// Order matters: signature integrity first, then expiry, then kind.
func (m *Manager) Parse(tokenStr string, expected Kind) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.method().Alg()}),
		jwt.WithExpirationRequired(),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	tok, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != m.method().Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return m.verifyKey()
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, ErrInvalid
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, ErrInvalid
	}
	if claims.Kind != expected {
		return nil, ErrKindMismatch
	}

	return claims, nil
}

func (m *Manager) method() jwt.SigningMethod {
	switch m.config.SigningMethod {
	case MethodHS256:
		return jwt.SigningMethodHS256
	default:
		return jwt.SigningMethodEdDSA
	}
}

func (m *Manager) signKey() (interface{}, error) {
	switch m.config.SigningMethod {
	case MethodHS256:
		return m.config.PrivateKey, nil
	default:
		return parseEdPrivateKey(m.config.PrivateKey)
	}
}

func (m *Manager) verifyKey() (interface{}, error) {
	switch m.config.SigningMethod {
	case MethodHS256:
		return m.config.PrivateKey, nil
	default:
		if len(m.config.PublicKey) > 0 {
			return parseEdPublicKey(m.config.PublicKey)
		}
		priv, err := parseEdPrivateKey(m.config.PrivateKey)
		if err != nil {
			return nil, err
		}
		return priv.Public(), nil
	}
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
