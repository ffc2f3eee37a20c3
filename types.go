package authcore

import (
	"context"
	"io"
	"time"

	internalaudit "github.com/MrEthical07/authcore/internal/audit"
)

// UserDocument is the persisted identity record. It is owned by the
// caller's [UserStore]; the engine reads it, mutates a private copy in
// memory, and writes it back as a whole document per operation.
type UserDocument struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Roles        []string
	LastActive   time.Time
	Security     SecurityDetails
	Devices      []DeviceRecord
}

// SecurityDetails groups the two-factor and mail credentials embedded in
// a user document. Operations treat it as a value: they compute a new
// details struct and persist the whole document rather than mutating a
// shared instance.
type SecurityDetails struct {
	TwoFactor TwoFactorDetails
	Mail      MailDetails
}

// TwoFactorDetails holds the 2FA state for one user. Secret is encrypted
// at rest via the [SecretCipher] collaborator; RecoveryCodes are hashes,
// never plaintext, and each is removed on first successful use.
type TwoFactorDetails struct {
	Enabled       bool
	Secret        string
	RecoveryCodes []string
}

// MailDetails holds email verification state. Sending mail and its
// cooldown bookkeeping are the caller's concern; only the secrets and
// the verified flag live here.
type MailDetails struct {
	Verified            bool
	VerificationSecret  string
	PasswordResetSecret string
}

// DeviceRecord is one entry in a user's device list. Devices have no
// identity of their own; they live and die with the user document.
type DeviceRecord struct {
	ID         string
	Browser    string
	OS         string
	IP         string
	Location   *LocationSnapshot
	LastActive time.Time
}

// DeviceInfo is the client-supplied device description presented on
// login and refresh.
type DeviceInfo struct {
	ID      string
	Browser string
	OS      string
}

// LocationSnapshot is the last known coarse location of a device,
// resolved from its IP by the optional [LocationResolver].
type LocationSnapshot struct {
	City      string
	Region    string
	Country   string
	Latitude  float64
	Longitude float64
}

// UserStore is the persistence collaborator callers must implement.
// Lookups by missing id/email return [ErrAccountNotFound]. FindByID and
// FindByEmail must return a copy the engine may mutate freely.
type UserStore interface {
	FindByID(ctx context.Context, id string) (*UserDocument, error)
	FindByEmail(ctx context.Context, email string) (*UserDocument, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Save(ctx context.Context, user *UserDocument) (*UserDocument, error)
	Delete(ctx context.Context, id string) error
}

// Hasher is the black-box credential hashing primitive. The default is
// [password.Argon2]; any hash with a constant-time verify works.
type Hasher interface {
	Hash(plain string) (string, error)
	Verify(plain, encodedHash string) (bool, error)
}

// SecretCipher is the symmetric-encryption primitive protecting the
// TOTP secret at rest. The default is [crypt.Cipher].
type SecretCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// LocationResolver maps an IP to a coarse location for the device list.
// Optional; when absent, device records carry no location snapshot.
// Resolution failures are non-fatal and only cost the snapshot.
type LocationResolver interface {
	Resolve(ctx context.Context, ip string) (*LocationSnapshot, error)
}

// RegisterRequest is the input for [Engine.Register].
type RegisterRequest struct {
	Email    string
	Password string
	Name     string
}

// TokenPair is an established session: an access token presented on
// every call and a single-use refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// LoginResult is returned by [Engine.Login]. When the account has 2FA
// enabled only PendingToken is set: the session is not yet established
// and neither the revocation cache nor the device list has been touched.
type LoginResult struct {
	TwoFactorRequired bool
	PendingToken      string

	AccessToken  string
	RefreshToken string
	User         *UserDocument
}

// TwoFactorSetup is returned by [Engine.BeginTwoFactorSetup]. The
// candidate secret and recovery codes exist only here and inside the
// setup token until the handshake completes.
type TwoFactorSetup struct {
	SecretBase32  string
	OTPAuthURL    string
	RecoveryCodes []string
	SetupToken    string
}

// Principal is the acting identity resolved from a validated access token.
type Principal struct {
	UserID   string
	DeviceID string
	TokenID  string
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON lines to an [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}
