package token

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind distinguishes the two credential classes the service issues.
type Kind string

const (
	// KindAccess marks the short-lived credential presented on every request.
	KindAccess Kind = "access"
	// KindRefresh marks the long-lived credential exchanged for new pairs.
	KindRefresh Kind = "refresh"
)

// SigningMethod selects the signature scheme for issued credentials.
type SigningMethod string

const (
	MethodHS256   SigningMethod = "hs256"
	MethodEd25519 SigningMethod = "ed25519"
)

var (
	// ErrIssuance is returned when a credential cannot be signed, typically
	// because of a misconfigured key.
	ErrIssuance = errors.New("token issuance failed")
	// ErrTokenInvalid covers signature mismatch, malformed structure, and
	// any token whose declared algorithm differs from the configured one.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired is returned when the signature verifies but the
	// expiry has passed. Callers may react differently, e.g. by prompting
	// a refresh.
	ErrTokenExpired = errors.New("token expired")
	// ErrNotRefreshToken is returned when rotation is attempted with a
	// credential that is not of the refresh kind.
	ErrNotRefreshToken = errors.New("not a refresh token")
)

// Config holds the immutable settings for a [Manager].
type Config struct {
	SigningMethod SigningMethod
	AccessTTL     time.Duration // default 1h
	RefreshTTL    time.Duration // default 168h
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Leeway        time.Duration
}

// Claims is the decoded credential payload. The token id used as the
// revocation key lives in RegisteredClaims.ID.
type Claims struct {
	PrincipalID string `json:"uid"`
	Address     string `json:"adr"`
	Kind        Kind   `json:"knd"`
	jwt.RegisteredClaims
}

// TokenID returns the unique identifier embedded at issuance.
func (c *Claims) TokenID() string { return c.ID }

// Pair is the result of issuing credentials for a principal.
type Pair struct {
	AccessToken   string
	RefreshToken  string
	AccessClaims  *Claims
	RefreshClaims *Claims
}

// Manager issues and verifies signed credential pairs. It keeps no mutable
// state and is safe for concurrent use.
type Manager struct {
	config Config
}

// NewManager validates cfg and returns a Manager. Key material is checked
// eagerly so a misconfigured secret fails at startup, not at issuance.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.AccessTTL == 0 {
		cfg.AccessTTL = time.Hour
	}
	if cfg.RefreshTTL == 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	if cfg.AccessTTL < 0 || cfg.RefreshTTL < 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.RefreshTTL < cfg.AccessTTL {
		return nil, errors.New("refresh TTL must not be shorter than access TTL")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.PrivateKey) < 32 {
			return nil, errors.New("hs256 requires a private key of at least 32 bytes")
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

// IssuePair constructs and signs an access/refresh credential pair for the
// principal. Each credential carries a freshly generated token id; no state
// is written anywhere.
func (m *Manager) IssuePair(principalID, address string) (*Pair, error) {
	if strings.TrimSpace(principalID) == "" {
		return nil, fmt.Errorf("%w: empty principal id", ErrIssuance)
	}

	now := time.Now()
	access, accessClaims, err := m.sign(principalID, address, KindAccess, now, m.config.AccessTTL)
	if err != nil {
		return nil, err
	}
	refresh, refreshClaims, err := m.sign(principalID, address, KindRefresh, now, m.config.RefreshTTL)
	if err != nil {
		return nil, err
	}

	return &Pair{
		AccessToken:   access,
		RefreshToken:  refresh,
		AccessClaims:  accessClaims,
		RefreshClaims: refreshClaims,
	}, nil
}

// Verify validates the signature and expiry of raw and decodes its payload.
// A token whose declared signing algorithm differs from the configured one
// is rejected before any claim is looked at.
func (m *Manager) Verify(raw string) (*Claims, error) {
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
	parsed, err := parser.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != m.method().Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return m.verifyKey()
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.PrincipalID == "" || claims.ID == "" {
		return nil, ErrTokenInvalid
	}
	if claims.Kind != KindAccess && claims.Kind != KindRefresh {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

func (m *Manager) sign(principalID, address string, kind Kind, now time.Time, ttl time.Duration) (string, *Claims, error) {
	claims := &Claims{
		PrincipalID: principalID,
		Address:     address,
		Kind:        kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    m.config.Issuer,
		},
	}

	signKey, err := m.signKey()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrIssuance, err)
	}
	signed, err := jwt.NewWithClaims(m.method(), claims).SignedString(signKey)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrIssuance, err)
	}

	return signed, claims, nil
}

// Algorithm reports the JOSE algorithm name credentials are signed with.
func (m *Manager) Algorithm() string { return m.method().Alg() }

// AccessTTL returns the effective access credential lifetime.
func (m *Manager) AccessTTL() time.Duration { return m.config.AccessTTL }

// RefreshTTL returns the effective refresh credential lifetime.
func (m *Manager) RefreshTTL() time.Duration { return m.config.RefreshTTL }

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
