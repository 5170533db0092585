// Package auth issues and verifies the bearer tokens carried by
// authenticated contract calls. Clients treat tokens as opaque strings.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
)

// ErrInvalidToken is matched by every verification failure.
var ErrInvalidToken = errors.New("auth: invalid token")

// Claims are the token claims understood by this package.
type Claims struct {
	AccountID string `json:"accountId,omitempty"`
	jwt.StandardClaims
}

// Issuer mints tokens.
type Issuer interface {
	Issue(subject, accountID string) (string, error)
}

// Verifier checks tokens.
type Verifier interface {
	Verify(token string) (*Claims, error)
}

// HMAC signs HS256 tokens with a shared secret.
type HMAC struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// Option configures an HMAC token service.
type Option func(*HMAC)

// WithIssuer sets the iss claim and requires it on verification.
func WithIssuer(iss string) Option {
	return func(h *HMAC) { h.issuer = iss }
}

// WithTTL sets the token lifetime. The default is one hour.
func WithTTL(d time.Duration) Option {
	return func(h *HMAC) { h.ttl = d }
}

// NewHMAC returns a token service for secret.
func NewHMAC(secret []byte, opts ...Option) (*HMAC, error) {
	if len(secret) == 0 {
		return nil, errors.New("auth: empty secret")
	}
	h := &HMAC{secret: append([]byte(nil), secret...), ttl: time.Hour}
	for _, o := range opts {
		o(h)
	}
	return h, nil
}

// Issue returns a signed token for subject.
func (h *HMAC) Issue(subject, accountID string) (string, error) {
	now := time.Now()
	claims := Claims{
		AccountID: accountID,
		StandardClaims: jwt.StandardClaims{
			Subject:   subject,
			Issuer:    h.issuer,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(h.ttl).Unix(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// Verify parses token and checks its signature, expiry and issuer.
func (h *HMAC) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return h.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if h.issuer != "" && !claims.VerifyIssuer(h.issuer, true) {
		return nil, fmt.Errorf("%w: issuer %q", ErrInvalidToken, claims.Issuer)
	}
	return claims, nil
}

// BearerToken extracts the token from an Authorization: Bearer header.
func BearerToken(r *http.Request) (string, bool) {
	v := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(v, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
