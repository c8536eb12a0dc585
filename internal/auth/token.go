// Package auth turns widget bearer tokens into the responder's auth context.
// The chat feature only reads auth state; tokens are issued by the platform
// (or the token CLI command) and verified here.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"

	"github.com/edgard/carebot/internal/responder"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrNoSecret     = errors.New("token secret is not configured")
)

// Claims is the payload of a widget token.
type Claims struct {
	DisplayName string `json:"name"`
	jwt.RegisteredClaims
}

// Issuer signs HS256 tokens for logged in users.
type Issuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	clock  clockwork.Clock
}

func NewIssuer(secret, issuer string, ttl time.Duration, clock clockwork.Clock) *Issuer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Issuer{secret: []byte(secret), issuer: issuer, ttl: ttl, clock: clock}
}

// Issue returns a signed token carrying the display name as both subject and
// name claim.
func (i *Issuer) Issue(displayName string) (string, error) {
	if len(i.secret) == 0 {
		return "", ErrNoSecret
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return "", errors.New("display name is required")
	}

	now := i.clock.Now()
	claims := &Claims{
		DisplayName: displayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   displayName,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verifier validates tokens and derives the auth context of a request.
type Verifier struct {
	secret []byte
	issuer string
	clock  clockwork.Clock
}

func NewVerifier(secret, issuer string, clock clockwork.Clock) *Verifier {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Verifier{secret: []byte(secret), issuer: issuer, clock: clock}
}

// Enabled reports whether a secret is configured.
func (v *Verifier) Enabled() bool {
	return v != nil && len(v.secret) > 0
}

// Verify parses and validates a token string.
func (v *Verifier) Verify(token string) (*Claims, error) {
	if !v.Enabled() {
		return nil, ErrNoSecret
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.clock.Now),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Context returns the auth context for a raw token. Anything that does not
// verify is treated as anonymous.
func (v *Verifier) Context(token string) responder.AuthContext {
	if token == "" {
		return responder.Anonymous()
	}
	claims, err := v.Verify(token)
	if err != nil {
		return responder.Anonymous()
	}
	name := claims.DisplayName
	if name == "" {
		name = claims.Subject
	}
	return responder.Authenticated(name)
}

// FromRequest reads the bearer token from the Authorization header, or the
// access_token query parameter used by browser WebSocket clients.
func (v *Verifier) FromRequest(r *http.Request) responder.AuthContext {
	return v.Context(TokenFromRequest(r))
}

// TokenFromRequest extracts the raw token of r, or "".
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("access_token")
}
