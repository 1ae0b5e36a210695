// Package identity resolves the signed-in user. The CLI uses a fixed user ID from
// configuration; the HTTP API verifies an HS256 bearer token whose subject is the
// user ID. An empty user ID means nobody is signed in.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrNoIdentity indicates an operation that needs a signed-in user got none
	ErrNoIdentity = errors.New("no signed-in user")
	// ErrInvalidToken indicates a bearer token that failed verification
	ErrInvalidToken = errors.New("invalid or expired token")
)

type ctxKey struct{}

// WithUser returns a context carrying the user ID
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// UserFromContext returns the user ID or "" when nobody is signed in
func UserFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(ctxKey{}).(string)
	return userID
}

// Static is the identity of a single configured user
type Static string

// UserID returns the configured user ID
func (s Static) UserID() string {
	return strings.TrimSpace(string(s))
}

// JWT signs and verifies bearer tokens with a shared secret
type JWT struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewJWT creates a token verifier
func NewJWT(secret, issuer string) (*JWT, error) {
	if len(secret) < 16 {
		return nil, errors.New("jwt secret must be at least 16 characters")
	}
	return &JWT{
		secret: []byte(secret),
		issuer: issuer,
		now:    time.Now,
	}, nil
}

// Sign issues a token for the user that expires after ttl
func (j *JWT) Sign(userID string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("user id is required")
	}

	now := j.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    j.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the token and returns its subject
func (j *JWT) Verify(token string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}

	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return j.secret, nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}

// BearerToken extracts the token from an Authorization header value
func BearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
