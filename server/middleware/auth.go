package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	aierrors "github.com/hrygo/closetmind/internal/errors"
)

const (
	// OwnerHeader carries the owner ID when token verification is disabled (dev and demo only).
	OwnerHeader = "X-Owner-ID"

	ownerEchoKey = "closetmind.owner_id"
	issuer       = "closetmind"
)

type ownerCtxKey struct{}

// Authenticator resolves the wardrobe owner of a request from its bearer token.
type Authenticator struct {
	secret []byte
}

// NewAuthenticator creates an authenticator verifying HS256 tokens with secret.
// An empty secret trusts the X-Owner-ID header instead.
func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// Enabled reports whether bearer tokens are verified.
func (a *Authenticator) Enabled() bool {
	return len(a.secret) > 0
}

// IssueToken signs a token whose subject is ownerID.
func (a *Authenticator) IssueToken(ownerID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   ownerID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// ParseToken verifies a token and returns its subject.
func (a *Authenticator) ParseToken(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, aierrors.Unauthorized("unexpected signing method")
		}
		return a.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return "", &aierrors.AIError{Code: aierrors.ErrCodeUnauthorized, Message: "invalid token", Cause: err}
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", aierrors.Unauthorized("token has no subject")
	}
	return claims.Subject, nil
}

// Middleware stores the owner ID in both the echo context and the request context.
func (a *Authenticator) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ownerID, err := a.resolve(c.Request().Header)
			if err != nil {
				return err
			}
			c.Set(ownerEchoKey, ownerID)
			req := c.Request()
			c.SetRequest(req.WithContext(WithOwner(req.Context(), ownerID)))
			return next(c)
		}
	}
}

func (a *Authenticator) resolve(header http.Header) (string, error) {
	if !a.Enabled() {
		if owner := strings.TrimSpace(header.Get(OwnerHeader)); owner != "" {
			return owner, nil
		}
		return "", aierrors.Unauthorized("missing " + OwnerHeader + " header")
	}

	auth := header.Get(echo.HeaderAuthorization)
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", aierrors.Unauthorized("missing bearer token")
	}
	return a.ParseToken(strings.TrimSpace(token))
}

// WithOwner adds the owner ID to the context.
func WithOwner(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerCtxKey{}, ownerID)
}

// OwnerFromContext extracts the owner ID from the context.
func OwnerFromContext(ctx context.Context) (string, bool) {
	ownerID, ok := ctx.Value(ownerCtxKey{}).(string)
	return ownerID, ok && ownerID != ""
}

// OwnerFromEcho extracts the owner ID set by the authenticator.
func OwnerFromEcho(c echo.Context) (string, bool) {
	ownerID, ok := c.Get(ownerEchoKey).(string)
	return ownerID, ok && ownerID != ""
}
