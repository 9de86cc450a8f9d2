package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/playlog/internal/config"
	"github.com/playlog/internal/domain"
)

type identityKey struct{}

// IdentityFrom returns the authenticated user's email
func IdentityFrom(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(identityKey{}).(string)
	return email, ok && email != ""
}

// WithIdentity returns a context carrying email as the acting user
func WithIdentity(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, identityKey{}, email)
}

// Authenticator verifies HS256 bearer tokens
type Authenticator struct {
	secret   []byte
	issuer   string
	disabled bool
	local    string
}

// NewAuthenticator creates an authenticator from cfg
func NewAuthenticator(cfg *config.AuthConfig) *Authenticator {
	local := cfg.LocalIdentity
	if local == "" {
		local = "local@playlog"
	}
	return &Authenticator{
		secret:   []byte(cfg.JWTSecret),
		issuer:   cfg.Issuer,
		disabled: cfg.Disabled,
		local:    local,
	}
}

// Authenticate returns the email claim of a valid token
func (a *Authenticator) Authenticate(header string) (string, error) {
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("%w: missing bearer token", domain.ErrUnauthorized)
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(strings.TrimSpace(raw), claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}

	email, _ := claims["email"].(string)
	if email == "" {
		return "", fmt.Errorf("%w: token has no email", domain.ErrUnauthorized)
	}
	return email, nil
}

// Middleware rejects requests without a valid token and stores the
// caller's identity in the request context
func (a *Authenticator) Middleware(writeError func(http.ResponseWriter, int, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if a.disabled {
				next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), a.local)))
				return
			}

			email, err := a.Authenticate(r.Header.Get("Authorization"))
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="playlog"`)
				writeError(w, http.StatusUnauthorized, domain.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), email)))
		})
	}
}
