// Package auth is the admin access gate: a shared access key is exchanged for a short-lived
// signed token that every admin route verifies.
//
// There is a single shared key and no per-user identity or rate limiting.
package auth

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	Issuer       = "storefront-service"
	AdminSubject = "admin"
	DefaultTTL   = 8 * time.Hour
)

var (
	ErrInvalidKey   = errors.New("auth: invalid access key")
	ErrInvalidToken = errors.New("auth: invalid session token")
)

// Claims are the registered claims of an admin session token.
type Claims struct {
	jwt.RegisteredClaims
}

// Session is the result of a successful key exchange.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Gate issues and verifies admin session tokens.
type Gate struct {
	key    []byte
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewGate creates a gate for the configured access key. With an empty key or secret every
// login fails.
func NewGate(accessKey, tokenSecret string, ttl time.Duration) *Gate {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Gate{key: []byte(accessKey), secret: []byte(tokenSecret), ttl: ttl, now: time.Now}
}

// Enabled reports whether logins can succeed at all.
func (g *Gate) Enabled() bool {
	return len(g.key) > 0 && len(g.secret) > 0
}

// Login checks key against the access key and issues a session token.
func (g *Gate) Login(key string) (Session, error) {
	if !g.Enabled() || subtle.ConstantTimeCompare([]byte(key), g.key) != 1 {
		return Session{}, ErrInvalidKey
	}

	now := g.now()
	expiresAt := now.Add(g.ttl)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    Issuer,
			Subject:   AdminSubject,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(g.secret)
	if err != nil {
		return Session{}, fmt.Errorf("auth: failed to sign token: %w", err)
	}
	return Session{Token: signed, ExpiresAt: expiresAt}, nil
}

// Verify parses and validates a session token.
func (g *Gate) Verify(tokenString string) (*Claims, error) {
	if !g.Enabled() {
		return nil, ErrInvalidToken
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return g.secret, nil
	},
		jwt.WithIssuer(Issuer),
		jwt.WithSubject(AdminSubject),
		jwt.WithTimeFunc(g.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

type claimsKey struct{}

// ClaimsFromContext returns the admin claims stored by RequireAdmin.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*Claims)
	return c, ok
}

// RequireAdmin rejects requests without a valid admin bearer token.
func (g *Gate) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr, ok := extractBearerToken(r.Header.Get("Authorization"))
		if !ok {
			respondAuthError(w, "authorization header missing or invalid")
			return
		}
		claims, err := g.Verify(tokenStr)
		if err != nil {
			respondAuthError(w, "invalid or expired session")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
	})
}

func extractBearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func respondAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="admin"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
