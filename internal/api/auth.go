package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	adminTokenIssuer   = "aetb-config"
	adminTokenAudience = "aetb-config-admin"
)

var errMissingBearer = errors.New("missing bearer token")

// AdminTokens issues and verifies HS256 tokens for mutating admin endpoints.
type AdminTokens struct {
	secret []byte
	now    func() time.Time
}

// NewAdminTokens returns a token issuer for secret.
func NewAdminTokens(secret string) *AdminTokens {
	return &AdminTokens{secret: []byte(secret), now: time.Now}
}

// Issue signs a token for subject valid for ttl.
func (a *AdminTokens) Issue(subject string, ttl time.Duration) (string, error) {
	now := a.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    adminTokenIssuer,
		Audience:  jwt.ClaimStrings{adminTokenAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})

	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign admin token: %w", err)
	}
	return signed, nil
}

// Verify parses tokenString and returns its subject.
func (a *AdminTokens) Verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(adminTokenIssuer),
		jwt.WithAudience(adminTokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func bearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", errMissingBearer
	}
	return strings.TrimSpace(token), nil
}

func adminAuthMiddleware(tokens *AdminTokens, next http.Handler) http.Handler {
	if tokens == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := bearerToken(r)
		if err == nil {
			_, err = tokens.Verify(token)
		}
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="aetb-config"`)
			writeError(w, http.StatusUnauthorized, "Unauthorized", err.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}
