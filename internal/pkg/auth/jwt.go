package auth

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ikram-mever-codes/csb-backend/internal/pkg/apperror"
	"github.com/ikram-mever-codes/csb-backend/internal/pkg/env"
)

// SessionCookieName is the cookie carrying the locally-issued session token.
const SessionCookieName = "token"

// DefaultSessionTTL is the sliding session window. Every authenticated
// request reissues the token with a fresh window of this length.
const DefaultSessionTTL = 7 * 24 * time.Hour

// SessionClaims are the claims carried by a locally-issued session token.
type SessionClaims struct {
	UserID uint `json:"id"`
	jwt.RegisteredClaims
}

// TokenMaker signs and parses local session tokens.
type TokenMaker struct {
	secretKey string
	ttl       time.Duration
}

// NewTokenMaker creates a maker with an explicit secret and TTL.
func NewTokenMaker(secretKey string, ttl time.Duration) *TokenMaker {
	return &TokenMaker{secretKey: secretKey, ttl: ttl}
}

// NewTokenMakerFromEnv reads JWT_SECRET and the optional SESSION_TTL_HOURS.
func NewTokenMakerFromEnv() *TokenMaker {
	ttl := DefaultSessionTTL
	if raw := env.GetEnv("SESSION_TTL_HOURS", ""); raw != "" {
		if hours, err := strconv.Atoi(raw); err == nil && hours > 0 {
			ttl = time.Duration(hours) * time.Hour
		}
	}
	return NewTokenMaker(env.GetEnv("JWT_SECRET", ""), ttl)
}

// TTL returns the configured session window.
func (m *TokenMaker) TTL() time.Duration {
	return m.ttl
}

// Generate signs a fresh token for the user.
func (m *TokenMaker) Generate(userID uint) (string, error) {
	claims := SessionClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.secretKey))
}

// Parse validates signature and expiry and returns the claims. All parse
// failures map to the same invalid-token kind.
func (m *TokenMaker) Parse(tokenStr string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(m.secretKey), nil
	})
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInvalidToken, "Invalid Token! Please Login Again.", err)
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, apperror.New(apperror.KindInvalidToken, "Invalid Token! Please Login Again.")
	}
	return claims, nil
}
