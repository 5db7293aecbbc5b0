package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const sessionIssuer = "food-storefront"

// SessionClaims identify an anonymous storefront session.
type SessionClaims struct {
	SessionKey string `json:"session_key"`
	jwt.RegisteredClaims
}

// SessionTokens signs and parses session tokens.
type SessionTokens struct {
	secret []byte
	ttl    time.Duration
}

func NewSessionTokens(secret string, ttl time.Duration) *SessionTokens {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionTokens{secret: []byte(secret), ttl: ttl}
}

func (st *SessionTokens) Generate(sessionKey string) (string, error) {
	claims := &SessionClaims{
		SessionKey: sessionKey,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(st.ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    sessionIssuer,
		},
	}

	return st.sign(claims)
}

func (st *SessionTokens) sign(claims *SessionClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(st.secret)
}

func (st *SessionTokens) Parse(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return st.secret, nil
	}, jwt.WithIssuer(sessionIssuer))

	if err != nil || !token.Valid {
		return nil, errors.New("invalid or expired session token")
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || claims.SessionKey == "" {
		return nil, errors.New("invalid session token claims")
	}

	return claims, nil
}
