package auth

import (
	"fmt"
	"time"

	"github.com/dpavlenko/authd/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenPair bundles a short-lived access token and a long-lived refresh
// token, issued together. The pair itself is never persisted; only the
// digest of the refresh token is.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Claims carried by both token kinds: registered claims (Subject holds the
// principal id) plus the principal's email.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// Issuer signs and parses the two token kinds. Access and refresh tokens
// use distinct secrets, so leaking one cannot forge the other kind.
type Issuer struct {
	accessSecret    []byte
	refreshSecret   []byte
	accessValidity  time.Duration
	refreshValidity time.Duration
}

func NewIssuer(accessSecret, refreshSecret []byte, accessValidity, refreshValidity time.Duration) *Issuer {
	return &Issuer{
		accessSecret:    accessSecret,
		refreshSecret:   refreshSecret,
		accessValidity:  accessValidity,
		refreshValidity: refreshValidity,
	}
}

// Issue mints a TokenPair for the given principal.
func (i *Issuer) Issue(principalID, email string) (*TokenPair, error) {
	access, err := i.sign(principalID, email, i.accessSecret, i.accessValidity)
	if err != nil {
		return nil, fmt.Errorf("signing access token: %w", err)
	}
	refresh, err := i.sign(principalID, email, i.refreshSecret, i.refreshValidity)
	if err != nil {
		return nil, fmt.Errorf("signing refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// ParseAccess validates signature and expiry of an access token and returns
// its claims. The store is never consulted here.
func (i *Issuer) ParseAccess(token string) (*Claims, error) {
	return i.parse(token, i.accessSecret)
}

// ParseRefresh is ParseAccess for the refresh kind.
func (i *Issuer) ParseRefresh(token string) (*Claims, error) {
	return i.parse(token, i.refreshSecret)
}

func (i *Issuer) sign(principalID, email string, secret []byte, validity time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			// iat/exp have whole-second resolution, so the jti is what
			// keeps two tokens minted in the same second distinct.
			ID:        uuid.NewString(),
			Subject:   principalID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
		Email: email,
	})
	return token.SignedString(secret)
}

func (i *Issuer) parse(tokenString string, secret []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
