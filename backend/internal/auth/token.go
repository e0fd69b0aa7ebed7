package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "soceyo/backend/pkg/errors"
)

const issuer = "soceyo"

// Token kinds carried in the typ claim
const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

// Claims is the payload of every token issued here. Subject holds the user id.
type Claims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 tokens
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenIssuer creates an issuer with the given secret and lifetimes
func NewTokenIssuer(secret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// RefreshTTL returns the refresh token lifetime
func (i *TokenIssuer) RefreshTTL() time.Duration {
	return i.refreshTTL
}

// IssueAccess creates a short lived access token for userID
func (i *TokenIssuer) IssueAccess(userID string) (string, error) {
	return i.issue(userID, TokenAccess, i.accessTTL)
}

// IssueRefresh creates a long lived refresh token for userID
func (i *TokenIssuer) IssueRefresh(userID string) (string, error) {
	return i.issue(userID, TokenRefresh, i.refreshTTL)
}

func (i *TokenIssuer) issue(userID, kind string, ttl time.Duration) (string, error) {
	now := i.now()
	claims := &Claims{
		Type: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Verify checks signature, expiry, issuer and kind and returns the user id
func (i *TokenIssuer) Verify(tokenString, kind string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", apperrors.NewUnauthorized("token expired", err)
		}
		return "", apperrors.NewUnauthorized("invalid token", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", apperrors.NewUnauthorized("invalid token", jwt.ErrSignatureInvalid)
	}
	if claims.Type != kind {
		return "", apperrors.NewUnauthorized("wrong token type", nil)
	}
	if claims.Subject == "" {
		return "", apperrors.NewUnauthorized("invalid token payload", nil)
	}
	return claims.Subject, nil
}
