package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the claims carried by a session token.
type Claims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// JWTAuthenticator represents a JWT based authenticator.
type JWTAuthenticator struct {
	audience string
	issuer   string
}

// NewJWTAuthenticator creates a new JWTAuthenticator instance.
func NewJWTAuthenticator(audience, issuer string) JWTAuthenticator {
	return JWTAuthenticator{
		audience: audience,
		issuer:   issuer,
	}
}

// GenerateToken generates a JWT token with the given claims and secret.
// This is generic and accepts any type that implements jwt.Claims.
func (a *JWTAuthenticator) GenerateToken(claims jwt.Claims, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenStr, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", err
	}

	return tokenStr, nil
}

// ValidateTokenWithClaims validates a JWT token and parses it into the provided claims type.
// The claims parameter should be a pointer to a struct that implements jwt.Claims.
func (a *JWTAuthenticator) ValidateTokenWithClaims(tokenString, secret string, claims jwt.Claims) (*jwt.Token, error) {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}

		return []byte(secret), nil
	},
		jwt.WithExpirationRequired(),
		jwt.WithAudience(a.audience),
		jwt.WithIssuer(a.issuer),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
	)
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	return token, nil
}

// TokenIssuer issues and verifies session tokens for a single secret.
type TokenIssuer struct {
	jwtAuth   JWTAuthenticator
	secret    string
	issuer    string
	expiresIn time.Duration
	now       func() time.Time
}

// NewTokenIssuer creates a TokenIssuer whose tokens are issued by and intended for issuer.
func NewTokenIssuer(secret, issuer string, expiresIn time.Duration) *TokenIssuer {
	return &TokenIssuer{
		jwtAuth:   NewJWTAuthenticator(issuer, issuer),
		secret:    secret,
		issuer:    issuer,
		expiresIn: expiresIn,
		now:       time.Now,
	}
}

// IssueToken signs a session token for the given subject.
func (i *TokenIssuer) IssueToken(subjectID string) (string, error) {
	now := i.now()
	claims := Claims{
		UserID: subjectID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.expiresIn)),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    i.issuer,
			Audience:  jwt.ClaimStrings{i.issuer},
		},
	}

	return i.jwtAuth.GenerateToken(claims, i.secret)
}

// ParseToken validates tokenString and returns its claims.
func (i *TokenIssuer) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if _, err := i.jwtAuth.ValidateTokenWithClaims(tokenString, i.secret, claims); err != nil {
		return nil, err
	}

	if claims.UserID == "" {
		return nil, errors.New("token has no user")
	}

	return claims, nil
}
