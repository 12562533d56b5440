// internal/utils/jwt.go
package utils

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var (
	ErrTokenInvalid = errors.New("invalid identity token")
	ErrTokenExpired = errors.New("identity token expired")
)

// IdentityClaims is the token payload issued by the identity provider.
// The subject is the stable user id.
type IdentityClaims struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type TokenVerifier struct {
	secret   []byte
	issuer   string
	audience string
}

func NewTokenVerifier(secret, issuer, audience string) *TokenVerifier {
	return &TokenVerifier{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
	}
}

// Verify checks signature, expiry, and the configured issuer and audience.
func (v *TokenVerifier) Verify(tokenString string) (Identity, error) {
	tokenString = strings.TrimSpace(strings.TrimPrefix(tokenString, "Bearer "))
	if tokenString == "" {
		return Identity{}, ErrTokenInvalid
	}

	claims := &IdentityClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrTokenExpired
		}
		return Identity{}, ErrTokenInvalid
	}

	if !token.Valid || claims.Subject == "" {
		return Identity{}, ErrTokenInvalid
	}
	if v.issuer != "" && !claims.VerifyIssuer(v.issuer, true) {
		return Identity{}, ErrTokenInvalid
	}
	if v.audience != "" && !claims.VerifyAudience(v.audience, true) {
		return Identity{}, ErrTokenInvalid
	}

	return Identity{
		Subject: claims.Subject,
		Name:    claims.Name,
		Email:   claims.Email,
		Role:    claims.Role,
	}, nil
}

// Issue signs a token for identity. Used by local tooling and tests in place
// of the real provider.
func (v *TokenVerifier) Issue(identity Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := IdentityClaims{
		Name:  identity.Name,
		Email: identity.Email,
		Role:  identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    v.issuer,
			Subject:   identity.Subject,
		},
	}
	if v.audience != "" {
		claims.Audience = jwt.ClaimStrings{v.audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}
