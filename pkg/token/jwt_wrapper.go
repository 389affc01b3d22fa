package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultExpiration session 有效時間
const DefaultExpiration = 24 * time.Hour

// Claims structure for custom claims in JWT
type Claims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

// Issuer sign and verify session tokens with one HMAC secret
type Issuer struct {
	secret     []byte
	name       string
	expiration time.Duration
}

// NewIssuer create Issuer, expiration <= 0 uses DefaultExpiration
func NewIssuer(secret, name string, expiration time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	if expiration <= 0 {
		expiration = DefaultExpiration
	}
	return &Issuer{secret: []byte(secret), name: name, expiration: expiration}, nil
}

// Expiration token lifetime, also used as the cookie max age
func (i *Issuer) Expiration() time.Duration {
	return i.expiration
}

// GenerateJWT generates a JWT token
func (i *Issuer) GenerateJWT(userID int64) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(i.expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    i.name,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// ParseJWT parses a JWT and extracts the Claims
func (i *Issuer) ParseJWT(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Check if the signing method is HMAC
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return i.secret, nil
	})
	if err != nil {
		// invalid signature, expired ...
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID <= 0 {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
