package auth

import (
	"fmt"
	"time"

	"chat-hub/domain"
	"chat-hub/errors"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "chat-hub"

// CustomClaims defines the structure of the data stored inside the JWT.
// The identity travels in the standard "sub" claim.
type CustomClaims struct {
	jwt.RegisteredClaims
}

// Tokenizer signs and validates HS256 tokens with one secret.
type Tokenizer struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenizer(secret string, ttl time.Duration) *Tokenizer {
	return &Tokenizer{secret: []byte(secret), ttl: ttl}
}

// Issue creates a signed JWT for a specific user.
func (t *Tokenizer) Issue(userID domain.UserID) (string, error) {
	now := time.Now()
	claims := &CustomClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrTokenGeneration, err)
	}
	return signed, nil
}

// Parse validates the signature, the issuer and the expiration of a JWT string.
// Expired tokens yield ErrTokenExpired, every other failure ErrInvalidToken.
func (t *Tokenizer) Parse(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, errors.ErrTokenExpired
	case err != nil:
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, errors.ErrInvalidToken
	}
	return claims, nil
}
