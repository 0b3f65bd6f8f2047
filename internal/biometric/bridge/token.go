package bridge

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophlock/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL bounds how long a signed call token stays valid.
const DefaultTokenTTL = 30 * time.Second

const tokenIssuer = "gophlock"

// Claims are the claims of a call token. RequestID ties the token to one
// bridge request.
type Claims struct {
	jwt.RegisteredClaims
	RequestID string `json:"rid,omitempty"`
}

func GenerateToken(requestID string, secretKey []byte, ttl time.Duration) (string, error) {
	jti, err := common.MakeRandHexString(16)
	if err != nil {
		return "", fmt.Errorf("token id: %w", err)
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		RequestID: requestID,
	})

	return token.SignedString(secretKey)
}

// ParseToken validates tokenString and returns its claims. Every failure
// wraps common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}

const bearerPrefix = "Bearer "

func bearer(token string) string { return bearerPrefix + token }

func fromBearer(v string) (string, error) {
	if !strings.HasPrefix(v, bearerPrefix) {
		return "", errors.New("authorization is not a bearer token")
	}
	return strings.TrimPrefix(v, bearerPrefix), nil
}
