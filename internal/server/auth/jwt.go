// Package auth issues and verifies bearer tokens and hashes passwords.
package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/groupchat/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the token payload: the user id and the token version that was
// current when the token was issued.
type Claims struct {
	jwt.RegisteredClaims
	UserID  int64 `json:"uid"`
	Version int64 `json:"ver"`
}

// now is a seam for tests.
var now = time.Now

// TokenService signs and verifies HS256 tokens with a process-wide secret.
// Tokens carry no expiry; revocation happens through the version claim.
type TokenService struct {
	secret []byte
}

func NewTokenService(secret []byte) *TokenService {
	return &TokenService{secret: secret}
}

// Issue returns a signed token for the given user and token version.
func (s *TokenService) Issue(userID, tokenVersion int64) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  strconv.FormatInt(userID, 10),
			IssuedAt: jwt.NewNumericDate(now()),
		},
		UserID:  userID,
		Version: tokenVersion,
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and decodes the claims. Any failure is
// reported as common.ErrInvalidToken.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	if err != nil || !token.Valid {
		return nil, common.ErrInvalidToken
	}

	if claims.UserID <= 0 {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
