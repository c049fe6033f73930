package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var ErrInvalidCredential = errors.New("invalid credential")

// CredentialService resolves a signed credential to a user id. The rest
// of the service treats credentials as opaque.
type CredentialService interface {
	ValidateToken(ctx context.Context, token string) (int, error)
}

// Claims carried by service-issued tokens.
type Claims struct {
	UserID int `json:"user_id"`
	jwt.RegisteredClaims
}

// JWTService validates HS256-signed tokens.
type JWTService struct {
	secret []byte
}

// NewJWTService constructs a JWTService.
func NewJWTService(secret string) *JWTService {
	return &JWTService{secret: []byte(secret)}
}

// ValidateToken verifies the signature and expiry and returns the user id.
func (s *JWTService) ValidateToken(ctx context.Context, tokenString string) (int, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidCredential
		}
		return s.secret, nil
	})
	if err != nil {
		return 0, ErrInvalidCredential
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == 0 {
		return 0, ErrInvalidCredential
	}
	return claims.UserID, nil
}

// GenerateToken issues a token for a user, used by tests and tooling.
func (s *JWTService) GenerateToken(userID int, ttl time.Duration) (string, error) {
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}
