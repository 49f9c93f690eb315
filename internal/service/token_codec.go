package service

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"

	"jobhub/internal/domain"
)

// Claims es el payload firmado que viaja dentro de access y refresh tokens.
type Claims struct {
	UserID    string         `json:"uid"`
	Email     string         `json:"email"`
	Role      domain.Role    `json:"role"`
	SubRole   domain.SubRole `json:"sub_role,omitempty"`
	TokenType string         `json:"typ"`
	jwt.RegisteredClaims
}

var (
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
)

// TokenCodec firma y verifica tokens. Se abstrae como capacidad para que el
// núcleo sea testeable con una implementación falsa.
type TokenCodec interface {
	Sign(claims Claims, secret []byte) (string, error)
	Verify(token string, secret []byte) (Claims, error)
}

// JWTCodec implementa TokenCodec con HS256.
type JWTCodec struct{}

func NewJWTCodec() *JWTCodec {
	return &JWTCodec{}
}

func (JWTCodec) Sign(claims Claims, secret []byte) (string, error) {
	if len(secret) == 0 {
		return "", ErrTokenInvalid
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func (JWTCodec) Verify(tokenString string, secret []byte) (Claims, error) {
	if len(secret) == 0 {
		return Claims{}, ErrTokenInvalid
	}
	var claims Claims
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	_, err := parser.ParseWithClaims(tokenString, &claims, func(_ *jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrTokenInvalid
	}
	return claims, nil
}
