package jwtinfra

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-shop-api/internal/config"
	"github.com/golang-jwt/jwt/v5"
)

// Claims holds the JWT payload fields. Subject carries the username.
type Claims struct {
	jwt.RegisteredClaims
}

// Provider signs and verifies HMAC JWTs with a shared secret.
type Provider struct {
	secret     []byte
	method     jwt.SigningMethod
	algorithms []string
	expiry     time.Duration
}

func NewProvider(cfg *config.Config) (*Provider, error) {
	if cfg.JWTSecretKey == "" {
		return nil, errors.New("JWT_SECRET_KEY is not set")
	}
	method, ok := jwt.GetSigningMethod(cfg.JWTAlgorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported JWT algorithm %q", cfg.JWTAlgorithm)
	}
	return &Provider{
		secret:     []byte(cfg.JWTSecretKey),
		method:     method,
		algorithms: []string{method.Alg()},
		expiry:     cfg.JWTExpiry,
	}, nil
}

// Sign issues an access token for username.
func (p *Provider) Sign(username string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(now.Add(p.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(p.method, claims).SignedString(p.secret)
}

// Verify decodes tokenStr, accepting only the configured algorithm set.
func (p *Provider) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return p.secret, nil
	}, jwt.WithValidMethods(p.algorithms))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
