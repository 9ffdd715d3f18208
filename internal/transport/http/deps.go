package http

import (
	"context"

	"github.com/go-shop-api/internal/domain"
	jwtinfra "github.com/go-shop-api/internal/infrastructure/jwt"
)

// UserRepository is the minimal interface the router requires from a user store.
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Insert(ctx context.Context, u *domain.User) error
	// DeleteUnverified removes u only while it is still unverified.
	DeleteUnverified(ctx context.Context, u *domain.User) error
	// ConsumeOTP writes u only while the stored code still equals code.
	ConsumeOTP(ctx context.Context, u *domain.User, code string) error
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

// AddressRepository is the minimal interface the router requires from an address store.
type AddressRepository interface {
	Put(ctx context.Context, a *domain.DeliveryAddress) error
	Get(ctx context.Context, addressID string) (*domain.DeliveryAddress, error)
	ListByUser(ctx context.Context, userID string) ([]domain.DeliveryAddress, error)
}

// CouponRepository is the minimal interface the router requires from a coupon store.
type CouponRepository interface {
	Scan(ctx context.Context) ([]domain.Coupon, error)
	GetByCode(ctx context.Context, code string) (*domain.Coupon, error)
	Put(ctx context.Context, c *domain.Coupon) error
}

// TokenProvider signs access tokens and verifies presented ones.
type TokenProvider interface {
	Sign(username string) (string, error)
	Verify(token string) (*jwtinfra.Claims, error)
}

// PasswordHasher hashes and checks passwords.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}
