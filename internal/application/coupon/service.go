package coupon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-shop-api/internal/domain"
	"github.com/go-shop-api/internal/pkg/id"
)

type Service interface {
	List(ctx context.Context) ([]domain.Coupon, error)
	Get(ctx context.Context, code string) (*domain.Coupon, error)
	Create(ctx context.Context, input domain.CouponInput) (*domain.Coupon, error)
}

type couponStore interface {
	Scan(ctx context.Context) ([]domain.Coupon, error)
	GetByCode(ctx context.Context, code string) (*domain.Coupon, error)
	Put(ctx context.Context, c *domain.Coupon) error
}

type service struct {
	repo couponStore
}

func NewService(repo couponStore) Service {
	return &service{repo: repo}
}

func (s *service) List(ctx context.Context) ([]domain.Coupon, error) {
	return s.repo.Scan(ctx)
}

func (s *service) Get(ctx context.Context, code string) (*domain.Coupon, error) {
	return s.repo.GetByCode(ctx, code)
}

// Create stores a new coupon. Codes are unique; the check is best-effort
// since the code index is eventually consistent.
func (s *service) Create(ctx context.Context, input domain.CouponInput) (*domain.Coupon, error) {
	_, err := s.repo.GetByCode(ctx, input.Code)
	if err == nil {
		return nil, fmt.Errorf("coupon code %q already exists: %w", input.Code, domain.ErrConflict)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if input.Type == domain.CouponPercentageDiscount && input.Amount > 100 {
		return nil, fmt.Errorf("percentage discount cannot exceed 100: %w", domain.ErrBadRequest)
	}
	enabled := true
	if input.Enabled != nil {
		enabled = *input.Enabled
	}
	c := &domain.Coupon{
		CouponID:    id.New(),
		DateCreated: time.Now().UTC(),
		Name:        input.Name,
		Type:        input.Type,
		Amount:      input.Amount,
		MinPurchase: input.MinPurchase,
		Expires:     input.Expires,
		Enabled:     enabled,
		Code:        input.Code,
		AppliesTo:   input.AppliesTo,
	}
	if err := s.repo.Put(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}
