package address

import (
	"context"
	"time"

	"github.com/go-shop-api/internal/domain"
	"github.com/go-shop-api/internal/pkg/id"
)

// Service manages a user's own delivery addresses. Lookups by id go through
// account.Service.GetDeliveryAddress.
type Service interface {
	Create(ctx context.Context, userID string, input domain.DeliveryAddressInput) (*domain.DeliveryAddress, error)
	List(ctx context.Context, userID string) ([]domain.DeliveryAddress, error)
}

type addressStore interface {
	Put(ctx context.Context, a *domain.DeliveryAddress) error
	ListByUser(ctx context.Context, userID string) ([]domain.DeliveryAddress, error)
}

type service struct {
	repo addressStore
}

func NewService(repo addressStore) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, userID string, input domain.DeliveryAddressInput) (*domain.DeliveryAddress, error) {
	a := &domain.DeliveryAddress{
		AddressID:  id.New(),
		UserID:     userID,
		FullName:   input.FullName,
		Phone:      input.Phone,
		Country:    input.Country,
		City:       input.City,
		Street:     input.Street,
		PostalCode: input.PostalCode,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.repo.Put(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *service) List(ctx context.Context, userID string) ([]domain.DeliveryAddress, error) {
	return s.repo.ListByUser(ctx, userID)
}
