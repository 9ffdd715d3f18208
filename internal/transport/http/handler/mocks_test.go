package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-shop-api/internal/application/auth"
	"github.com/go-shop-api/internal/domain"
	"github.com/go-shop-api/internal/transport/http/middleware"
	"github.com/stretchr/testify/mock"
)

type mockAuthSvc struct{ mock.Mock }

func (m *mockAuthSvc) token(args mock.Arguments) (*auth.TokenResult, error) {
	if res, _ := args.Get(0).(*auth.TokenResult); res != nil {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAuthSvc) Login(ctx context.Context, req domain.LoginRequest) (*auth.TokenResult, error) {
	return m.token(m.Called(ctx, req))
}

func (m *mockAuthSvc) SignUp(ctx context.Context, req domain.CreateUserRequest) (*domain.PublicUser, error) {
	args := m.Called(ctx, req)
	if u, _ := args.Get(0).(*domain.PublicUser); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAuthSvc) RequestRestore(ctx context.Context, req domain.RestoreUserRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *mockAuthSvc) Verify(ctx context.Context, req domain.VerifyUserRequest) (*auth.TokenResult, error) {
	return m.token(m.Called(ctx, req))
}

func (m *mockAuthSvc) RestoreVerify(ctx context.Context, req domain.VerifyUserRequest) (*auth.TokenResult, error) {
	return m.token(m.Called(ctx, req))
}

func (m *mockAuthSvc) ChangePassword(ctx context.Context, u *domain.User, req domain.ChangePasswordRequest) error {
	return m.Called(ctx, u, req).Error(0)
}

type mockAccountSvc struct{ mock.Mock }

func (m *mockAccountSvc) Authenticate(ctx context.Context, username, password string) (*domain.User, bool, error) {
	args := m.Called(ctx, username, password)
	u, _ := args.Get(0).(*domain.User)
	return u, args.Bool(1), args.Error(2)
}

func (m *mockAccountSvc) ResolveCurrentIdentity(ctx context.Context, token string) (*domain.User, error) {
	args := m.Called(ctx, token)
	u, _ := args.Get(0).(*domain.User)
	return u, args.Error(1)
}

func (m *mockAccountSvc) Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	args := m.Called(ctx, req)
	u, _ := args.Get(0).(*domain.User)
	return u, args.Error(1)
}

func (m *mockAccountSvc) InitiateRestore(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	u, _ := args.Get(0).(*domain.User)
	return u, args.Error(1)
}

func (m *mockAccountSvc) CompleteVerification(ctx context.Context, username, otp string) (*domain.PublicUser, error) {
	args := m.Called(ctx, username, otp)
	u, _ := args.Get(0).(*domain.PublicUser)
	return u, args.Error(1)
}

func (m *mockAccountSvc) CompleteRestore(ctx context.Context, username, otp string) (*domain.PublicUser, error) {
	args := m.Called(ctx, username, otp)
	u, _ := args.Get(0).(*domain.PublicUser)
	return u, args.Error(1)
}

func (m *mockAccountSvc) GetDeliveryAddress(ctx context.Context, addressID string) (*domain.DeliveryAddress, error) {
	args := m.Called(ctx, addressID)
	a, _ := args.Get(0).(*domain.DeliveryAddress)
	return a, args.Error(1)
}

type mockAddressSvc struct{ mock.Mock }

func (m *mockAddressSvc) Create(ctx context.Context, userID string, input domain.DeliveryAddressInput) (*domain.DeliveryAddress, error) {
	args := m.Called(ctx, userID, input)
	a, _ := args.Get(0).(*domain.DeliveryAddress)
	return a, args.Error(1)
}

func (m *mockAddressSvc) List(ctx context.Context, userID string) ([]domain.DeliveryAddress, error) {
	args := m.Called(ctx, userID)
	list, _ := args.Get(0).([]domain.DeliveryAddress)
	return list, args.Error(1)
}

type mockCouponSvc struct{ mock.Mock }

func (m *mockCouponSvc) List(ctx context.Context) ([]domain.Coupon, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]domain.Coupon)
	return list, args.Error(1)
}

func (m *mockCouponSvc) Get(ctx context.Context, code string) (*domain.Coupon, error) {
	args := m.Called(ctx, code)
	c, _ := args.Get(0).(*domain.Coupon)
	return c, args.Error(1)
}

func (m *mockCouponSvc) Create(ctx context.Context, input domain.CouponInput) (*domain.Coupon, error) {
	args := m.Called(ctx, input)
	c, _ := args.Get(0).(*domain.Coupon)
	return c, args.Error(1)
}

// withURLParam injects a chi URL param into the request context.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// asUser puts u in the request context as if the auth middleware had run.
func asUser(r *http.Request, u *domain.User) *http.Request {
	return r.WithContext(middleware.WithUser(r.Context(), u))
}
