package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-shop-api/internal/config"
	"github.com/go-shop-api/internal/domain"
	jwtinfra "github.com/go-shop-api/internal/infrastructure/jwt"
	"github.com/go-shop-api/internal/pkg/password"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// memUsers is an in-memory UserRepository keyed by username.
type memUsers struct {
	mu   sync.Mutex
	byID map[string]*domain.User
}

func (m *memUsers) find(username string) *domain.User {
	for _, u := range m.byID {
		if u.Username == username {
			return u
		}
	}
	return nil
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.find(username)
	if u == nil {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) Insert(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.find(u.Username) != nil {
		return domain.ErrConflict
	}
	cp := *u
	m.byID[u.UserID] = &cp
	return nil
}

func (m *memUsers) DeleteUnverified(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.byID[u.UserID]
	if !ok || cur.IsVerified {
		return domain.ErrNotFound
	}
	delete(m.byID, u.UserID)
	return nil
}

func (m *memUsers) ConsumeOTP(_ context.Context, u *domain.User, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.byID[u.UserID]
	if !ok || cur.OTP == nil || *cur.OTP != code {
		return domain.ErrConflict
	}
	cp := *u
	m.byID[u.UserID] = &cp
	return nil
}

func (m *memUsers) Update(_ context.Context, userID string, updates map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[userID]
	if !ok {
		return domain.ErrNotFound
	}
	for k, v := range updates {
		switch k {
		case "otp":
			s := v.(string)
			u.OTP = &s
		case "otp_issued_at":
			ts := v.(time.Time)
			u.OTPIssuedAt = &ts
		case "password_hash":
			u.PasswordHash = v.(string)
		}
	}
	return nil
}

type memAddresses struct{}

func (memAddresses) Put(context.Context, *domain.DeliveryAddress) error { return nil }
func (memAddresses) Get(context.Context, string) (*domain.DeliveryAddress, error) {
	return nil, domain.ErrNotFound
}
func (memAddresses) ListByUser(context.Context, string) ([]domain.DeliveryAddress, error) {
	return nil, nil
}

type memCoupons struct{}

func (memCoupons) Scan(context.Context) ([]domain.Coupon, error) { return []domain.Coupon{}, nil }
func (memCoupons) GetByCode(context.Context, string) (*domain.Coupon, error) {
	return nil, domain.ErrNotFound
}
func (memCoupons) Put(context.Context, *domain.Coupon) error { return nil }

// inbox records the last code mailed to each address.
type inbox struct {
	mu    sync.Mutex
	codes map[string]string
}

func (i *inbox) SendEmail(to, _, body string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.codes[to] = body[strings.LastIndex(body, " ")+1:]
	return nil
}

func (i *inbox) code(to string) string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.codes[to]
}

type testServer struct {
	handler http.Handler
	users   *memUsers
	mail    *inbox
	hasher  *password.Hasher
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWith(t, func(*config.Config) {})
}

func newTestServerWith(t *testing.T, adjust func(*config.Config)) *testServer {
	t.Helper()
	cfg := &config.Config{
		JWTSecretKey:   "test-secret",
		JWTAlgorithm:   "HS256",
		JWTExpiry:      time.Minute,
		OTPLength:      6,
		AllowedOrigins: []string{"*"},
	}
	adjust(cfg)
	provider, err := jwtinfra.NewProvider(cfg)
	require.NoError(t, err)

	ts := &testServer{
		users:  &memUsers{byID: map[string]*domain.User{}},
		mail:   &inbox{codes: map[string]string{}},
		hasher: password.NewHasher(bcrypt.MinCost),
	}
	ts.handler = NewRouter(t.Context(), cfg, &Deps{
		UserRepo:    ts.users,
		AddressRepo: memAddresses{},
		CouponRepo:  memCoupons{},
		Hasher:      ts.hasher,
		Mailer:      ts.mail,
		JWTProvider: provider,
	})
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	return ts.doWith(t, method, path, token, body, nil)
}

func (ts *testServer) doWith(t *testing.T, method, path, token string, body interface{}, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func tokenFrom(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func TestRouter_SignUpVerifyLogin(t *testing.T) {
	ts := newTestServer(t)
	signUp := domain.CreateUserRequest{Username: "alice", Password: "secret123", Email: "alice@example.com"}

	rr := ts.do(t, http.MethodPost, "/v1/users", "", signUp)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	// not active until verified
	rr = ts.do(t, http.MethodPost, "/v1/token", "", domain.LoginRequest{Username: "alice", Password: "secret123"})
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = ts.do(t, http.MethodPost, "/v1/users/verify", "", domain.VerifyUserRequest{Username: "alice", OTP: "x"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	code := ts.mail.code("alice@example.com")
	require.Len(t, code, 6)
	rr = ts.do(t, http.MethodPost, "/v1/users/verify", "", domain.VerifyUserRequest{Username: "alice", OTP: code})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	token := tokenFrom(t, rr)

	rr = ts.do(t, http.MethodGet, "/v1/users/me", token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"is_verified":true`)

	// the code is single-use
	rr = ts.do(t, http.MethodPost, "/v1/users/verify", "", domain.VerifyUserRequest{Username: "alice", OTP: code})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = ts.do(t, http.MethodPost, "/v1/users", "", signUp)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = ts.do(t, http.MethodPost, "/v1/token", "", domain.LoginRequest{Username: "alice", Password: "secret123"})
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRouter_RestoreFlow(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(t, http.MethodPost, "/v1/users/restore", "", domain.RestoreUserRequest{Username: "ghost"})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	hash, err := ts.hasher.Hash("secret123")
	require.NoError(t, err)
	require.NoError(t, ts.users.Insert(context.Background(), &domain.User{
		UserID: "u2", Username: "bob", Email: "bob@example.com", PasswordHash: hash,
		IsActive: true, IsVerified: true,
	}))

	rr = ts.do(t, http.MethodPost, "/v1/users/restore", "", domain.RestoreUserRequest{Username: "bob"})
	require.Equal(t, http.StatusAccepted, rr.Code)

	code := ts.mail.code("bob@example.com")
	rr = ts.do(t, http.MethodPost, "/v1/users/restore/verify", "", domain.VerifyUserRequest{Username: "bob", OTP: code})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	token := tokenFrom(t, rr)

	rr = ts.do(t, http.MethodPut, "/v1/users/me/password", token,
		domain.ChangePasswordRequest{CurrentPassword: "secret123", NewPassword: "brandnew99"})
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = ts.do(t, http.MethodPost, "/v1/token", "", domain.LoginRequest{Username: "bob", Password: "brandnew99"})
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRouter_AuthAndAdminGates(t *testing.T) {
	ts := newTestServer(t)
	for i, admin := range []bool{false, true} {
		hash, err := ts.hasher.Hash("secret123")
		require.NoError(t, err)
		require.NoError(t, ts.users.Insert(context.Background(), &domain.User{
			UserID: fmt.Sprintf("u%d", i), Username: fmt.Sprintf("user%d", i), PasswordHash: hash,
			IsActive: true, IsVerified: true, IsSuperuser: admin,
		}))
	}
	login := func(username string) string {
		rr := ts.do(t, http.MethodPost, "/v1/token", "", domain.LoginRequest{Username: username, Password: "secret123"})
		require.Equal(t, http.StatusOK, rr.Code)
		return tokenFrom(t, rr)
	}

	assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodGet, "/v1/coupons", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodGet, "/v1/coupons", "garbage", nil).Code)
	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodGet, "/v1/coupons", login("user0"), nil).Code)
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/v1/coupons", login("user1"), nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/v1/users/me/addresses/missing", login("user0"), nil).Code)
}

func TestRouter_HealthCheck(t *testing.T) {
	ts := newTestServer(t)
	rr := ts.do(t, http.MethodGet, "/v1/health-check/ping", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "pong")
}

func TestRouter_CodeGuessingLimitedDespiteForwardedFor(t *testing.T) {
	ts := newTestServer(t)
	guess := domain.VerifyUserRequest{Username: "alice", OTP: "000000"}

	limited := 0
	for i := 0; i < 30; i++ {
		h := http.Header{"X-Forwarded-For": {fmt.Sprintf("198.51.100.%d", i)}}
		if ts.doWith(t, http.MethodPost, "/v1/users/verify", "", guess, h).Code == http.StatusTooManyRequests {
			limited++
		}
	}

	assert.Positive(t, limited)
}

func TestRouter_TrustedProxyHeadersSeparateClients(t *testing.T) {
	ts := newTestServerWith(t, func(cfg *config.Config) { cfg.TrustProxyHeaders = true })
	guess := domain.VerifyUserRequest{Username: "alice", OTP: "000000"}

	for i := 0; i < 30; i++ {
		h := http.Header{"X-Forwarded-For": {fmt.Sprintf("198.51.100.%d", i)}}
		rr := ts.doWith(t, http.MethodPost, "/v1/users/verify", "", guess, h)
		assert.NotEqual(t, http.StatusTooManyRequests, rr.Code)
	}
}
