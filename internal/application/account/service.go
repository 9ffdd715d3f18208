package account

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-shop-api/internal/domain"
	jwtinfra "github.com/go-shop-api/internal/infrastructure/jwt"
	"github.com/go-shop-api/internal/pkg/id"
)

// Service is the account verification and identity core. It validates and
// transitions user records; inserting a freshly registered record is left to
// the caller.
type Service interface {
	Authenticate(ctx context.Context, username, password string) (*domain.User, bool, error)
	ResolveCurrentIdentity(ctx context.Context, token string) (*domain.User, error)
	Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error)
	InitiateRestore(ctx context.Context, username string) (*domain.User, error)
	CompleteVerification(ctx context.Context, username, otp string) (*domain.PublicUser, error)
	CompleteRestore(ctx context.Context, username, otp string) (*domain.PublicUser, error)
	GetDeliveryAddress(ctx context.Context, addressID string) (*domain.DeliveryAddress, error)
}

type userStore interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	DeleteUnverified(ctx context.Context, u *domain.User) error
	// ConsumeOTP persists u, whose code has been cleared, only while the
	// stored code still equals code. Returns ErrConflict otherwise.
	ConsumeOTP(ctx context.Context, u *domain.User, code string) error
}

type addressStore interface {
	Get(ctx context.Context, addressID string) (*domain.DeliveryAddress, error)
}

type passwordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

type tokenVerifier interface {
	Verify(token string) (*jwtinfra.Claims, error)
}

type service struct {
	users     userStore
	addresses addressStore
	hasher    passwordHasher
	tokens    tokenVerifier
	otpPolicy OTPPolicy
	now       func() time.Time
}

type ServiceDeps struct {
	UserRepo    userStore
	AddressRepo addressStore
	Hasher      passwordHasher
	Tokens      tokenVerifier
	// OTPPolicy defaults to AnyAge when nil.
	OTPPolicy OTPPolicy
}

func NewService(deps ServiceDeps) Service {
	policy := deps.OTPPolicy
	if policy == nil {
		policy = AnyAge{}
	}
	return &service{
		users:     deps.UserRepo,
		addresses: deps.AddressRepo,
		hasher:    deps.Hasher,
		tokens:    deps.Tokens,
		otpPolicy: policy,
		now:       time.Now,
	}
}

// Authenticate reports false, with a nil error, for an unknown username or a
// wrong password. Only store failures surface as errors.
func (s *service) Authenticate(ctx context.Context, username, password string) (*domain.User, bool, error) {
	u, err := s.lookup(ctx, username)
	if err != nil {
		return nil, false, err
	}
	if u == nil || !s.hasher.Verify(password, u.PasswordHash) {
		return nil, false, nil
	}
	return u, true, nil
}

func (s *service) ResolveCurrentIdentity(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("decode token: %w", domain.ErrInvalidCredentials)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token has no subject: %w", domain.ErrInvalidCredentials)
	}
	u, err := s.lookup(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("token subject %q: %w", claims.Subject, domain.ErrInvalidCredentials)
	}
	return u, nil
}

// RequireActive passes u through only when the account is active.
func RequireActive(u *domain.User) (*domain.User, error) {
	if !u.IsActive {
		return nil, domain.ErrInactiveUser
	}
	return u, nil
}

// RequireAdmin passes u through only when the account is a superuser.
func RequireAdmin(u *domain.User) (*domain.User, error) {
	if !u.IsSuperuser {
		return nil, domain.ErrNotAdmin
	}
	return u, nil
}

func (s *service) Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	existing, err := s.lookup(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.IsVerified {
			return nil, fmt.Errorf("register %q: %w", req.Username, domain.ErrUserAlreadyExists)
		}
		// A concurrent registration may have reclaimed it first; the
		// insert that follows settles who owns the username.
		if err := s.users.DeleteUnverified(ctx, existing); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("reclaim unverified user %q: %w", req.Username, err)
		}
		slog.Info("reclaimed unverified username", "username", req.Username, "stale_user_id", existing.UserID)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	return &domain.User{
		UserID:       id.New(),
		Username:     req.Username,
		Email:        req.Email,
		Phone:        req.Phone,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (s *service) InitiateRestore(ctx context.Context, username string) (*domain.User, error) {
	return s.mustLookup(ctx, username)
}

func (s *service) CompleteVerification(ctx context.Context, username, otp string) (*domain.PublicUser, error) {
	u, err := s.consumeOTP(ctx, username, otp)
	if err != nil {
		return nil, err
	}
	u.IsVerified = true
	u.IsActive = true
	if err := s.persistConsumed(ctx, u, otp); err != nil {
		return nil, err
	}
	return u.Public(), nil
}

func (s *service) CompleteRestore(ctx context.Context, username, otp string) (*domain.PublicUser, error) {
	u, err := s.consumeOTP(ctx, username, otp)
	if err != nil {
		return nil, err
	}
	if err := s.persistConsumed(ctx, u, otp); err != nil {
		return nil, err
	}
	return u.Public(), nil
}

func (s *service) GetDeliveryAddress(ctx context.Context, addressID string) (*domain.DeliveryAddress, error) {
	a, err := s.addresses.Get(ctx, addressID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("address %q: %w", addressID, domain.ErrAddressNotExist)
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// consumeOTP loads the user, checks the submitted code and clears it on the
// in-memory record. The caller persists.
func (s *service) consumeOTP(ctx context.Context, username, otp string) (*domain.User, error) {
	u, err := s.mustLookup(ctx, username)
	if err != nil {
		return nil, err
	}
	if u.OTP == nil || subtle.ConstantTimeCompare([]byte(*u.OTP), []byte(otp)) != 1 {
		return nil, domain.ErrIncorrectVerificationCode
	}
	if err := s.otpPolicy.Check(u, s.now()); err != nil {
		return nil, err
	}
	u.OTP = nil
	u.OTPIssuedAt = nil
	return u, nil
}

// persistConsumed writes u back. A code that was consumed or reissued by a
// concurrent request since the read no longer counts as a match.
func (s *service) persistConsumed(ctx context.Context, u *domain.User, otp string) error {
	err := s.users.ConsumeOTP(ctx, u, otp)
	if errors.Is(err, domain.ErrConflict) {
		return fmt.Errorf("code already used: %w", domain.ErrIncorrectVerificationCode)
	}
	if err != nil {
		return fmt.Errorf("persist user %q: %w", u.Username, err)
	}
	return nil
}

// lookup returns (nil, nil) when username is absent.
func (s *service) lookup(ctx context.Context, username string) (*domain.User, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user %q: %w", username, err)
	}
	return u, nil
}

func (s *service) mustLookup(ctx context.Context, username string) (*domain.User, error) {
	u, err := s.lookup(ctx, username)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("user %q: %w", username, domain.ErrUserNotExist)
	}
	return u, nil
}
