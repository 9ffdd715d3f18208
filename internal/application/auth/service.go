package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-shop-api/internal/application/account"
	"github.com/go-shop-api/internal/domain"
	"github.com/go-shop-api/internal/infrastructure/smtp"
	"github.com/go-shop-api/internal/infrastructure/sns"
	"github.com/go-shop-api/internal/pkg/otp"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldOTP          = "otp"
	fieldOTPIssuedAt  = "otp_issued_at"
	fieldPasswordHash = "password_hash"
)

// TokenResult is returned by every flow that ends in a signed-in user.
type TokenResult struct {
	AccessToken string
	TokenType   string
	User        *domain.PublicUser
}

// Service runs the account flows on top of the account core: it issues and
// delivers codes, persists new records and signs access tokens.
type Service interface {
	Login(ctx context.Context, req domain.LoginRequest) (*TokenResult, error)
	SignUp(ctx context.Context, req domain.CreateUserRequest) (*domain.PublicUser, error)
	RequestRestore(ctx context.Context, req domain.RestoreUserRequest) error
	Verify(ctx context.Context, req domain.VerifyUserRequest) (*TokenResult, error)
	RestoreVerify(ctx context.Context, req domain.VerifyUserRequest) (*TokenResult, error)
	ChangePassword(ctx context.Context, u *domain.User, req domain.ChangePasswordRequest) error
}

type userWriter interface {
	Insert(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type passwordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

type jwtSigner interface {
	Sign(username string) (string, error)
}

type service struct {
	accounts  account.Service
	users     userWriter
	hasher    passwordHasher
	mailer    smtp.Mailer
	smsSender sns.SMSSender
	signer    jwtSigner
	otpLength int
}

type ServiceDeps struct {
	Accounts account.Service
	UserRepo userWriter
	Hasher   passwordHasher
	Mailer   smtp.Mailer
	// SMSSender is optional; codes go by email only when nil.
	SMSSender   sns.SMSSender
	JWTProvider jwtSigner
	OTPLength   int
}

func NewService(deps ServiceDeps) Service {
	return &service{
		accounts:  deps.Accounts,
		users:     deps.UserRepo,
		hasher:    deps.Hasher,
		mailer:    deps.Mailer,
		smsSender: deps.SMSSender,
		signer:    deps.JWTProvider,
		otpLength: deps.OTPLength,
	}
}

func (s *service) Login(ctx context.Context, req domain.LoginRequest) (*TokenResult, error) {
	u, ok, err := s.accounts.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("incorrect username or password: %w", domain.ErrInvalidCredentials)
	}
	if _, err := account.RequireActive(u); err != nil {
		return nil, err
	}
	return s.issueToken(u.Public())
}

func (s *service) SignUp(ctx context.Context, req domain.CreateUserRequest) (*domain.PublicUser, error) {
	u, err := s.accounts.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	code, err := s.assignCode(u)
	if err != nil {
		return nil, err
	}
	if err := s.users.Insert(ctx, u); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("register %q: %w", u.Username, domain.ErrUserAlreadyExists)
		}
		return nil, err
	}
	if err := s.deliver(ctx, u, "Confirm your account", code); err != nil {
		return nil, err
	}
	return u.Public(), nil
}

func (s *service) RequestRestore(ctx context.Context, req domain.RestoreUserRequest) error {
	u, err := s.accounts.InitiateRestore(ctx, req.Username)
	if err != nil {
		return err
	}
	code, err := s.assignCode(u)
	if err != nil {
		return err
	}
	if err := s.users.Update(ctx, u.UserID, map[string]interface{}{
		fieldOTP:         code,
		fieldOTPIssuedAt: *u.OTPIssuedAt,
	}); err != nil {
		return fmt.Errorf("store restore code: %w", err)
	}
	return s.deliver(ctx, u, "Restore access to your account", code)
}

func (s *service) Verify(ctx context.Context, req domain.VerifyUserRequest) (*TokenResult, error) {
	pub, err := s.accounts.CompleteVerification(ctx, req.Username, req.OTP)
	if err != nil {
		return nil, err
	}
	return s.issueToken(pub)
}

func (s *service) RestoreVerify(ctx context.Context, req domain.VerifyUserRequest) (*TokenResult, error) {
	pub, err := s.accounts.CompleteRestore(ctx, req.Username, req.OTP)
	if err != nil {
		return nil, err
	}
	return s.issueToken(pub)
}

func (s *service) ChangePassword(ctx context.Context, u *domain.User, req domain.ChangePasswordRequest) error {
	if !s.hasher.Verify(req.CurrentPassword, u.PasswordHash) {
		return fmt.Errorf("current password is incorrect: %w", domain.ErrUnauthorized)
	}
	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return err
	}
	return s.users.Update(ctx, u.UserID, map[string]interface{}{fieldPasswordHash: hash})
}

func (s *service) assignCode(u *domain.User) (string, error) {
	code, err := otp.New(s.otpLength)
	if err != nil {
		return "", err
	}
	now := time.Now().UTC()
	u.OTP = &code
	u.OTPIssuedAt = &now
	return code, nil
}

// deliver sends code by email, and by SMS when the user has a phone and a
// sender is configured. An SMS failure is logged; the email result decides.
func (s *service) deliver(ctx context.Context, u *domain.User, subject, code string) error {
	msg := "Your verification code: " + code
	if s.smsSender != nil && u.Phone != nil {
		if err := s.smsSender.SendSMS(ctx, *u.Phone, msg); err != nil {
			slog.Warn("failed to send verification sms", "user_id", u.UserID, "err", err)
		}
	}
	if err := s.mailer.SendEmail(u.Email, subject, msg); err != nil {
		return fmt.Errorf("deliver verification code: %w", err)
	}
	return nil
}

func (s *service) issueToken(u *domain.PublicUser) (*TokenResult, error) {
	token, err := s.signer.Sign(u.Username)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	return &TokenResult{AccessToken: token, TokenType: "bearer", User: u}, nil
}
