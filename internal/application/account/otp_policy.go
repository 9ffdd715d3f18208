package account

import (
	"fmt"
	"time"

	"github.com/go-shop-api/internal/domain"
)

// OTPPolicy decides whether a stored code that matched may still be consumed.
type OTPPolicy interface {
	Check(u *domain.User, now time.Time) error
}

// AnyAge accepts a matching code regardless of when it was issued.
type AnyAge struct{}

func (AnyAge) Check(*domain.User, time.Time) error { return nil }

// ExpireAfter rejects codes issued more than TTL ago. Codes with no issue
// time are treated as expired.
type ExpireAfter struct {
	TTL time.Duration
}

func (p ExpireAfter) Check(u *domain.User, now time.Time) error {
	if u.OTPIssuedAt == nil || now.Sub(*u.OTPIssuedAt) > p.TTL {
		return fmt.Errorf("code expired: %w", domain.ErrIncorrectVerificationCode)
	}
	return nil
}

// PolicyFor returns ExpireAfter for a positive ttl and AnyAge otherwise.
func PolicyFor(ttl time.Duration) OTPPolicy {
	if ttl > 0 {
		return ExpireAfter{TTL: ttl}
	}
	return AnyAge{}
}
