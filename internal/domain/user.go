package domain

import "time"

// User is the stored account record. PasswordHash and OTP never leave the
// service boundary; handlers serialize PublicUser instead.
type User struct {
	UserID       string     `json:"id" dynamodbav:"user_id"`
	Username     string     `json:"username" dynamodbav:"username"`
	Email        string     `json:"email" dynamodbav:"email"`
	Phone        *string    `json:"phone" dynamodbav:"phone"`
	FirstName    string     `json:"first_name" dynamodbav:"first_name"`
	LastName     string     `json:"last_name" dynamodbav:"last_name"`
	PasswordHash string     `json:"-" dynamodbav:"password_hash"`
	IsActive     bool       `json:"is_active" dynamodbav:"is_active"`
	IsVerified   bool       `json:"is_verified" dynamodbav:"is_verified"`
	IsSuperuser  bool       `json:"is_superuser" dynamodbav:"is_superuser"`
	OTP          *string    `json:"-" dynamodbav:"otp"`
	OTPIssuedAt  *time.Time `json:"-" dynamodbav:"otp_issued_at"`
	CreatedAt    time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt    time.Time  `json:"updated" dynamodbav:"updated_at"`
}

// PublicUser is the client-facing view of a User.
type PublicUser struct {
	UserID      string    `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	Phone       *string   `json:"phone,omitempty"`
	FirstName   string    `json:"first_name,omitempty"`
	LastName    string    `json:"last_name,omitempty"`
	IsActive    bool      `json:"is_active"`
	IsVerified  bool      `json:"is_verified"`
	IsSuperuser bool      `json:"is_superuser"`
	CreatedAt   time.Time `json:"created"`
}

func (u *User) Public() *PublicUser {
	if u == nil {
		return nil
	}
	return &PublicUser{
		UserID:      u.UserID,
		Username:    u.Username,
		Email:       u.Email,
		Phone:       u.Phone,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		IsActive:    u.IsActive,
		IsVerified:  u.IsVerified,
		IsSuperuser: u.IsSuperuser,
		CreatedAt:   u.CreatedAt,
	}
}

type CreateUserRequest struct {
	Username  string  `json:"username" validate:"required,min=3,max=64"`
	Password  string  `json:"password" validate:"required,min=8,max=72"`
	Email     string  `json:"email" validate:"required,email"`
	Phone     *string `json:"phone" validate:"omitempty,e164"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
}

type VerifyUserRequest struct {
	Username string `json:"username" validate:"required"`
	OTP      string `json:"otp" validate:"required"`
}

type RestoreUserRequest struct {
	Username string `json:"username" validate:"required"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}
