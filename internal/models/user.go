package models

import (
	"time"
)

// User represents a user in the system
type User struct {
	ID           string `bson:"_id,omitempty" json:"id"`
	Name         string `bson:"name" json:"name"`
	Phone        string `bson:"phone" json:"phone"`
	PasswordHash string `bson:"password_hash" json:"-"`
	// ResetTokenHash is the SHA-256 of a pending password reset token.
	ResetTokenHash   string     `bson:"reset_token_hash,omitempty" json:"-"`
	ResetTokenExpiry *time.Time `bson:"reset_token_expiry,omitempty" json:"-"`
	CreatedAt        time.Time  `bson:"created_at" json:"-"`
	UpdatedAt        time.Time  `bson:"updated_at" json:"-"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// RegisterRequest represents a user registration request
type RegisterRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// AuthResponse represents a successful login response
type AuthResponse struct {
	Token string `json:"token"`
}

type ForgotPasswordRequest struct {
	Phone string `json:"phone"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// MessageResponse is the body of informational and error responses.
type MessageResponse struct {
	Message string `json:"message"`
}

// Claims represents JWT claims
type Claims struct {
	UserID string `json:"user_id"`
	Phone  string `json:"phone"`
	Exp    int64  `json:"exp"`
}
