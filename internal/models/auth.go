package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims are the custom claims carried in access tokens.
type JWTClaims struct {
	UserID int64    `json:"uid"`
	Role   UserRole `json:"role"`
	jwt.RegisteredClaims
}

// LoginRequest is the credential payload. Login accepts either the numeric
// user id or the email address as identifier.
type LoginRequest struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued token and basic account info.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	IssuedAt    time.Time `json:"issued_at"`
	User        UserInfo  `json:"user"`
}

// UserInfo is the public slice of a user returned after login.
type UserInfo struct {
	ID      int64    `json:"user_id"`
	Name    string   `json:"name"`
	Email   string   `json:"email"`
	Role    UserRole `json:"role"`
	Program *Program `json:"program,omitempty"`
}
