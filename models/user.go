package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User represents a pool participant
type User struct {
	UID            string    `json:"uid" bson:"_id"`
	Email          string    `json:"email" bson:"email"`
	DisplayName    string    `json:"displayName" bson:"displayName"`
	Password       string    `json:"-" bson:"password"` // Never serialize password in JSON
	EliminatedWeek int       `json:"eliminatedWeek" bson:"eliminatedWeek"`
	CreatedAt      time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt" bson:"updatedAt"`
}

// SignupRequest represents signup form data
type SignupRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	DisplayName string `json:"displayName" validate:"max=64"`
}

// LoginRequest represents login form data
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse represents the response after successful authentication
type AuthResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// IsActive reports whether the user is still alive in the pool
func (u *User) IsActive() bool {
	return u.EliminatedWeek == 0
}

// Name returns the display name, falling back to email
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Email
}

// HashPassword hashes the user's password using bcrypt
func (u *User) HashPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// CheckPassword verifies the provided password against the stored hash
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// ToSafeUser returns a copy of the user without sensitive fields
func (u *User) ToSafeUser() User {
	return User{
		UID:            u.UID,
		Email:          u.Email,
		DisplayName:    u.DisplayName,
		EliminatedWeek: u.EliminatedWeek,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}
