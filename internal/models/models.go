package models

import (
	"time"
)

type Credentials struct {
	UserID       int64
	PasswordHash string
}

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// AuthRequest is the body accepted by the signup and login endpoints.
type AuthRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}
