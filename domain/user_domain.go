package domain

import (
	"errors"
	"time"
)

var (
	MessageSuccessRegister = "user registered successfully"
	MessageSuccessLogin    = "Login successful"
	MessageSuccessGetMe    = "success get user"

	MessageFailedRegister = "failed to register user"
	MessageFailedLogin    = "failed to login"
	MessageFailedGetMe    = "failed to get user"

	ErrEmailAlreadyExists    = errors.New("A user with this email already exists.")
	ErrUsernameAlreadyExists = errors.New("a user with this username already exists")
	ErrInvalidCredentials    = errors.New("Invalid Credentials")
	ErrUserNotFound          = errors.New("user not found")
)

type (
	RegisterRequest struct {
		Username string `json:"username" validate:"required,max=150"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=8"`
	}

	LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Message  string `json:"message"`
		Username string `json:"username"`
		Token    string `json:"token"`
	}

	UserResponse struct {
		ID        string    `json:"id"`
		Username  string    `json:"username"`
		Email     string    `json:"email"`
		CreatedAt time.Time `json:"created_at,omitempty"`
	}
)
