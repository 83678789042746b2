package domain

import (
	"errors"
)

const (
	RoleUser = "user"
	//ROLE_ADMIN  = "admin"
)

var (
	MesaageUserNotAllowed       = "user not allowed"
	MessageFailedProcessRequest = "failed to process request"
	MessageFailedBodyRequest    = "failed to parse request body"
	MessageFailedGetToken       = "failed to get token"
	MessageFailedTokenInvalid   = "failed to token invalid"
	MessageSuccessPing          = "pong"

	ErrParseUUID      = errors.New("failed to parse UUID")
	ErrUserNotAllowed = errors.New("user not allowed")
	ErrTokenNotFound  = errors.New("failed to token not found")
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenInvalid   = errors.New("token invalid")
)

// errorCodes gives every domain error a stable identifier for API clients.
var errorCodes = map[error]string{
	ErrParseUUID:      "invalid_id",
	ErrUserNotAllowed: "user_not_allowed",
	ErrTokenNotFound:  "token_not_found",
	ErrTokenExpired:   "token_expired",
	ErrTokenInvalid:   "token_invalid",

	ErrIngredientNotFound:    "not_found",
	ErrInvalidAmount:         "invalid_amount",
	ErrInsufficientStock:     "insufficient_stock",
	ErrInvalidCost:           "invalid_cost",
	ErrInvalidExpirationDate: "invalid_expiration_date",
	ErrInvalidThreshold:      "invalid_threshold",
	ErrInvalidQuantity:       "invalid_quantity",
	ErrImageStorageDisabled:  "storage_disabled",

	ErrRecipeNotFound:          "not_found",
	ErrInvalidRecipeIngredient: "invalid_recipe_ingredient",
	ErrInvalidServings:         "invalid_servings",
	ErrInvalidScale:            "invalid_scale",

	ErrEmailAlreadyExists:    "email_exists",
	ErrUsernameAlreadyExists: "username_exists",
	ErrInvalidCredentials:    "invalid_credentials",
	ErrUserNotFound:          "not_found",
}

// ErrorCode returns the machine code of the first domain error wrapped by err.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	for target, code := range errorCodes {
		if errors.Is(err, target) {
			return code
		}
	}
	return "internal_error"
}

// IsNotFound reports whether err means the record is absent or not owned by the caller.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrIngredientNotFound) ||
		errors.Is(err, ErrRecipeNotFound) ||
		errors.Is(err, ErrUserNotFound)
}
