package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"kitchen-ledger/domain"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var badRequestErrors = []error{
	domain.ErrParseUUID,
	domain.ErrInvalidAmount,
	domain.ErrInsufficientStock,
	domain.ErrInvalidCost,
	domain.ErrInvalidExpirationDate,
	domain.ErrInvalidThreshold,
	domain.ErrInvalidQuantity,
	domain.ErrInvalidRecipeIngredient,
	domain.ErrInvalidServings,
	domain.ErrInvalidScale,
	domain.ErrEmailAlreadyExists,
	domain.ErrUsernameAlreadyExists,
}

var unauthorizedErrors = []error{
	domain.ErrInvalidCredentials,
	domain.ErrTokenNotFound,
	domain.ErrTokenExpired,
	domain.ErrTokenInvalid,
}

func statusFromError(err error) int {
	if domain.IsNotFound(err) {
		return fiber.StatusNotFound
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		return fiber.StatusBadRequest
	}
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return fiber.StatusBadRequest
		}
	}
	for _, target := range unauthorizedErrors {
		if errors.Is(err, target) {
			return fiber.StatusUnauthorized
		}
	}
	if errors.Is(err, domain.ErrImageStorageDisabled) {
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

// numberText renders a loosely typed JSON value so the services can parse it themselves.
func numberText(v interface{}) string {
	switch n := v.(type) {
	case nil:
		return ""
	case string:
		return n
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case json.Number:
		return n.String()
	default:
		return fmt.Sprint(n)
	}
}

func userID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}

func pagination(c *fiber.Ctx) (int, int) {
	page, err := strconv.Atoi(c.Query("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	limit, err := strconv.Atoi(c.Query("limit", "20"))
	if err != nil || limit < 1 {
		limit = 20
	}
	return page, limit
}

func paginated(items interface{}, page, limit int, count int64) fiber.Map {
	return fiber.Map{
		"items": items,
		"pagination": fiber.Map{
			"page":        page,
			"limit":       limit,
			"total":       count,
			"total_pages": (count + int64(limit) - 1) / int64(limit),
		},
	}
}
