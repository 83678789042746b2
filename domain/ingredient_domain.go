package domain

import (
	"errors"
	"mime/multipart"
	"time"

	"github.com/shopspring/decimal"
)

var (
	MessageSuccessAddIngredient    = "ingredient added successfully"
	MessageSuccessUpdateIngredient = "ingredient updated successfully"
	MessageSuccessDeleteIngredient = "ingredient deleted successfully"
	MessageSuccessGetIngredients   = "ingredients retrieved successfully"
	MessageSuccessAddStock         = "stock added successfully"
	MessageSuccessDeductStock      = "stock deducted successfully"
	MessageSuccessUploadImage      = "ingredient image uploaded successfully"

	MessageFailedAddIngredient    = "failed to add ingredient"
	MessageFailedUpdateIngredient = "failed to update ingredient"
	MessageFailedDeleteIngredient = "failed to delete ingredient"
	MessageFailedGetIngredients   = "failed to retrieve ingredients"
	MessageFailedAddStock         = "failed to add stock"
	MessageFailedDeductStock      = "failed to deduct stock"
	MessageFailedUploadImage      = "failed to upload ingredient image"

	ErrIngredientNotFound    = errors.New("ingredient not found")
	ErrInvalidAmount         = errors.New("amount must be a positive number")
	ErrInsufficientStock     = errors.New("insufficient stock")
	ErrInvalidCost           = errors.New("cost must be at least 0 and below 1000000")
	ErrInvalidExpirationDate = errors.New("invalid expiration date")
	ErrInvalidThreshold      = errors.New("low stock threshold must not be negative")
	ErrInvalidQuantity       = errors.New("quantity must not be negative")
	ErrImageStorageDisabled  = errors.New("image storage is not configured")
)

const DateLayout = "2006-01-02"

type (
	CreateIngredientRequest struct {
		Name              string           `json:"name" validate:"required,max=100"`
		Quantity          *float64         `json:"quantity" validate:"required"`
		Unit              string           `json:"unit" validate:"required,max=20"`
		Cost              *decimal.Decimal `json:"cost" validate:"required"`
		ExpirationDate    string           `json:"expiration_date" validate:"omitempty"`
		LowStockThreshold float64          `json:"low_stock_threshold"`
	}

	// UpdateIngredientRequest never carries quantity; stock moves only through adjustments.
	UpdateIngredientRequest struct {
		Name              *string          `json:"name" validate:"omitempty,min=1,max=100"`
		Unit              *string          `json:"unit" validate:"omitempty,max=20"`
		Cost              *decimal.Decimal `json:"cost"`
		ExpirationDate    *string          `json:"expiration_date"`
		LowStockThreshold *float64         `json:"low_stock_threshold"`
	}

	// StockAdjustmentRequest keeps amount loosely typed so that both "5" and 5 parse.
	StockAdjustmentRequest struct {
		Amount interface{} `json:"amount"`
	}

	StockAdjustmentResponse struct {
		ID          string  `json:"id"`
		Name        string  `json:"name"`
		NewQuantity float64 `json:"new_quantity"`
	}

	UploadIngredientImageRequest struct {
		Image *multipart.FileHeader `json:"image" form:"image" validate:"required"`
	}

	IngredientResponse struct {
		ID                string     `json:"id"`
		Name              string     `json:"name"`
		Quantity          float64    `json:"quantity"`
		Unit              string     `json:"unit"`
		Cost              float64    `json:"cost"`
		ExpirationDate    *string    `json:"expiration_date"`
		LowStockThreshold float64    `json:"low_stock_threshold"`
		IsLowStock        bool       `json:"is_low_stock"`
		ImageURL          string     `json:"image_url,omitempty"`
		UpdatedAt         *time.Time `json:"updated_at,omitempty"`
	}

	IngredientFilter struct {
		LowStockOnly bool
		Page         int
		Limit        int
	}
)
