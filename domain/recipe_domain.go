package domain

import (
	"errors"
	"time"

	"kitchen-ledger/pkg/costing"
)

var (
	MessageSuccessGetRecipes      = "success get recipes"
	MessageSuccessGetRecipeDetail = "success get recipe detail"
	MessageSuccessSaveRecipe      = "recipe saved successfully"
	MessageSuccessUpdateRecipe    = "recipe updated successfully"
	MessageSuccessDeleteRecipe    = "recipe deleted successfully"
	MessageSuccessBakeRecipe      = "recipe baked successfully"

	MessageFailedGetRecipes      = "failed to get recipes"
	MessageFailedGetRecipeDetail = "failed to get recipe detail"
	MessageFailedSaveRecipe      = "failed to save recipe"
	MessageFailedUpdateRecipe    = "failed to update recipe"
	MessageFailedDeleteRecipe    = "failed to delete recipe"
	MessageFailedBakeRecipe      = "failed to bake recipe"

	ErrRecipeNotFound          = errors.New("recipe not found")
	ErrInvalidRecipeIngredient = errors.New("recipe references an unknown ingredient")
	ErrInvalidServings         = errors.New("servings must not be negative")
	ErrInvalidScale            = errors.New("scale must be a positive number")
)

type (
	RecipeIngredientRequest struct {
		Ingredient string  `json:"ingredient" validate:"required,uuid"`
		Amount     float64 `json:"amount" validate:"gt=0"`
		Unit       string  `json:"unit" validate:"required,max=20"`
	}

	CreateRecipeRequest struct {
		Name        string                    `json:"name" validate:"required,max=100"`
		Description string                    `json:"description"`
		Servings    *int                      `json:"servings" validate:"required,min=0"`
		Ingredients []RecipeIngredientRequest `json:"ingredients" validate:"dive"`
	}

	// UpdateRecipeRequest replaces the usage lines only when Ingredients is present.
	UpdateRecipeRequest struct {
		Name        *string                    `json:"name" validate:"omitempty,min=1,max=100"`
		Description *string                    `json:"description"`
		Servings    *int                       `json:"servings" validate:"omitempty,min=0"`
		Ingredients *[]RecipeIngredientRequest `json:"ingredients" validate:"omitempty,dive"`
	}

	RecipeIngredientResponse struct {
		ID             string  `json:"id"`
		Ingredient     string  `json:"ingredient"`
		IngredientName string  `json:"ingredient_name"`
		Amount         float64 `json:"amount"`
		Unit           string  `json:"unit"`
	}

	Recipe struct {
		ID          string                     `json:"id"`
		Name        string                     `json:"name"`
		Description string                     `json:"description"`
		Servings    int                        `json:"servings"`
		CreatedAt   time.Time                  `json:"created_at"`
		Ingredients []RecipeIngredientResponse `json:"ingredients"`
	}

	RecipeDetail struct {
		Recipe
		TotalCost      float64                  `json:"total_cost"`
		CostPerServing float64                  `json:"cost_per_serving"`
		Warnings       []string                 `json:"warnings,omitempty"`
		SuggestedPrice *costing.PriceSuggestion `json:"suggested_price,omitempty"`
	}

	BakeRecipeRequest struct {
		Scale interface{} `json:"scale"`
	}

	BakedIngredient struct {
		ID          string  `json:"id"`
		Name        string  `json:"name"`
		Used        float64 `json:"used"`
		NewQuantity float64 `json:"new_quantity"`
	}

	BakeRecipeResponse struct {
		RecipeID    string            `json:"recipe_id"`
		Scale       float64           `json:"scale"`
		Ingredients []BakedIngredient `json:"ingredients"`
	}
)
