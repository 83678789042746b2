package recipe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"kitchen-ledger/domain"
	"kitchen-ledger/entities"
	"kitchen-ledger/pkg/costing"
	"kitchen-ledger/pkg/ingredient"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type (
	RecipeService interface {
		CreateRecipe(ctx context.Context, req domain.CreateRecipeRequest, userID string) (domain.Recipe, error)
		GetRecipes(ctx context.Context, userID string, page, limit int) ([]domain.Recipe, int64, error)
		GetRecipeDetail(ctx context.Context, recipeID string, margin *string, userID string) (domain.RecipeDetail, error)
		UpdateRecipe(ctx context.Context, recipeID string, req domain.UpdateRecipeRequest, userID string) (domain.Recipe, error)
		DeleteRecipe(ctx context.Context, recipeID string, userID string) error
		BakeRecipe(ctx context.Context, recipeID string, scale string, userID string) (domain.BakeRecipeResponse, error)
	}

	recipeService struct {
		recipeRepository     RecipeRepository
		ingredientRepository ingredient.IngredientRepository
		notifier             ingredient.StockNotifier
	}
)

func NewRecipeService(
	recipeRepository RecipeRepository,
	ingredientRepository ingredient.IngredientRepository,
	notifier ingredient.StockNotifier,
) RecipeService {
	return &recipeService{
		recipeRepository:     recipeRepository,
		ingredientRepository: ingredientRepository,
		notifier:             notifier,
	}
}

func (s *recipeService) CreateRecipe(ctx context.Context, req domain.CreateRecipeRequest, userID string) (domain.Recipe, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.Recipe{}, domain.ErrParseUUID
	}
	if req.Servings == nil || *req.Servings < 0 {
		return domain.Recipe{}, domain.ErrInvalidServings
	}

	lines, err := s.buildLines(ctx, req.Ingredients, userID)
	if err != nil {
		return domain.Recipe{}, err
	}

	recipe := &entities.Recipe{
		ID:          uuid.New(),
		UserID:      userUUID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Servings:    *req.Servings,
		Ingredients: lines,
	}
	if err := s.recipeRepository.CreateRecipe(ctx, recipe); err != nil {
		return domain.Recipe{}, err
	}

	return toRecipe(recipe), nil
}

func (s *recipeService) GetRecipes(ctx context.Context, userID string, page, limit int) ([]domain.Recipe, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	recipes, count, err := s.recipeRepository.GetRecipes(ctx, userID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	result := make([]domain.Recipe, 0, len(recipes))
	for _, recipe := range recipes {
		result = append(result, toRecipe(recipe))
	}
	return result, count, nil
}

// GetRecipeDetail costs the recipe against current stock. A price is suggested only when
// a margin is supplied.
func (s *recipeService) GetRecipeDetail(ctx context.Context, recipeID string, margin *string, userID string) (domain.RecipeDetail, error) {
	recipe, err := s.getOwned(ctx, recipeID, userID)
	if err != nil {
		return domain.RecipeDetail{}, err
	}

	summary := costing.Cost(costingLines(recipe), recipe.Servings)

	detail := domain.RecipeDetail{
		Recipe:         toRecipe(recipe),
		TotalCost:      summary.TotalCost.InexactFloat64(),
		CostPerServing: summary.CostPerServing.InexactFloat64(),
		Warnings:       summary.Warnings,
	}
	if margin != nil {
		suggestion := costing.SuggestPrice(summary.TotalCost, *margin)
		detail.SuggestedPrice = &suggestion
	}
	return detail, nil
}

func (s *recipeService) UpdateRecipe(ctx context.Context, recipeID string, req domain.UpdateRecipeRequest, userID string) (domain.Recipe, error) {
	if _, err := s.getOwned(ctx, recipeID, userID); err != nil {
		return domain.Recipe{}, err
	}

	fields := map[string]interface{}{}
	if req.Name != nil {
		fields["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.Servings != nil {
		if *req.Servings < 0 {
			return domain.Recipe{}, domain.ErrInvalidServings
		}
		fields["servings"] = *req.Servings
	}

	var lines *[]entities.RecipeIngredient
	if req.Ingredients != nil {
		built, err := s.buildLines(ctx, *req.Ingredients, userID)
		if err != nil {
			return domain.Recipe{}, err
		}
		lines = &built
	}

	if err := s.recipeRepository.UpdateRecipe(ctx, recipeID, userID, fields, lines); err != nil {
		return domain.Recipe{}, notFound(err)
	}

	updated, err := s.getOwned(ctx, recipeID, userID)
	if err != nil {
		return domain.Recipe{}, err
	}
	return toRecipe(updated), nil
}

func (s *recipeService) DeleteRecipe(ctx context.Context, recipeID string, userID string) error {
	if _, err := uuid.Parse(recipeID); err != nil {
		return domain.ErrRecipeNotFound
	}
	return notFound(s.recipeRepository.DeleteRecipe(ctx, recipeID, userID))
}

// BakeRecipe consumes scale times every line from stock, all or nothing.
func (s *recipeService) BakeRecipe(ctx context.Context, recipeID string, rawScale string, userID string) (domain.BakeRecipeResponse, error) {
	recipe, err := s.getOwned(ctx, recipeID, userID)
	if err != nil {
		return domain.BakeRecipeResponse{}, err
	}

	if strings.TrimSpace(rawScale) == "" {
		rawScale = "1"
	}
	scale, err := ingredient.ParseAmount(rawScale)
	if err != nil {
		return domain.BakeRecipeResponse{}, domain.ErrInvalidScale
	}

	// several lines may draw on the same ingredient
	required := map[string]decimal.Decimal{}
	order := make([]string, 0, len(recipe.Ingredients))
	for _, line := range recipe.Ingredients {
		if !resolvable(recipe, line) {
			return domain.BakeRecipeResponse{}, fmt.Errorf("%w: %s", domain.ErrIngredientNotFound, line.IngredientID)
		}
		id := line.IngredientID.String()
		if _, seen := required[id]; !seen {
			order = append(order, id)
		}
		used := decimal.NewFromFloat(line.Amount).Mul(decimal.NewFromFloat(scale))
		required[id] = required[id].Add(used)
	}

	deductions := make([]ingredient.StockDeduction, 0, len(order))
	for _, id := range order {
		deductions = append(deductions, ingredient.StockDeduction{
			IngredientID: id,
			Amount:       required[id].InexactFloat64(),
		})
	}

	updated, err := s.ingredientRepository.DeductMany(ctx, userID, deductions)
	if err != nil {
		return domain.BakeRecipeResponse{}, err
	}

	byID := make(map[string]*entities.Ingredient, len(updated))
	for _, item := range updated {
		byID[item.ID.String()] = item
	}

	res := domain.BakeRecipeResponse{
		RecipeID:    recipe.ID.String(),
		Scale:       scale,
		Ingredients: make([]domain.BakedIngredient, 0, len(order)),
	}
	for _, id := range order {
		item := byID[id]
		if s.notifier != nil {
			before := decimal.NewFromFloat(item.Quantity).Add(required[id]).InexactFloat64()
			s.notifier.NotifyIfLow(ctx, before, item)
		}
		res.Ingredients = append(res.Ingredients, domain.BakedIngredient{
			ID:          id,
			Name:        item.Name,
			Used:        required[id].InexactFloat64(),
			NewQuantity: item.Quantity,
		})
	}
	return res, nil
}

func (s *recipeService) getOwned(ctx context.Context, recipeID string, userID string) (*entities.Recipe, error) {
	if _, err := uuid.Parse(recipeID); err != nil {
		return nil, domain.ErrRecipeNotFound
	}
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID, userID)
	if err != nil {
		return nil, notFound(err)
	}
	return recipe, nil
}

// buildLines validates usage lines; every ingredient must belong to the recipe owner.
func (s *recipeService) buildLines(ctx context.Context, reqs []domain.RecipeIngredientRequest, userID string) ([]entities.RecipeIngredient, error) {
	ids := make([]string, 0, len(reqs))
	for _, req := range reqs {
		if _, err := uuid.Parse(req.Ingredient); err != nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrInvalidRecipeIngredient, req.Ingredient)
		}
		if req.Amount <= 0 {
			return nil, domain.ErrInvalidAmount
		}
		ids = append(ids, req.Ingredient)
	}

	owned, err := s.ingredientRepository.GetIngredientsByIDs(ctx, userID, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*entities.Ingredient, len(owned))
	for _, item := range owned {
		byID[item.ID.String()] = item
	}

	lines := make([]entities.RecipeIngredient, 0, len(reqs))
	for i, req := range reqs {
		item, ok := byID[req.Ingredient]
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrInvalidRecipeIngredient, req.Ingredient)
		}
		lines = append(lines, entities.RecipeIngredient{
			ID:           uuid.New(),
			IngredientID: item.ID,
			Amount:       req.Amount,
			Unit:         req.Unit,
			Position:     i,
			Ingredient:   item,
		})
	}
	return lines, nil
}

func resolvable(recipe *entities.Recipe, line entities.RecipeIngredient) bool {
	return line.Ingredient != nil && line.Ingredient.UserID == recipe.UserID
}

func costingLines(recipe *entities.Recipe) []costing.Line {
	lines := make([]costing.Line, 0, len(recipe.Ingredients))
	for _, line := range recipe.Ingredients {
		cl := costing.Line{Amount: line.Amount}
		if resolvable(recipe, line) {
			cl.Stock = &costing.Stock{
				Name:     line.Ingredient.Name,
				Quantity: line.Ingredient.Quantity,
				UnitCost: line.Ingredient.Cost,
			}
		}
		lines = append(lines, cl)
	}
	return lines
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrRecipeNotFound
	}
	return err
}

func toRecipe(recipe *entities.Recipe) domain.Recipe {
	lines := make([]domain.RecipeIngredientResponse, 0, len(recipe.Ingredients))
	for _, line := range recipe.Ingredients {
		name := ""
		if line.Ingredient != nil {
			name = line.Ingredient.Name
		}
		lines = append(lines, domain.RecipeIngredientResponse{
			ID:             line.ID.String(),
			Ingredient:     line.IngredientID.String(),
			IngredientName: name,
			Amount:         line.Amount,
			Unit:           line.Unit,
		})
	}

	return domain.Recipe{
		ID:          recipe.ID.String(),
		Name:        recipe.Name,
		Description: recipe.Description,
		Servings:    recipe.Servings,
		CreatedAt:   recipe.CreatedAt,
		Ingredients: lines,
	}
}
