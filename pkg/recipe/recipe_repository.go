package recipe

import (
	"context"

	"kitchen-ledger/entities"

	"gorm.io/gorm"
)

type (
	RecipeRepository interface {
		CreateRecipe(ctx context.Context, recipe *entities.Recipe) error
		GetRecipeByID(ctx context.Context, id string, userID string) (*entities.Recipe, error)
		GetRecipes(ctx context.Context, userID string, page, limit int) ([]*entities.Recipe, int64, error)
		UpdateRecipe(ctx context.Context, id string, userID string, fields map[string]interface{}, lines *[]entities.RecipeIngredient) error
		DeleteRecipe(ctx context.Context, id string, userID string) error
	}

	recipeRepository struct {
		db *gorm.DB
	}
)

func NewRecipeRepository(db *gorm.DB) RecipeRepository {
	return &recipeRepository{db: db}
}

// withLines eagerly loads usage lines in insertion order together with their ingredients.
func withLines(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB {
			return db.Order("position asc")
		}).
		Preload("Ingredients.Ingredient")
}

func (r *recipeRepository) CreateRecipe(ctx context.Context, recipe *entities.Recipe) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Ingredients").Create(recipe).Error; err != nil {
			return err
		}
		for i := range recipe.Ingredients {
			recipe.Ingredients[i].RecipeID = recipe.ID
		}
		if len(recipe.Ingredients) == 0 {
			return nil
		}
		return tx.Omit("Ingredient", "Recipe").Create(&recipe.Ingredients).Error
	})
}

func (r *recipeRepository) GetRecipeByID(ctx context.Context, id string, userID string) (*entities.Recipe, error) {
	var recipe entities.Recipe
	if err := withLines(r.db.WithContext(ctx)).
		Where("id = ? AND user_id = ?", id, userID).
		First(&recipe).Error; err != nil {
		return nil, err
	}
	return &recipe, nil
}

func (r *recipeRepository) GetRecipes(ctx context.Context, userID string, page, limit int) ([]*entities.Recipe, int64, error) {
	var recipes []*entities.Recipe
	var count int64
	offset := (page - 1) * limit

	if err := r.db.WithContext(ctx).
		Model(&entities.Recipe{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if err := withLines(r.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		Offset(offset).
		Limit(limit).
		Order("created_at desc").
		Find(&recipes).Error; err != nil {
		return nil, 0, err
	}

	return recipes, count, nil
}

// UpdateRecipe writes the changed columns and, when lines is non-nil, replaces every usage line.
func (r *recipeRepository) UpdateRecipe(ctx context.Context, id string, userID string, fields map[string]interface{}, lines *[]entities.RecipeIngredient) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var recipe entities.Recipe
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&recipe).Error; err != nil {
			return err
		}

		if len(fields) > 0 {
			if err := tx.Model(&recipe).Updates(fields).Error; err != nil {
				return err
			}
		}

		if lines == nil {
			return nil
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&entities.RecipeIngredient{}).Error; err != nil {
			return err
		}
		if len(*lines) == 0 {
			return nil
		}
		for i := range *lines {
			(*lines)[i].RecipeID = recipe.ID
		}
		return tx.Omit("Ingredient", "Recipe").Create(lines).Error
	})
}

// DeleteRecipe removes the recipe and its usage lines. Referenced ingredients stay.
func (r *recipeRepository) DeleteRecipe(ctx context.Context, id string, userID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&entities.Recipe{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("recipe_id = ?", id).Delete(&entities.RecipeIngredient{}).Error
	})
}
