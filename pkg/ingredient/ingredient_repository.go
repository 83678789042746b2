package ingredient

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"kitchen-ledger/domain"
	"kitchen-ledger/entities"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type (
	// Adjustment computes the new quantity of a locked ingredient, or rejects the change.
	Adjustment func(current *entities.Ingredient) (float64, error)

	StockDeduction struct {
		IngredientID string
		Amount       float64
	}

	IngredientRepository interface {
		CreateIngredient(ctx context.Context, ingredient *entities.Ingredient) error
		GetIngredientByID(ctx context.Context, id string, userID string) (*entities.Ingredient, error)
		GetIngredients(ctx context.Context, userID string, filter domain.IngredientFilter) ([]*entities.Ingredient, int64, error)
		GetIngredientsByIDs(ctx context.Context, userID string, ids []string) ([]*entities.Ingredient, error)
		UpdateIngredientFields(ctx context.Context, id string, userID string, fields map[string]interface{}) error
		DeleteIngredient(ctx context.Context, id string, userID string) error

		AdjustQuantity(ctx context.Context, id string, userID string, adjust Adjustment) (*entities.Ingredient, error)
		DeductMany(ctx context.Context, userID string, deductions []StockDeduction) ([]*entities.Ingredient, error)
	}

	ingredientRepository struct {
		db *gorm.DB
	}
)

func NewIngredientRepository(db *gorm.DB) IngredientRepository {
	return &ingredientRepository{db: db}
}

func (r *ingredientRepository) CreateIngredient(ctx context.Context, ingredient *entities.Ingredient) error {
	return r.db.WithContext(ctx).Create(ingredient).Error
}

func (r *ingredientRepository) GetIngredientByID(ctx context.Context, id string, userID string) (*entities.Ingredient, error) {
	var ingredient entities.Ingredient
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&ingredient).Error; err != nil {
		return nil, err
	}
	return &ingredient, nil
}

func (r *ingredientRepository) GetIngredients(ctx context.Context, userID string, filter domain.IngredientFilter) ([]*entities.Ingredient, int64, error) {
	var ingredients []*entities.Ingredient
	var count int64

	offset := (filter.Page - 1) * filter.Limit

	query := r.db.WithContext(ctx).Model(&entities.Ingredient{}).Where("user_id = ?", userID)
	if filter.LowStockOnly {
		query = query.Where("quantity <= low_stock_threshold")
	}

	if err := query.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Offset(offset).Limit(filter.Limit).Order("name asc").Find(&ingredients).Error; err != nil {
		return nil, 0, err
	}

	return ingredients, count, nil
}

func (r *ingredientRepository) GetIngredientsByIDs(ctx context.Context, userID string, ids []string) ([]*entities.Ingredient, error) {
	var ingredients []*entities.Ingredient
	if len(ids) == 0 {
		return ingredients, nil
	}
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND id IN ?", userID, ids).
		Find(&ingredients).Error; err != nil {
		return nil, err
	}
	return ingredients, nil
}

func (r *ingredientRepository) UpdateIngredientFields(ctx context.Context, id string, userID string, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	res := r.db.WithContext(ctx).
		Model(&entities.Ingredient{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteIngredient removes the ingredient together with every recipe line that uses it.
func (r *ingredientRepository) DeleteIngredient(ctx context.Context, id string, userID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&entities.Ingredient{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("ingredient_id = ?", id).Delete(&entities.RecipeIngredient{}).Error
	})
}

// AdjustQuantity runs read-validate-write on one ingredient under a row lock.
func (r *ingredientRepository) AdjustQuantity(ctx context.Context, id string, userID string, adjust Adjustment) (*entities.Ingredient, error) {
	var ingredient entities.Ingredient
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockIngredient(tx, id, userID, &ingredient); err != nil {
			return err
		}

		quantity, err := adjust(&ingredient)
		if err != nil {
			return err
		}

		return writeQuantity(tx, &ingredient, quantity)
	})
	if err != nil {
		return nil, err
	}
	return &ingredient, nil
}

// DeductMany deducts every amount or none. All rows are locked and checked before any write.
func (r *ingredientRepository) DeductMany(ctx context.Context, userID string, deductions []StockDeduction) ([]*entities.Ingredient, error) {
	ordered := make([]StockDeduction, len(deductions))
	copy(ordered, deductions)
	// a fixed lock order keeps concurrent batches from deadlocking
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].IngredientID < ordered[j].IngredientID })

	updated := make([]*entities.Ingredient, 0, len(ordered))
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		quantities := make([]float64, 0, len(ordered))
		for _, d := range ordered {
			var ingredient entities.Ingredient
			if err := lockIngredient(tx, d.IngredientID, userID, &ingredient); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: %s", domain.ErrIngredientNotFound, d.IngredientID)
				}
				return err
			}
			quantity, err := ApplyAdjustment(ingredient.Quantity, d.Amount, Deduct)
			if err != nil {
				return fmt.Errorf("%w: %s", err, ingredient.Name)
			}
			updated = append(updated, &ingredient)
			quantities = append(quantities, quantity)
		}

		for i, ingredient := range updated {
			if err := writeQuantity(tx, ingredient, quantities[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func lockIngredient(tx *gorm.DB, id string, userID string, dest *entities.Ingredient) error {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND user_id = ?", id, userID).
		First(dest).Error
}

func writeQuantity(tx *gorm.DB, ingredient *entities.Ingredient, quantity float64) error {
	now := time.Now()
	if err := tx.Model(&entities.Ingredient{}).
		Where("id = ?", ingredient.ID).
		Updates(map[string]interface{}{"quantity": quantity, "updated_at": now}).Error; err != nil {
		return err
	}
	ingredient.Quantity = quantity
	ingredient.UpdatedAt = now
	return nil
}
