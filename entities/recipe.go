// File: entities/recipe.go
package entities

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Recipe struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Servings    int       `gorm:"not null" json:"servings"`
	CreatedAt   time.Time `gorm:"type:timestamp;autoCreateTime" json:"created_at"`

	User        *User              `gorm:"foreignKey:UserID"`
	Ingredients []RecipeIngredient `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"ingredients"`
}

func (r *Recipe) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (r *Recipe) String() string {
	return fmt.Sprintf("%s (%d servings)", r.Name, r.Servings)
}

// RecipeIngredient is one usage line of a recipe. The ingredient is referenced, not owned.
type RecipeIngredient struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	RecipeID     uuid.UUID `gorm:"type:uuid;index;not null" json:"recipe_id"`
	IngredientID uuid.UUID `gorm:"type:uuid;index;not null" json:"ingredient_id"`
	Amount       float64   `gorm:"not null" json:"amount"`
	Unit         string    `gorm:"size:20" json:"unit"`
	Position     int       `json:"position"`

	Recipe     *Recipe     `gorm:"foreignKey:RecipeID" json:"-"`
	Ingredient *Ingredient `gorm:"foreignKey:IngredientID;constraint:OnDelete:CASCADE" json:"ingredient,omitempty"`
}

func (ri *RecipeIngredient) BeforeCreate(_ *gorm.DB) error {
	if ri.ID == uuid.Nil {
		ri.ID = uuid.New()
	}
	return nil
}

func (ri *RecipeIngredient) String() string {
	ingredientName, recipeName := "unknown", "unknown"
	if ri.Ingredient != nil {
		ingredientName = ri.Ingredient.Name
	}
	if ri.Recipe != nil {
		recipeName = ri.Recipe.Name
	}
	return fmt.Sprintf("%s %s of %s in %s", strconv.FormatFloat(ri.Amount, 'f', -1, 64), ri.Unit, ingredientName, recipeName)
}
