package entities

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Ingredient struct {
	ID                uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	UserID            uuid.UUID       `gorm:"type:uuid;index" json:"user_id"`
	Name              string          `gorm:"size:100;not null" json:"name"`
	Quantity          float64         `gorm:"not null" json:"quantity"`
	Unit              string          `gorm:"size:20" json:"unit"`
	Cost              decimal.Decimal `gorm:"type:numeric(8,2);not null" json:"cost"`
	ExpirationDate    *time.Time      `gorm:"type:date" json:"expiration_date,omitempty"`
	LowStockThreshold float64         `gorm:"default:0" json:"low_stock_threshold"`
	ImageURL          string          `json:"image_url,omitempty"`

	User *User `gorm:"foreignKey:UserID"`
	Timestamp
}

func (i *Ingredient) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// IsLowStock reports whether the on-hand quantity has reached the threshold.
func (i *Ingredient) IsLowStock() bool {
	return i.Quantity <= i.LowStockThreshold
}

func (i *Ingredient) String() string {
	return fmt.Sprintf("%s (%s %s)", i.Name, strconv.FormatFloat(i.Quantity, 'f', -1, 64), i.Unit)
}
