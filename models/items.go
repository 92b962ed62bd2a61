package models

import (
	"github.com/shopspring/decimal"
)

// Item is a stock item. Code is allocated from the item group hierarchy
// and is unique across all items.
type Item struct {
	ID           uint            `gorm:"primaryKey"`
	Code         string          `gorm:"uniqueIndex;not null"`
	Name         string          `gorm:"not null"`
	StandardRate decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	ItemGroupID  uint            `gorm:"not null"`
	ItemGroup    ItemGroup       `gorm:"foreignKey:ItemGroupID"`
}

func (i *Item) TableName() string {
	return "items"
}
