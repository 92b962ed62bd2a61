package models

import "github.com/dsierp/itemcodes/itemcode"

// ItemGroup is a node of the item group tree.
// ParentName is nil for top-level groups.
type ItemGroup struct {
	ID          uint    `gorm:"primaryKey"`
	Name        string  `gorm:"uniqueIndex;not null"`
	DisplayName string  `gorm:"not null"`
	ParentName  *string `gorm:"index"`
}

func (g *ItemGroup) TableName() string {
	return "item_groups"
}

// Category converts the group to the allocator's view of it.
func (g *ItemGroup) Category() itemcode.Category {
	c := itemcode.Category{
		Name:        g.Name,
		DisplayName: g.DisplayName,
	}
	if g.ParentName != nil {
		c.Parent = *g.ParentName
	}
	return c
}
