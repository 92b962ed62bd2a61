package models

import (
	"context"
	"errors"
	"fmt"

	"github.com/dsierp/itemcodes/itemcode"
	"gorm.io/gorm"
)

// ErrItemGroupNotFound is returned when an item group is not found.
// It matches itemcode.ErrCategoryNotFound under errors.Is.
var ErrItemGroupNotFound = fmt.Errorf("item group: %w", itemcode.ErrCategoryNotFound)

type ItemGroupsRepository struct {
	db *gorm.DB
}

func NewItemGroupsRepository(db *gorm.DB) *ItemGroupsRepository {
	return &ItemGroupsRepository{db: db}
}

func (r *ItemGroupsRepository) GetAllItemGroups(ctx context.Context) ([]ItemGroup, error) {
	var groups []ItemGroup
	if err := r.db.WithContext(ctx).Order("name").Find(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *ItemGroupsRepository) GetByName(ctx context.Context, name string) (*ItemGroup, error) {
	var group ItemGroup
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&group).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemGroupNotFound
		}
		return nil, err
	}
	return &group, nil
}

func (r *ItemGroupsRepository) CreateItemGroup(ctx context.Context, group *ItemGroup) error {
	return r.db.WithContext(ctx).Create(group).Error
}

// FetchCategory implements itemcode.CategoryLookup.
func (r *ItemGroupsRepository) FetchCategory(ctx context.Context, name string) (itemcode.Category, error) {
	group, err := r.GetByName(ctx, name)
	if err != nil {
		return itemcode.Category{}, err
	}
	return group.Category(), nil
}
