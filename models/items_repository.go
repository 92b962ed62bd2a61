package models

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

type ItemsRepository struct {
	db *gorm.DB
}

var (
	// ErrItemNotFound is returned when an item is not found.
	ErrItemNotFound = errors.New("item not found")
	// ErrCodeTaken is returned when another item already holds the code.
	ErrCodeTaken = errors.New("item code already taken")
)

type ItemFilters struct {
	ItemGroup string
}

func NewItemsRepository(db *gorm.DB) *ItemsRepository {
	return &ItemsRepository{
		db: db,
	}
}

func (r *ItemsRepository) GetFilteredItems(ctx context.Context, offset, limit int, filters ItemFilters) ([]Item, int64, error) {
	var items []Item
	var total int64

	query := r.db.WithContext(ctx).Model(&Item{}).
		Joins("LEFT JOIN item_groups ON item_groups.id = items.item_group_id").
		Preload("ItemGroup")

	if filters.ItemGroup != "" {
		query = query.Where("item_groups.name = ?", filters.ItemGroup)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("items.code").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

func (r *ItemsRepository) GetByCode(ctx context.Context, code string) (*Item, error) {
	var item Item
	if err := r.db.WithContext(ctx).
		Preload("ItemGroup").
		Where("code = ?", code).
		First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return &item, nil
}

// ListCodesWithPrefix returns every stored code starting with prefix + "-".
func (r *ItemsRepository) ListCodesWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	var codes []string
	if err := r.db.WithContext(ctx).
		Model(&Item{}).
		Where("code LIKE ?", escapeLike(prefix)+"-%").
		Order("code").
		Pluck("code", &codes).Error; err != nil {
		return nil, err
	}
	return codes, nil
}

func (r *ItemsRepository) CreateItem(ctx context.Context, item *Item) error {
	if err := r.db.WithContext(ctx).Omit("ItemGroup").Create(item).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrCodeTaken
		}
		return err
	}
	return nil
}

// UpdateCode moves an item to another group and gives it code.
func (r *ItemsRepository) UpdateCode(ctx context.Context, id uint, code string, itemGroupID uint) error {
	res := r.db.WithContext(ctx).
		Model(&Item{}).
		Where("id = ?", id).
		Updates(map[string]any{"code": code, "item_group_id": itemGroupID})
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return ErrCodeTaken
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrItemNotFound
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
