package items

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/dsierp/itemcodes/itemcode"
	"github.com/dsierp/itemcodes/models"
	"github.com/shopspring/decimal"
)

// --- Mock Repos ---

type MockItemRepo struct {
	SourceItems []models.Item
	Err         error
	CreateErr   error
	UpdateErr   error
	ListErr     error

	// Fields to capture call arguments
	lastCalledOffset  int
	lastCalledLimit   int
	lastCalledFilters models.ItemFilters
	lastCalledCode    string
	created           []models.Item
	updates           []codeUpdate
}

type codeUpdate struct {
	ID          uint
	Code        string
	ItemGroupID uint
}

func (m *MockItemRepo) GetFilteredItems(_ context.Context, offset, limit int, filters models.ItemFilters) ([]models.Item, int64, error) {
	m.lastCalledOffset = offset
	m.lastCalledLimit = limit
	m.lastCalledFilters = filters

	if m.Err != nil {
		return nil, 0, m.Err
	}

	var filtered []models.Item
	for _, item := range m.SourceItems {
		if filters.ItemGroup != "" && item.ItemGroup.Name != filters.ItemGroup {
			continue
		}
		filtered = append(filtered, item)
	}

	total := int64(len(filtered))

	start := min(offset, len(filtered))
	end := min(offset+limit, len(filtered))

	return filtered[start:end], total, nil
}

func (m *MockItemRepo) GetByCode(_ context.Context, code string) (*models.Item, error) {
	m.lastCalledCode = code

	if m.Err != nil {
		return nil, m.Err
	}

	for _, item := range m.SourceItems {
		if item.Code == code {
			found := item
			return &found, nil
		}
	}
	return nil, models.ErrItemNotFound
}

func (m *MockItemRepo) ListCodesWithPrefix(_ context.Context, prefix string) ([]string, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	var codes []string
	for _, item := range m.SourceItems {
		if strings.HasPrefix(item.Code, prefix+"-") {
			codes = append(codes, item.Code)
		}
	}
	return codes, nil
}

func (m *MockItemRepo) CreateItem(_ context.Context, item *models.Item) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	item.ID = uint(len(m.SourceItems) + 1)
	m.SourceItems = append(m.SourceItems, *item)
	m.created = append(m.created, *item)
	return nil
}

func (m *MockItemRepo) UpdateCode(_ context.Context, id uint, code string, itemGroupID uint) error {
	m.updates = append(m.updates, codeUpdate{ID: id, Code: code, ItemGroupID: itemGroupID})
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	for i := range m.SourceItems {
		if m.SourceItems[i].ID == id {
			m.SourceItems[i].Code = code
			m.SourceItems[i].ItemGroupID = itemGroupID
			return nil
		}
	}
	return models.ErrItemNotFound
}

type MockGroupRepo struct {
	Groups []models.ItemGroup
}

func (m *MockGroupRepo) GetByName(_ context.Context, name string) (*models.ItemGroup, error) {
	for _, g := range m.Groups {
		if g.Name == name {
			group := g
			return &group, nil
		}
	}
	return nil, models.ErrItemGroupNotFound
}

func (m *MockGroupRepo) FetchCategory(ctx context.Context, name string) (itemcode.Category, error) {
	group, err := m.GetByName(ctx, name)
	if err != nil {
		return itemcode.Category{}, err
	}
	return group.Category(), nil
}

// --- Helpers ---

func strPtr(s string) *string { return &s }

var testGroups = []models.ItemGroup{
	{ID: 1, Name: "All Item Groups", DisplayName: "All Item Groups"},
	{ID: 2, Name: "Electrical", DisplayName: "Electrical Supplies", ParentName: strPtr("All Item Groups")},
	{ID: 3, Name: "Cables", DisplayName: "Cables", ParentName: strPtr("Electrical")},
	{ID: 4, Name: "Tools", DisplayName: "Tools", ParentName: strPtr("All Item Groups")},
	{ID: 5, Name: "Loop", DisplayName: "Loop", ParentName: strPtr("Loop")},
}

func groupByName(name string) models.ItemGroup {
	for _, g := range testGroups {
		if g.Name == name {
			return g
		}
	}
	panic("unknown test group " + name)
}

func newTestItem(id uint, code, name, group string, rate float64) models.Item {
	g := groupByName(group)
	return models.Item{
		ID:           id,
		Code:         code,
		Name:         name,
		StandardRate: decimal.NewFromFloat(rate),
		ItemGroupID:  g.ID,
		ItemGroup:    g,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestHandler wires a real allocator to the mock repos.
func newTestHandler(repo *MockItemRepo) *ItemHandler {
	groups := &MockGroupRepo{Groups: testGroups}
	allocator := itemcode.NewAllocator(itemcode.NewResolver(groups, nil), repo, discardLogger())
	return NewItemHandler(repo, groups, allocator, discardLogger())
}
