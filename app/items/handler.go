package items

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dsierp/itemcodes/app/respond"
	"github.com/dsierp/itemcodes/itemcode"
	"github.com/dsierp/itemcodes/models"
	"github.com/shopspring/decimal"
)

type Response struct {
	Total int    `json:"total"`
	Items []Item `json:"items"`
}

type ItemGroup struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

type Item struct {
	Code         string    `json:"code"`
	Name         string    `json:"item_name"`
	StandardRate float64   `json:"standard_rate"`
	ItemGroup    ItemGroup `json:"item_group"`
}

type RenameResponse struct {
	OldCode string `json:"old_code"`
	NewCode string `json:"new_code"`
	Renamed bool   `json:"renamed"`
}

type PreviewResponse struct {
	ItemCode string `json:"item_code"`
	Prefix   string `json:"prefix"`
	Fallback bool   `json:"fallback,omitempty"`
}

type ItemProvider interface {
	GetFilteredItems(ctx context.Context, offset, limit int, filters models.ItemFilters) ([]models.Item, int64, error)
	GetByCode(ctx context.Context, code string) (*models.Item, error)
	CreateItem(ctx context.Context, item *models.Item) error
	UpdateCode(ctx context.Context, id uint, code string, itemGroupID uint) error
}

type ItemGroupProvider interface {
	GetByName(ctx context.Context, name string) (*models.ItemGroup, error)
}

type CodeAllocator interface {
	Prefix(ctx context.Context, itemGroup string) (string, error)
	Preview(ctx context.Context, req itemcode.Request) (itemcode.Allocation, error)
	Allocate(ctx context.Context, req itemcode.Request, commit itemcode.CommitFunc) (itemcode.Allocation, error)
}

type ItemHandler struct {
	repo      ItemProvider
	groups    ItemGroupProvider
	allocator CodeAllocator
	logger    *slog.Logger
}

func NewItemHandler(r ItemProvider, g ItemGroupProvider, a CodeAllocator, logger *slog.Logger) *ItemHandler {
	return &ItemHandler{
		repo:      r,
		groups:    g,
		allocator: a,
		logger:    logger,
	}
}

func (h *ItemHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	offset := 0
	limit := 10

	if oStr := r.URL.Query().Get("offset"); oStr != "" {
		if o, err := strconv.Atoi(oStr); err == nil && o >= 0 {
			offset = o
		}
	}

	if lStr := r.URL.Query().Get("limit"); lStr != "" {
		if l, err := strconv.Atoi(lStr); err == nil {
			if l < 1 {
				limit = 1
			} else if l > 100 {
				limit = 100
			} else {
				limit = l
			}
		}
	}

	filters := models.ItemFilters{
		ItemGroup: r.URL.Query().Get("item_group"),
	}

	res, total, err := h.repo.GetFilteredItems(r.Context(), offset, limit, filters)
	if err != nil {
		h.logger.Error("listing items", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to get items")
		return
	}

	items := make([]Item, len(res))
	for i, item := range res {
		items[i] = toItem(item)
	}

	respond.JSON(w, http.StatusOK, Response{
		Total: int(total),
		Items: items,
	})
}

func (h *ItemHandler) HandleGetItem(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")

	item, err := h.repo.GetByCode(r.Context(), code)
	if err != nil {
		if errors.Is(err, models.ErrItemNotFound) {
			respond.Error(w, http.StatusNotFound, "Item not found")
			return
		}
		h.logger.Error("fetching item", "code", code, "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to get item")
		return
	}

	respond.JSON(w, http.StatusOK, toItem(*item))
}

// HandleCreate stores a new item under the next free code of its group.
func (h *ItemHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name         string          `json:"item_name"`
		ItemGroup    string          `json:"item_group"`
		StandardRate decimal.Decimal `json:"standard_rate"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if input.Name == "" || input.ItemGroup == "" {
		respond.Error(w, http.StatusBadRequest, "Missing item_name or item_group")
		return
	}
	if input.StandardRate.IsNegative() {
		respond.Error(w, http.StatusBadRequest, "standard_rate must not be negative")
		return
	}

	group, ok := h.lookupGroup(r.Context(), w, input.ItemGroup)
	if !ok {
		return
	}

	item := &models.Item{
		Name:         input.Name,
		StandardRate: input.StandardRate,
		ItemGroupID:  group.ID,
		ItemGroup:    *group,
	}

	_, err := h.allocator.Allocate(r.Context(), itemcode.Request{ItemGroup: group.Name},
		func(ctx context.Context, code string) error {
			item.Code = code
			return h.repo.CreateItem(ctx, item)
		})
	if err != nil {
		h.writeAllocationError(w, err, group.Name)
		return
	}

	respond.JSON(w, http.StatusCreated, toItem(*item))
}

// HandleChangeItemGroup moves an item to another group. The item is
// re-coded only when its code does not already carry the new prefix.
func (h *ItemHandler) HandleChangeItemGroup(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")

	var input struct {
		ItemGroup string `json:"item_group"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if input.ItemGroup == "" {
		respond.Error(w, http.StatusBadRequest, "Missing item_group")
		return
	}

	item, err := h.repo.GetByCode(r.Context(), code)
	if err != nil {
		if errors.Is(err, models.ErrItemNotFound) {
			respond.Error(w, http.StatusNotFound, "Item not found")
			return
		}
		h.logger.Error("fetching item", "code", code, "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to get item")
		return
	}

	group, ok := h.lookupGroup(r.Context(), w, input.ItemGroup)
	if !ok {
		return
	}

	prefix, err := h.allocator.Prefix(r.Context(), group.Name)
	if err != nil {
		h.writeAllocationError(w, err, group.Name)
		return
	}

	if !itemcode.NeedsReallocation(item.Code, prefix) {
		if err := h.repo.UpdateCode(r.Context(), item.ID, item.Code, group.ID); err != nil {
			h.writeAllocationError(w, err, group.Name)
			return
		}
		respond.JSON(w, http.StatusOK, RenameResponse{OldCode: item.Code, NewCode: item.Code})
		return
	}

	alloc, err := h.allocator.Allocate(r.Context(), itemcode.Request{ItemGroup: group.Name, ExcludeCode: item.Code},
		func(ctx context.Context, newCode string) error {
			return h.repo.UpdateCode(ctx, item.ID, newCode, group.ID)
		})
	if err != nil {
		h.writeAllocationError(w, err, group.Name)
		return
	}

	h.logger.Info("item renamed", "old_code", item.Code, "new_code", alloc.Code)
	respond.JSON(w, http.StatusOK, RenameResponse{OldCode: item.Code, NewCode: alloc.Code, Renamed: true})
}

// HandlePreview reports the code an item in item_group would receive.
// With current_item set, an item whose code already fits keeps it.
func (h *ItemHandler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	groupName := r.URL.Query().Get("item_group")
	if groupName == "" {
		respond.Error(w, http.StatusBadRequest, "Missing item_group")
		return
	}

	alloc, err := h.allocator.Preview(r.Context(), itemcode.Request{ItemGroup: groupName})
	if err != nil {
		h.writeAllocationError(w, err, groupName)
		return
	}

	if current := r.URL.Query().Get("current_item"); current != "" && !itemcode.NeedsReallocation(current, alloc.Prefix) {
		alloc.Code = current
		alloc.Fallback = false
	}

	respond.JSON(w, http.StatusOK, PreviewResponse{
		ItemCode: alloc.Code,
		Prefix:   alloc.Prefix,
		Fallback: alloc.Fallback,
	})
}

func (h *ItemHandler) lookupGroup(ctx context.Context, w http.ResponseWriter, name string) (*models.ItemGroup, bool) {
	group, err := h.groups.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, models.ErrItemGroupNotFound) {
			respond.Error(w, http.StatusBadRequest, "Unknown item group")
			return nil, false
		}
		h.logger.Error("fetching item group", "item_group", name, "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to get item group")
		return nil, false
	}
	return group, true
}

func (h *ItemHandler) writeAllocationError(w http.ResponseWriter, err error, itemGroup string) {
	switch {
	case errors.Is(err, itemcode.ErrCategoryNotFound):
		respond.Error(w, http.StatusBadRequest, "Unknown item group")
	case errors.Is(err, itemcode.ErrMaxDepthExceeded), errors.Is(err, itemcode.ErrCategoryCycle):
		respond.Error(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, models.ErrCodeTaken):
		respond.Error(w, http.StatusConflict, "Item code already taken, retry")
	case errors.Is(err, models.ErrItemNotFound):
		respond.Error(w, http.StatusNotFound, "Item not found")
	default:
		h.logger.Error("allocating item code", "item_group", itemGroup, "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to allocate item code")
	}
}

func toItem(item models.Item) Item {
	return Item{
		Code:         item.Code,
		Name:         item.Name,
		StandardRate: item.StandardRate.InexactFloat64(),
		ItemGroup: ItemGroup{
			Name:        item.ItemGroup.Name,
			DisplayName: item.ItemGroup.DisplayName,
		},
	}
}
