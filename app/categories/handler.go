package categories

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dsierp/itemcodes/app/respond"
	"github.com/dsierp/itemcodes/itemcode"
	"github.com/dsierp/itemcodes/models"
)

type ItemGroupResponse struct {
	Name        string  `json:"name"`
	DisplayName string  `json:"display_name"`
	Parent      *string `json:"parent"`
}

type PrefixResponse struct {
	Name   string `json:"name"`
	Prefix string `json:"prefix"`
}

type ItemGroupProvider interface {
	GetAllItemGroups(ctx context.Context) ([]models.ItemGroup, error)
	GetByName(ctx context.Context, name string) (*models.ItemGroup, error)
	CreateItemGroup(ctx context.Context, group *models.ItemGroup) error
}

type PrefixResolver interface {
	Prefix(ctx context.Context, itemGroup string) (string, error)
}

type CategoryHandler struct {
	repo     ItemGroupProvider
	prefixes PrefixResolver
	logger   *slog.Logger
}

func NewCategoryHandler(r ItemGroupProvider, p PrefixResolver, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{repo: r, prefixes: p, logger: logger}
}

func (h *CategoryHandler) HandleGetAll(w http.ResponseWriter, r *http.Request) {
	groups, err := h.repo.GetAllItemGroups(r.Context())
	if err != nil {
		h.logger.Error("listing item groups", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to fetch item groups")
		return
	}

	response := make([]ItemGroupResponse, len(groups))
	for i, g := range groups {
		response[i] = ItemGroupResponse{
			Name:        g.Name,
			DisplayName: g.DisplayName,
			Parent:      g.ParentName,
		}
	}

	respond.JSON(w, http.StatusOK, response)
}

func (h *CategoryHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name        string `json:"name"`
		DisplayName string `json:"display_name"`
		Parent      string `json:"parent"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if input.Name == "" {
		respond.Error(w, http.StatusBadRequest, "Missing name")
		return
	}
	if input.DisplayName == "" {
		input.DisplayName = input.Name
	}
	if input.Parent == input.Name {
		respond.Error(w, http.StatusBadRequest, "Item group cannot be its own parent")
		return
	}

	group := &models.ItemGroup{
		Name:        input.Name,
		DisplayName: input.DisplayName,
	}

	if input.Parent != "" {
		if _, err := h.repo.GetByName(r.Context(), input.Parent); err != nil {
			if errors.Is(err, models.ErrItemGroupNotFound) {
				respond.Error(w, http.StatusBadRequest, "Unknown parent item group")
				return
			}
			h.logger.Error("fetching parent item group", "parent", input.Parent, "error", err)
			respond.Error(w, http.StatusInternalServerError, "Failed to create item group")
			return
		}
		group.ParentName = &input.Parent
	}

	if err := h.repo.CreateItemGroup(r.Context(), group); err != nil {
		h.logger.Error("creating item group", "name", input.Name, "error", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to create item group")
		return
	}

	respond.JSON(w, http.StatusCreated, map[string]string{
		"message": "Item group created successfully",
	})
}

func (h *CategoryHandler) HandleGetPrefix(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	prefix, err := h.prefixes.Prefix(r.Context(), name)
	switch {
	case err == nil:
	case errors.Is(err, itemcode.ErrCategoryNotFound):
		respond.Error(w, http.StatusNotFound, "Item group not found")
		return
	case errors.Is(err, itemcode.ErrMaxDepthExceeded), errors.Is(err, itemcode.ErrCategoryCycle):
		respond.Error(w, http.StatusUnprocessableEntity, err.Error())
		return
	default:
		h.logger.Error("resolving prefix", "item_group", name, "error", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to resolve prefix")
		return
	}

	respond.JSON(w, http.StatusOK, PrefixResponse{Name: name, Prefix: prefix})
}
