package main

import (
	"log/slog"
	"net/http"

	"github.com/dsierp/itemcodes/app/categories"
	"github.com/dsierp/itemcodes/app/items"
	"github.com/dsierp/itemcodes/app/middleware"
	"github.com/dsierp/itemcodes/config"
	"github.com/dsierp/itemcodes/itemcode"
	"github.com/dsierp/itemcodes/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

func newAllocator(cfg *config.Config, groups *models.ItemGroupsRepository, itemsRepo *models.ItemsRepository, reg prometheus.Registerer, logger *slog.Logger) *itemcode.Allocator {
	resolver := itemcode.NewResolver(groups, logger)
	resolver.Root = cfg.RootItemGroup
	resolver.MaxDepth = cfg.PrefixMaxDepth

	opts := []itemcode.Option{itemcode.WithMetrics(itemcode.NewMetrics(reg))}
	if cfg.SerializeAllocations {
		opts = append(opts, itemcode.WithSerializer(itemcode.NewPrefixLocker()))
	}
	return itemcode.NewAllocator(resolver, itemsRepo, logger, opts...)
}

func newRouter(cfg *config.Config, db *gorm.DB, logger *slog.Logger) http.Handler {
	reg := prometheus.NewRegistry()
	groups := models.NewItemGroupsRepository(db)
	itemsRepo := models.NewItemsRepository(db)
	allocator := newAllocator(cfg, groups, itemsRepo, reg, logger)

	categoryHandler := categories.NewCategoryHandler(groups, allocator, logger)
	itemHandler := items.NewItemHandler(itemsRepo, groups, allocator, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "ok"}`))
	})
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	mux.HandleFunc("GET /item-groups", categoryHandler.HandleGetAll)
	mux.HandleFunc("POST /item-groups", categoryHandler.HandleCreate)
	mux.HandleFunc("GET /item-groups/{name}/prefix", categoryHandler.HandleGetPrefix)

	mux.HandleFunc("GET /items", itemHandler.HandleGet)
	mux.HandleFunc("POST /items", itemHandler.HandleCreate)
	mux.HandleFunc("GET /items/{code}", itemHandler.HandleGetItem)
	mux.HandleFunc("PUT /items/{code}/item-group", itemHandler.HandleChangeItemGroup)
	mux.HandleFunc("GET /item-code/preview", itemHandler.HandlePreview)

	return middleware.Logging(logger)(mux)
}
