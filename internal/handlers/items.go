package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"

	"github.com/calebwray/shapepet/pkg/pet"
)

// ItemsHandler serves the static shop catalog.
//
// GET /v1/items
type ItemsHandler struct {
	logger *slog.Logger
}

func NewItemsHandler(logger *slog.Logger) *ItemsHandler {
	return &ItemsHandler{logger: logger}
}

// CatalogResponse lists the catalog sorted by category then cost.
type CatalogResponse struct {
	Items []pet.ItemDef `json:"items"`
}

func (h *ItemsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		if err := json.NewEncoder(w).Encode(ErrorResponse{
			Error: "Method not allowed. Only GET is supported.",
		}); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}

	catalog := pet.Items()
	items := make([]pet.ItemDef, 0, len(catalog))
	for _, def := range catalog {
		items = append(items, def)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Category != items[j].Category {
			return items[i].Category < items[j].Category
		}
		if items[i].Cost != items[j].Cost {
			return items[i].Cost < items[j].Cost
		}
		return items[i].ID < items[j].ID
	})

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(CatalogResponse{Items: items}); err != nil {
		h.logger.Error("Failed to encode catalog response", "error", err)
	}
}
