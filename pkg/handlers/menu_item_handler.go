package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/dishlens/dishlens-engine/pkg/models"
	"github.com/dishlens/dishlens-engine/pkg/services"
)

// MenuItemListResponse for GET /menu-items
type MenuItemListResponse struct {
	Items []*models.MenuItem `json:"items"`
	Total int                `json:"total"`
}

// MenuItemHandler handles catalog read requests.
type MenuItemHandler struct {
	ingestionService services.MenuIngestionService
	logger           *zap.Logger
}

// NewMenuItemHandler creates a new menu item handler.
func NewMenuItemHandler(
	ingestionService services.MenuIngestionService,
	logger *zap.Logger,
) *MenuItemHandler {
	return &MenuItemHandler{
		ingestionService: ingestionService,
		logger:           logger,
	}
}

// RegisterRoutes registers the menu item handler's routes on the given mux.
func (h *MenuItemHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/restaurants/{rid}/menu-items", h.List)
}

// List handles GET /api/restaurants/{rid}/menu-items
func (h *MenuItemHandler) List(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := ParseRestaurantID(w, r, h.logger)
	if !ok {
		return
	}

	items, err := h.ingestionService.ListMenuItems(r.Context(), restaurantID)
	if err != nil {
		h.logger.Error("Failed to list menu items",
			zap.String("restaurant_id", restaurantID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "list_menu_items_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := MenuItemListResponse{
		Items: items,
		Total: len(items),
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
