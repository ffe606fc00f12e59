package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/dishlens/dishlens-engine/pkg/apperrors"
	"github.com/dishlens/dishlens-engine/pkg/extract"
	"github.com/dishlens/dishlens-engine/pkg/models"
	"github.com/dishlens/dishlens-engine/pkg/services"
)

// ============================================================================
// Request/Response Types
// ============================================================================

// CreateMenuSourceRequest for POST /menu-sources. Exactly one of SourceURL
// and FilePath must be set.
type CreateMenuSourceRequest struct {
	SourceURL string `json:"source_url,omitempty"`
	FilePath  string `json:"file_path,omitempty"`
}

// MenuSourceListResponse for GET /menu-sources
type MenuSourceListResponse struct {
	Sources []*models.MenuSource `json:"sources"`
	Total   int                  `json:"total"`
}

// ExtractImageRequest for POST /menu-sources/extract-image
type ExtractImageRequest struct {
	ImageURL string `json:"image_url"`
}

// ExtractImageResponse for POST /menu-sources/extract-image
type ExtractImageResponse struct {
	Items []models.MenuItemDraft `json:"items"`
	Total int                    `json:"total"`
}

// ============================================================================
// Handler
// ============================================================================

// MenuSourceHandler handles menu source HTTP requests.
type MenuSourceHandler struct {
	ingestionService services.MenuIngestionService
	logger           *zap.Logger
}

// NewMenuSourceHandler creates a new menu source handler.
func NewMenuSourceHandler(
	ingestionService services.MenuIngestionService,
	logger *zap.Logger,
) *MenuSourceHandler {
	return &MenuSourceHandler{
		ingestionService: ingestionService,
		logger:           logger,
	}
}

// RegisterRoutes registers the menu source handler's routes on the given mux.
func (h *MenuSourceHandler) RegisterRoutes(mux *http.ServeMux) {
	base := "/api/restaurants/{rid}/menu-sources"

	mux.HandleFunc("POST "+base, h.Create)
	mux.HandleFunc("GET "+base, h.List)
	mux.HandleFunc("GET "+base+"/{sid}", h.Get)
	mux.HandleFunc("POST "+base+"/{sid}/reprocess", h.Reprocess)
	mux.HandleFunc("POST "+base+"/extract-image", h.ExtractImage)
}

// Create handles POST /api/restaurants/{rid}/menu-sources
func (h *MenuSourceHandler) Create(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := ParseRestaurantID(w, r, h.logger)
	if !ok {
		return
	}
	actorID, ok := ParseActorID(w, r, h.logger)
	if !ok {
		return
	}

	var req CreateMenuSourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	if (req.SourceURL == "") == (req.FilePath == "") {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Exactly one of source_url and file_path is required")
		return
	}

	var source *models.MenuSource
	var err error
	if req.SourceURL != "" {
		if !isHTTPURL(req.SourceURL) {
			h.writeError(w, http.StatusBadRequest, "invalid_source_url", "source_url must be an http or https URL")
			return
		}
		source, err = h.ingestionService.CreateFromURL(r.Context(), restaurantID, actorID, req.SourceURL)
	} else {
		source, err = h.ingestionService.CreateFromImage(r.Context(), restaurantID, actorID, req.FilePath)
	}
	if err != nil {
		h.writeServiceError(w, err, "create_menu_source", restaurantID.String())
		return
	}

	if err := WriteJSON(w, http.StatusAccepted, ApiResponse{Success: true, Data: source}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// List handles GET /api/restaurants/{rid}/menu-sources
func (h *MenuSourceHandler) List(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := ParseRestaurantID(w, r, h.logger)
	if !ok {
		return
	}

	sources, err := h.ingestionService.ListSources(r.Context(), restaurantID)
	if err != nil {
		h.writeServiceError(w, err, "list_menu_sources", restaurantID.String())
		return
	}

	response := MenuSourceListResponse{
		Sources: sources,
		Total:   len(sources),
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/restaurants/{rid}/menu-sources/{sid}
func (h *MenuSourceHandler) Get(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := ParseRestaurantID(w, r, h.logger)
	if !ok {
		return
	}
	sourceID, ok := ParseSourceID(w, r, h.logger)
	if !ok {
		return
	}

	source, err := h.ingestionService.GetSource(r.Context(), restaurantID, sourceID)
	if err != nil {
		h.writeServiceError(w, err, "get_menu_source", restaurantID.String())
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: source}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Reprocess handles POST /api/restaurants/{rid}/menu-sources/{sid}/reprocess
func (h *MenuSourceHandler) Reprocess(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := ParseRestaurantID(w, r, h.logger)
	if !ok {
		return
	}
	sourceID, ok := ParseSourceID(w, r, h.logger)
	if !ok {
		return
	}
	actorID, ok := ParseActorID(w, r, h.logger)
	if !ok {
		return
	}

	source, err := h.ingestionService.Reprocess(r.Context(), restaurantID, sourceID, actorID)
	if err != nil {
		h.writeServiceError(w, err, "reprocess_menu_source", restaurantID.String())
		return
	}

	if err := WriteJSON(w, http.StatusAccepted, ApiResponse{Success: true, Data: source}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ExtractImage handles POST /api/restaurants/{rid}/menu-sources/extract-image.
// Runs extraction synchronously and returns the drafts without writing them
// to the catalog.
func (h *MenuSourceHandler) ExtractImage(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := ParseRestaurantID(w, r, h.logger)
	if !ok {
		return
	}
	actorID, ok := ParseActorID(w, r, h.logger)
	if !ok {
		return
	}

	var req ExtractImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if !isHTTPURL(req.ImageURL) {
		h.writeError(w, http.StatusBadRequest, "invalid_image_url", "image_url must be an http or https URL")
		return
	}

	items, err := h.ingestionService.ExtractImageForReview(r.Context(), restaurantID, actorID,
		extract.ImageInput{URL: req.ImageURL})
	if err != nil {
		if errors.Is(err, extract.ErrNoItems) {
			h.writeError(w, http.StatusUnprocessableEntity, "no_items_found", "No menu items could be extracted from the image")
			return
		}
		h.writeServiceError(w, err, "extract_menu_image", restaurantID.String())
		return
	}

	response := ExtractImageResponse{
		Items: items,
		Total: len(items),
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *MenuSourceHandler) writeServiceError(w http.ResponseWriter, err error, op, restaurantID string) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "not_found", "Resource not found")
	case errors.Is(err, apperrors.ErrForbidden):
		h.writeError(w, http.StatusForbidden, "forbidden", "Caller does not own this restaurant")
	default:
		h.logger.Error("Menu source operation failed",
			zap.String("operation", op),
			zap.String("restaurant_id", restaurantID),
			zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, op+"_failed", err.Error())
	}
}

func (h *MenuSourceHandler) writeError(w http.ResponseWriter, statusCode int, errorCode, message string) {
	if err := ErrorResponse(w, statusCode, errorCode, message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
