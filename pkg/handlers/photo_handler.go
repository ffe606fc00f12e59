package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/dishlens/dishlens-engine/pkg/apperrors"
	"github.com/dishlens/dishlens-engine/pkg/services"
)

// ClassifyAcceptedResponse for async classification triggers.
type ClassifyAcceptedResponse struct {
	PhotoID string `json:"photo_id"`
	Status  string `json:"status"`
}

// PhotoHandler handles photo classification HTTP requests.
type PhotoHandler struct {
	classifier services.PhotoClassifierService
	logger     *zap.Logger
}

// NewPhotoHandler creates a new photo handler.
func NewPhotoHandler(
	classifier services.PhotoClassifierService,
	logger *zap.Logger,
) *PhotoHandler {
	return &PhotoHandler{
		classifier: classifier,
		logger:     logger,
	}
}

// RegisterRoutes registers the photo handler's routes on the given mux.
func (h *PhotoHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/restaurants/{rid}/photos/{pid}/classify", h.Classify)
}

// Classify handles POST /api/restaurants/{rid}/photos/{pid}/classify.
// By default the photo is classified synchronously and the result returned.
// With ?async=true the work runs detached and the request returns 202
// immediately, which is what the upload flow uses.
func (h *PhotoHandler) Classify(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := ParseRestaurantID(w, r, h.logger)
	if !ok {
		return
	}
	photoID, ok := ParsePhotoID(w, r, h.logger)
	if !ok {
		return
	}

	if r.URL.Query().Get("async") == "true" {
		h.classifier.ClassifyAsync(restaurantID, photoID)
		response := ClassifyAcceptedResponse{
			PhotoID: photoID.String(),
			Status:  "accepted",
		}
		if err := WriteJSON(w, http.StatusAccepted, ApiResponse{Success: true, Data: response}); err != nil {
			h.logger.Error("Failed to write response", zap.Error(err))
		}
		return
	}

	result, err := h.classifier.Classify(r.Context(), restaurantID, photoID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "not_found", "Photo not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to classify photo",
			zap.String("photo_id", photoID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "classify_photo_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: result}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
