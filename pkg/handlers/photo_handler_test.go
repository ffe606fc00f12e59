package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/dishlens/dishlens-engine/pkg/apperrors"
	"github.com/dishlens/dishlens-engine/pkg/services"
)

// mockClassifierForHandler implements services.PhotoClassifierService for
// handler tests.
type mockClassifierForHandler struct {
	result      *services.ClassificationResult
	classifyErr error

	asyncCalls int
}

func (m *mockClassifierForHandler) Classify(ctx context.Context, restaurantID, photoID uuid.UUID) (*services.ClassificationResult, error) {
	if m.classifyErr != nil {
		return nil, m.classifyErr
	}
	return m.result, nil
}

func (m *mockClassifierForHandler) ClassifyAsync(restaurantID, photoID uuid.UUID) {
	m.asyncCalls++
}

func newPhotoMux(svc *mockClassifierForHandler) *http.ServeMux {
	mux := http.NewServeMux()
	NewPhotoHandler(svc, zap.NewNop()).RegisterRoutes(mux)
	return mux
}

func TestClassifyPhotoSync(t *testing.T) {
	photoID := uuid.New()
	menuItemID := uuid.New()
	svc := &mockClassifierForHandler{
		result: &services.ClassificationResult{
			PhotoID:    photoID,
			Outcome:    services.OutcomeMatched,
			DishName:   "Margherita Pizza",
			MenuItemID: &menuItemID,
		},
	}
	mux := newPhotoMux(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/restaurants/"+uuid.NewString()+"/photos/"+photoID.String()+"/classify", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"matched"`)
	assert.Contains(t, rec.Body.String(), menuItemID.String())
	assert.Zero(t, svc.asyncCalls)
}

func TestClassifyPhotoAsync(t *testing.T) {
	photoID := uuid.New()
	svc := &mockClassifierForHandler{}
	mux := newPhotoMux(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/restaurants/"+uuid.NewString()+"/photos/"+photoID.String()+"/classify?async=true", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, 1, svc.asyncCalls)
}

func TestClassifyPhotoNotFound(t *testing.T) {
	svc := &mockClassifierForHandler{classifyErr: apperrors.ErrNotFound}
	mux := newPhotoMux(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/restaurants/"+uuid.NewString()+"/photos/"+uuid.NewString()+"/classify", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClassifyPhotoInvalidID(t *testing.T) {
	mux := newPhotoMux(&mockClassifierForHandler{})

	req := httptest.NewRequest(http.MethodPost, "/api/restaurants/"+uuid.NewString()+"/photos/not-a-uuid/classify", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
