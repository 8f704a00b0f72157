package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"familyplan/internal/metrics"
	"familyplan/internal/models"
	"familyplan/internal/service"
)

// ActivityHandler owns activity generation and favorites.
type ActivityHandler struct {
	activityService *service.ActivityService
	log             *logrus.Logger
}

// NewActivityHandler creates a new activity handler
func NewActivityHandler(activityService *service.ActivityService, log *logrus.Logger) *ActivityHandler {
	return &ActivityHandler{
		activityService: activityService,
		log:             log,
	}
}

// Generate handles POST /api/activities/generate.
func (h *ActivityHandler) Generate(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req struct {
		Environment models.Environment `json:"environment"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	activities, err := h.activityService.Generate(r.Context(), user.ID, req.Environment)
	if err != nil {
		metrics.GenerationRequests.WithLabelValues("error").Inc()
		respondServiceError(w, h.log, err)
		return
	}
	metrics.GenerationRequests.WithLabelValues("ok").Inc()

	respondSuccess(w, map[string]interface{}{"activities": activities})
}

// SaveFavorite handles POST /api/activities/favorites.
func (h *ActivityHandler) SaveFavorite(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var activity models.Activity
	if !decodeJSON(w, r, &activity) {
		return
	}

	id, err := h.activityService.SaveFavorite(user.ID, activity)
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}
	respondSuccess(w, map[string]interface{}{"id": id})
}

// ListFavorites handles GET /api/activities/favorites.
func (h *ActivityHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	favorites, err := h.activityService.ListFavorites(user.ID)
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}
	respondSuccess(w, map[string]interface{}{"favorites": favorites})
}

// DeleteFavorite handles DELETE /api/activities/favorites/{id}.
func (h *ActivityHandler) DeleteFavorite(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	id, ok := pathID(r, "id")
	if !ok {
		respondFailure(w, http.StatusBadRequest, "Invalid favorite ID")
		return
	}

	if err := h.activityService.DeleteFavorite(user.ID, id); err != nil {
		respondServiceError(w, h.log, err)
		return
	}
	respondSuccess(w, nil)
}
