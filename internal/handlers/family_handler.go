package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"familyplan/internal/models"
	"familyplan/internal/service"
	"familyplan/internal/validation"
)

// FamilyHandler owns the family graph endpoints: family, members, focus areas
// and resources.
type FamilyHandler struct {
	familyService *service.FamilyService
	emailService  *service.EmailService
	log           *logrus.Logger
}

// NewFamilyHandler creates a new family handler
func NewFamilyHandler(familyService *service.FamilyService, emailService *service.EmailService, log *logrus.Logger) *FamilyHandler {
	return &FamilyHandler{
		familyService: familyService,
		emailService:  emailService,
		log:           log,
	}
}

// GetFamily handles GET /api/family.
func (h *FamilyHandler) GetFamily(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	family, err := h.familyService.GetFamily(user.ID)
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}
	respondSuccess(w, map[string]interface{}{
		"family":  family.Family,
		"members": family.Members,
	})
}

// UpdateFamily handles PUT /api/family.
func (h *FamilyHandler) UpdateFamily(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.familyService.UpdateFamilyName(user.ID, req.Name); err != nil {
		respondServiceError(w, h.log, err)
		return
	}
	respondSuccess(w, nil)
}

// GetInvite handles GET /api/family/invite.
func (h *FamilyHandler) GetInvite(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	family, err := h.familyService.InviteFamily(user.ID)
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}
	respondSuccess(w, map[string]interface{}{
		"familyName": family.Name,
		"inviteCode": family.InviteCode,
	})
}

// SendInvite handles POST /api/family/invite/send.
func (h *FamilyHandler) SendInvite(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validation.ValidateEmail(req.Email); err != nil {
		respondServiceError(w, h.log, err)
		return
	}

	family, err := h.familyService.InviteFamily(user.ID)
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := h.emailService.SendFamilyInviteEmail(ctx, req.Email, family.Name, family.InviteCode); err != nil {
			h.log.WithError(err).Warn("failed to send invite email")
		}
	}()

	respondSuccess(w, nil)
}

type memberRequest struct {
	Name        string            `json:"name"`
	Role        models.MemberRole `json:"role"`
	DateOfBirth *string           `json:"dateOfBirth,omitempty"`
	Bio         string            `json:"bio,omitempty"`
	AvatarColor string            `json:"avatarColor,omitempty"`
}

// AddMember handles POST /api/family/members.
func (h *FamilyHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req memberRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	id, err := h.familyService.AddMember(user.ID, &models.FamilyMember{
		Name:        req.Name,
		Role:        req.Role,
		DateOfBirth: req.DateOfBirth,
		Bio:         req.Bio,
		AvatarColor: req.AvatarColor,
	})
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}
	respondSuccess(w, map[string]interface{}{"id": id})
}

// UpdateMember handles PUT /api/family/members/{id}.
func (h *FamilyHandler) UpdateMember(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	id, ok := pathID(r, "id")
	if !ok {
		respondFailure(w, http.StatusBadRequest, "Invalid member ID")
		return
	}

	var req memberRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	err := h.familyService.UpdateMember(user.ID, &models.FamilyMember{
		ID:          id,
		Name:        req.Name,
		Role:        req.Role,
		DateOfBirth: req.DateOfBirth,
		Bio:         req.Bio,
		AvatarColor: req.AvatarColor,
	})
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}
	respondSuccess(w, nil)
}

// RemoveMember handles DELETE /api/family/members/{id}.
func (h *FamilyHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	id, ok := pathID(r, "id")
	if !ok {
		respondFailure(w, http.StatusBadRequest, "Invalid member ID")
		return
	}

	if err := h.familyService.RemoveMember(user.ID, id); err != nil {
		respondServiceError(w, h.log, err)
		return
	}
	respondSuccess(w, nil)
}

type focusAreaRequest struct {
	Title       string               `json:"title"`
	Description string               `json:"description,omitempty"`
	Category    models.FocusCategory `json:"category"`
	Priority    int                  `json:"priority"`
	MemberID    *int64               `json:"memberId,omitempty"`
}

// ListFocusAreas handles GET /api/focus-areas.
func (h *FamilyHandler) ListFocusAreas(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	areas, err := h.familyService.ListFocusAreas(user.ID)
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}
	respondSuccess(w, map[string]interface{}{"focusAreas": areas})
}

// CreateFocusArea handles POST /api/focus-areas.
func (h *FamilyHandler) CreateFocusArea(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req focusAreaRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	id, err := h.familyService.CreateFocusArea(user.ID, &models.FocusArea{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
		MemberID:    req.MemberID,
	})
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}
	respondSuccess(w, map[string]interface{}{"id": id})
}

// UpdateFocusArea handles PUT /api/focus-areas/{id}.
func (h *FamilyHandler) UpdateFocusArea(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	id, ok := pathID(r, "id")
	if !ok {
		respondFailure(w, http.StatusBadRequest, "Invalid focus area ID")
		return
	}

	var req focusAreaRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	err := h.familyService.UpdateFocusArea(user.ID, &models.FocusArea{
		ID:          id,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
		MemberID:    req.MemberID,
	})
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}
	respondSuccess(w, nil)
}

// DeleteFocusArea handles DELETE /api/focus-areas/{id}.
func (h *FamilyHandler) DeleteFocusArea(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	id, ok := pathID(r, "id")
	if !ok {
		respondFailure(w, http.StatusBadRequest, "Invalid focus area ID")
		return
	}

	if err := h.familyService.DeleteFocusArea(user.ID, id); err != nil {
		respondServiceError(w, h.log, err)
		return
	}
	respondSuccess(w, nil)
}

type resourceRequest struct {
	Name        string             `json:"name"`
	Environment models.Environment `json:"environment"`
	Active      *bool              `json:"active,omitempty"`
}

// ListResources handles GET /api/resources.
func (h *FamilyHandler) ListResources(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	resources, err := h.familyService.ListResources(user.ID)
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}
	respondSuccess(w, map[string]interface{}{"resources": resources})
}

// CreateResource handles POST /api/resources.
func (h *FamilyHandler) CreateResource(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req resourceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	id, err := h.familyService.CreateResource(user.ID, &models.Resource{
		Name:        req.Name,
		Environment: req.Environment,
		Active:      active,
	})
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}
	respondSuccess(w, map[string]interface{}{"id": id})
}

// UpdateResource handles PUT /api/resources/{id}.
func (h *FamilyHandler) UpdateResource(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	id, ok := pathID(r, "id")
	if !ok {
		respondFailure(w, http.StatusBadRequest, "Invalid resource ID")
		return
	}

	var req resourceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	err := h.familyService.UpdateResource(user.ID, &models.Resource{
		ID:          id,
		Name:        req.Name,
		Environment: req.Environment,
		Active:      active,
	})
	if err != nil {
		respondServiceError(w, h.log, err)
		return
	}
	respondSuccess(w, nil)
}

// DeleteResource handles DELETE /api/resources/{id}.
func (h *FamilyHandler) DeleteResource(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	id, ok := pathID(r, "id")
	if !ok {
		respondFailure(w, http.StatusBadRequest, "Invalid resource ID")
		return
	}

	if err := h.familyService.DeleteResource(user.ID, id); err != nil {
		respondServiceError(w, h.log, err)
		return
	}
	respondSuccess(w, nil)
}
