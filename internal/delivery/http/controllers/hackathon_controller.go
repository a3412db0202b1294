package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"hackinvite/internal/delivery/http/helpers"
	"hackinvite/internal/delivery/http/middleware"
	"hackinvite/internal/domain"
)

// CreateHackathonRequest is the request body for POST /hackathons.
type CreateHackathonRequest struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	MinParticipants int    `json:"min_participants"`
	MaxParticipants int    `json:"max_participants"`
	CoverURL        string `json:"cover_url"`
}

// Validate implements Validator.
func (c CreateHackathonRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, "name is required")
	}
	if c.MinParticipants < 0 {
		errs = append(errs, "min_participants must not be negative")
	}
	if c.MaxParticipants > 0 && c.MaxParticipants < c.MinParticipants {
		errs = append(errs, "max_participants must not be less than min_participants")
	}
	return errs
}

// UpdateHackathonRequest is the request body for PATCH /hackathons/{hackathonID}.
// All fields optional; omitted fields are unchanged.
type UpdateHackathonRequest struct {
	Name            *string `json:"name"`
	Description     *string `json:"description"`
	MinParticipants *int    `json:"min_participants"`
	MaxParticipants *int    `json:"max_participants"`
	CoverURL        *string `json:"cover_url"`
}

// Validate implements Validator.
func (u UpdateHackathonRequest) Validate() []string {
	var errs []string
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		errs = append(errs, "name must not be empty")
	}
	if u.MinParticipants != nil && *u.MinParticipants < 0 {
		errs = append(errs, "min_participants must not be negative")
	}
	return errs
}

// RemoveParticipantRequest is the request body for DELETE /hackathons/{hackathonID}/participants.
type RemoveParticipantRequest struct {
	Email string `json:"email"`
}

// Validate implements Validator.
func (r RemoveParticipantRequest) Validate() []string {
	if strings.TrimSpace(r.Email) == "" {
		return []string{"email is required"}
	}
	return nil
}

type HackathonController struct {
	Logger  *slog.Logger
	Service domain.HackathonService
}

func NewHackathonController(logger *slog.Logger, svc domain.HackathonService) *HackathonController {
	return &HackathonController{
		Logger:  logger,
		Service: svc,
	}
}

// Create godoc
// @Summary Create a hackathon
// @Description Create a hackathon. The authenticated user becomes the creator and must be an organizer account.
// @Tags hackathons
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateHackathonRequest true "Hackathon data"
// @Success 201 {object} helpers.APIResponse "data contains the created hackathon"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not an organizer)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /hackathons [post]
func (c *HackathonController) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateHackathonRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	h := &domain.Hackathon{
		CreatorID:       userID,
		Name:            strings.TrimSpace(req.Name),
		Description:     req.Description,
		MinParticipants: req.MinParticipants,
		MaxParticipants: req.MaxParticipants,
		CoverURL:        req.CoverURL,
	}
	if err := c.Service.CreateHackathon(r.Context(), h); err != nil {
		if errors.Is(err, domain.ErrForbidden) {
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "only organizers can create hackathons")
			return
		}
		if errors.Is(err, domain.ErrInvalidInput) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid participant bounds")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, h)
}

// GetByID godoc
// @Summary Get a hackathon by ID
// @Description Returns the hackathon with its participant list.
// @Tags hackathons
// @Produce json
// @Security BearerAuth
// @Param hackathonID path string true "Hackathon ID"
// @Success 200 {object} helpers.APIResponse "data contains the hackathon and participants"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /hackathons/{hackathonID} [get]
func (c *HackathonController) GetByID(w http.ResponseWriter, r *http.Request) {
	hackathonID := r.PathValue("hackathonID")
	if hackathonID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing hackathonID")
		return
	}
	h, err := c.Service.GetHackathon(r.Context(), hackathonID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "hackathon not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, h)
}

// List godoc
// @Summary List hackathons
// @Tags hackathons
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains the hackathon list"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /hackathons [get]
func (c *HackathonController) List(w http.ResponseWriter, r *http.Request) {
	hacks, err := c.Service.ListHackathons(r.Context())
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, hacks)
}

// ListMy godoc
// @Summary List hackathons the caller belongs to
// @Description Returns hackathons the authenticated user created or participates in.
// @Tags hackathons
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains the hackathon list"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /hackathons/my [get]
func (c *HackathonController) ListMy(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	hacks, err := c.Service.ListMyHackathons(r.Context(), userID)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, hacks)
}

// Update godoc
// @Summary Update hackathon details
// @Description Update name, description, participant bounds, or cover URL. Only the creator may update. Omitted fields are unchanged.
// @Tags hackathons
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param hackathonID path string true "Hackathon ID"
// @Param body body UpdateHackathonRequest true "Fields to update (all optional)"
// @Success 200 {object} helpers.APIResponse "data contains the updated hackathon"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not creator)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /hackathons/{hackathonID} [patch]
func (c *HackathonController) Update(w http.ResponseWriter, r *http.Request) {
	hackathonID := r.PathValue("hackathonID")
	if hackathonID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing hackathonID")
		return
	}
	var req UpdateHackathonRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	h, err := c.Service.UpdateHackathon(r.Context(), hackathonID, userID,
		req.Name, req.Description, req.MinParticipants, req.MaxParticipants, req.CoverURL)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "hackathon not found")
			return
		}
		if errors.Is(err, domain.ErrForbidden) {
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, h)
}

// RemoveParticipant godoc
// @Summary Remove a participant
// @Description Remove a participant by email. Only the creator may remove; the creator cannot be removed.
// @Tags hackathons
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param hackathonID path string true "Hackathon ID"
// @Param body body RemoveParticipantRequest true "Participant email"
// @Success 200 {object} helpers.APIResponse "data contains {removed: true}"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not creator)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /hackathons/{hackathonID}/participants [delete]
func (c *HackathonController) RemoveParticipant(w http.ResponseWriter, r *http.Request) {
	hackathonID := r.PathValue("hackathonID")
	if hackathonID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing hackathonID")
		return
	}
	var req RemoveParticipantRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	err := c.Service.RemoveParticipant(r.Context(), hackathonID, userID, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrForbidden):
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
		case errors.Is(err, domain.ErrInvalidInput):
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "the creator cannot be removed")
		case errors.Is(err, domain.ErrUserNotFound), errors.Is(err, domain.ErrNotFound):
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "participant not found")
		default:
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
			helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		}
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]bool{"removed": true})
}
