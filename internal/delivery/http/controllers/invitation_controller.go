package controllers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"hackinvite/internal/delivery/http/helpers"
	"hackinvite/internal/delivery/http/middleware"
	"hackinvite/internal/domain"
)

// maxUploadSize bounds CSV/txt invite uploads (2 MiB).
const maxUploadSize = 2 << 20

// InviteRequest is the request body for POST /hackathons/{hackathonID}/invitations.
type InviteRequest struct {
	Email string `json:"email"`
}

// Validate implements Validator.
func (i InviteRequest) Validate() []string {
	email := domain.NormalizeEmail(i.Email)
	if email == "" {
		return []string{"email is required"}
	}
	if !emailRegexp.MatchString(email) {
		return []string{"invalid email format"}
	}
	return nil
}

// BatchInviteRequest is the request body for POST /hackathons/{hackathonID}/invitations/batch.
type BatchInviteRequest struct {
	Emails []string `json:"emails"`
}

// Validate implements Validator.
func (b BatchInviteRequest) Validate() []string {
	if len(b.Emails) == 0 {
		return []string{"emails is required"}
	}
	return nil
}

// JoinRequest is the request body for POST /hackathons/{hackathonID}/join.
type JoinRequest struct {
	Token string `json:"token"`
}

// Validate implements Validator.
func (j JoinRequest) Validate() []string {
	if strings.TrimSpace(j.Token) == "" {
		return []string{"token is required"}
	}
	return nil
}

// SendCodeRequest is the request body for POST /hackathons/{hackathonID}/send-code.
type SendCodeRequest struct {
	Email string `json:"email"`
}

// Validate implements Validator.
func (s SendCodeRequest) Validate() []string {
	if domain.NormalizeEmail(s.Email) == "" {
		return []string{"email is required"}
	}
	return nil
}

// VerifyCodeRequest is the request body for POST /confirmation-codes/verify.
type VerifyCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// Validate implements Validator.
func (v VerifyCodeRequest) Validate() []string {
	var errs []string
	if domain.NormalizeEmail(v.Email) == "" {
		errs = append(errs, "email is required")
	}
	if strings.TrimSpace(v.Code) == "" {
		errs = append(errs, "code is required")
	}
	return errs
}

// ListInvitationsResponse is the response body for GET /hackathons/{hackathonID}/invitations.
type ListInvitationsResponse struct {
	Recipients []*domain.Recipient    `json:"recipients"`
	Meta       helpers.PaginationMeta `json:"meta"`
}

type InvitationController struct {
	Logger  *slog.Logger
	Service domain.InvitationService
}

func NewInvitationController(logger *slog.Logger, svc domain.InvitationService) *InvitationController {
	return &InvitationController{
		Logger:  logger,
		Service: svc,
	}
}

// Invite godoc
// @Summary Invite one email to a hackathon
// @Description Issues a single-use invitation token for the email and sends the join link. Only the creator may invite. Inviting the creator's own email is rejected.
// @Tags invitations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param hackathonID path string true "Hackathon ID"
// @Param body body InviteRequest true "Recipient email"
// @Success 201 {object} helpers.APIResponse "data contains the issue result"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (self-invite included)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not creator)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /hackathons/{hackathonID}/invitations [post]
func (c *InvitationController) Invite(w http.ResponseWriter, r *http.Request) {
	hackathonID := r.PathValue("hackathonID")
	if hackathonID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing hackathonID")
		return
	}
	var req InviteRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	res, err := c.Service.IssueInvite(r.Context(), hackathonID, userID, req.Email)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	switch res.Status {
	case domain.IssueStatusSkippedSelfInvite:
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "you cannot invite yourself")
	case domain.IssueStatusPersistFailed:
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "could not store invitation")
	default:
		// delivery_failed still carries a valid stored token, so the
		// invitation exists; report it with its status.
		helpers.WriteJSONSuccess(w, http.StatusCreated, res)
	}
}

// BatchInvite godoc
// @Summary Invite a list of emails
// @Description Issues invitations for each email in order. Emails already belonging to the hackathon are skipped; one failed item does not stop the rest.
// @Tags invitations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param hackathonID path string true "Hackathon ID"
// @Param body body BatchInviteRequest true "Emails to invite"
// @Success 200 {object} helpers.APIResponse "data contains the per-item batch outcome"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not creator)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /hackathons/{hackathonID}/invitations/batch [post]
func (c *InvitationController) BatchInvite(w http.ResponseWriter, r *http.Request) {
	hackathonID := r.PathValue("hackathonID")
	if hackathonID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing hackathonID")
		return
	}
	var req BatchInviteRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	outcome, err := c.Service.RunBatchInvite(r.Context(), hackathonID, userID, req.Emails)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, outcome)
}

// ImportCSV godoc
// @Summary Invite emails from a CSV upload
// @Description Reads the first column of every row of the uploaded CSV (multipart field "file"), strips a UTF-8 BOM if present, and runs a batch invite.
// @Tags invitations
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param hackathonID path string true "Hackathon ID"
// @Param file formData file true "CSV file, emails in the first column"
// @Success 200 {object} helpers.APIResponse "data contains the per-item batch outcome"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (missing or unreadable file)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not creator)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /hackathons/{hackathonID}/invitations/csv [post]
func (c *InvitationController) ImportCSV(w http.ResponseWriter, r *http.Request) {
	c.importFile(w, r, c.Service.RunBatchInviteCSV)
}

// ImportTxt godoc
// @Summary Invite emails from a line-delimited text upload
// @Description Reads one email per line of the uploaded file (multipart field "file") and runs a batch invite.
// @Tags invitations
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param hackathonID path string true "Hackathon ID"
// @Param file formData file true "Text file, one email per line"
// @Success 200 {object} helpers.APIResponse "data contains the per-item batch outcome"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (missing or unreadable file)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not creator)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /hackathons/{hackathonID}/invitations/txt [post]
func (c *InvitationController) ImportTxt(w http.ResponseWriter, r *http.Request) {
	c.importFile(w, r, c.Service.RunBatchInviteLines)
}

func (c *InvitationController) importFile(
	w http.ResponseWriter,
	r *http.Request,
	run func(ctx context.Context, hackathonID, callerID string, src io.Reader) (*domain.BatchOutcome, error),
) {
	hackathonID := r.PathValue("hackathonID")
	if hackathonID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing hackathonID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid multipart form")
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing file")
		return
	}
	defer file.Close()

	outcome, err := run(r.Context(), hackathonID, userID, file)
	if err != nil {
		if errors.Is(err, domain.ErrBatchSourceUnreadable) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "file is empty or unreadable")
			return
		}
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, outcome)
}

// ListInvitations godoc
// @Summary List invited emails
// @Description Paginated list of emails invited to the hackathon, optionally filtered with the search query parameter. Only the creator may list.
// @Tags invitations
// @Produce json
// @Security BearerAuth
// @Param hackathonID path string true "Hackathon ID"
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Param search query string false "Substring filter on email"
// @Success 200 {object} helpers.APIResponse "data contains recipients and pagination meta"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not creator)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /hackathons/{hackathonID}/invitations [get]
func (c *InvitationController) ListInvitations(w http.ResponseWriter, r *http.Request) {
	hackathonID := r.PathValue("hackathonID")
	if hackathonID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing hackathonID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	params := helpers.ParsePagination(r)
	search := strings.TrimSpace(r.URL.Query().Get("search"))
	recipients, total, err := c.Service.ListInvitedEmails(r.Context(), hackathonID, userID, search, params)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ListInvitationsResponse{
		Recipients: recipients,
		Meta:       helpers.NewPaginationMeta(params.Page, params.PageSize, total),
	})
}

// Join godoc
// @Summary Redeem an invitation token
// @Description Redeems a single-use invitation token for the hackathon in the path and adds the authenticated caller as a participant. A token can be redeemed at most once.
// @Tags invitations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param hackathonID path string true "Hackathon ID"
// @Param body body JoinRequest true "Invitation token"
// @Success 200 {object} helpers.APIResponse "data contains the redeem result"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (malformed, forged, expired, or wrong hackathon)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (token already used)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /hackathons/{hackathonID}/join [post]
func (c *InvitationController) Join(w http.ResponseWriter, r *http.Request) {
	hackathonID := r.PathValue("hackathonID")
	if hackathonID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing hackathonID")
		return
	}
	var req JoinRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	res, err := c.Service.RedeemToken(r.Context(), hackathonID, req.Token, userID)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	switch res.Status {
	case domain.RedeemStatusRedeemed:
		helpers.WriteJSONSuccess(w, http.StatusOK, res)
	case domain.RedeemStatusAlreadyUsed:
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "invitation already used")
	case domain.RedeemStatusWrongHackathon:
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invitation was issued for another hackathon")
	default:
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid invitation token")
	}
}

// SendCode godoc
// @Summary Send a confirmation code
// @Description Issues a fresh six-digit confirmation code for an email already on the hackathon's invite list and sends it by email.
// @Tags invitations
// @Accept json
// @Produce json
// @Param hackathonID path string true "Hackathon ID"
// @Param body body SendCodeRequest true "Recipient email"
// @Success 200 {object} helpers.APIResponse "data contains the issue result"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (email not invited)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /hackathons/{hackathonID}/send-code [post]
func (c *InvitationController) SendCode(w http.ResponseWriter, r *http.Request) {
	hackathonID := r.PathValue("hackathonID")
	if hackathonID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing hackathonID")
		return
	}
	var req SendCodeRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	res, err := c.Service.IssueConfirmationCode(r.Context(), hackathonID, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "email not found in hackathon")
			return
		}
		c.writeServiceError(w, r, err)
		return
	}
	if res.Status == domain.IssueStatusPersistFailed {
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "could not store confirmation code")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, res)
}

// VerifyCode godoc
// @Summary Verify a confirmation code
// @Description Checks a six-digit confirmation code against the most recent active code for the email. A matching code is consumed; a non-matching code leaves existing codes usable.
// @Tags invitations
// @Accept json
// @Produce json
// @Param body body VerifyCodeRequest true "Email and code"
// @Success 200 {object} helpers.APIResponse "data contains {verified: true}"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (wrong or used code)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /confirmation-codes/verify [post]
func (c *InvitationController) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req VerifyCodeRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	ok, err := c.Service.RedeemConfirmationCode(r.Context(), req.Email, strings.TrimSpace(req.Code))
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	if !ok {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "wrong or already used code")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]bool{"verified": true})
}

func (c *InvitationController) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "hackathon not found")
	case errors.Is(err, domain.ErrForbidden):
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "only the creator can manage invitations")
	case errors.Is(err, domain.ErrInvalidInput):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
	default:
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
	}
}
