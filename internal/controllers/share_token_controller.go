package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/quotemint/billing-service/internal/dtos"
	"github.com/quotemint/billing-service/internal/middleware"
	"github.com/quotemint/billing-service/internal/models"
	"github.com/quotemint/billing-service/internal/services"
	"github.com/quotemint/billing-service/internal/utils"
)

type ShareTokenController struct {
	service  *services.ShareTokenService
	validate *validator.Validate
}

func NewShareTokenController(service *services.ShareTokenService) *ShareTokenController {
	return &ShareTokenController{
		service:  service,
		validate: validator.New(),
	}
}

// IssueHandler -> POST /api/v1/projects/{projectID}/share-tokens
func (c *ShareTokenController) IssueHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUserID(w, r)
	if !ok {
		return
	}

	projectID, err := uuid.Parse(mux.Vars(r)["projectID"])
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid project id", nil, err)
		return
	}

	var req dtos.IssueShareTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid request body", nil, err)
		return
	}
	if err := c.validate.Struct(&req); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, "Validation failed", nil, err)
		return
	}

	result, err := c.service.Issue(
		r.Context(), userID, projectID,
		models.DocumentType(req.Type), req.ExpiresInDays, req.InvoiceData,
	)
	if err != nil {
		utils.HandleAppError(w, err)
		return
	}

	status := http.StatusCreated
	if result.Existing {
		status = http.StatusOK
	}
	utils.RespondWithJSON(w, status, dtos.ShareTokenResponse{
		ID:        result.Token.ID,
		Token:     result.Token.Token,
		Type:      string(result.Token.Type),
		ExpiresAt: result.Token.ExpiresAt,
		ShareURL:  result.ShareURL,
		Existing:  result.Existing,
	})
}

// RevokeHandler -> DELETE /api/v1/projects/{projectID}/share-tokens/{tokenID}
func (c *ShareTokenController) RevokeHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUserID(w, r)
	if !ok {
		return
	}

	vars := mux.Vars(r)
	projectID, err := uuid.Parse(vars["projectID"])
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid project id", nil, err)
		return
	}
	tokenID, err := uuid.Parse(vars["tokenID"])
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid token id", nil, err)
		return
	}

	if err := c.service.Revoke(r.Context(), userID, projectID, tokenID); err != nil {
		utils.HandleAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// authedUserID pulls the subject the auth middleware stored. A missing
// or malformed subject means the middleware was bypassed, which is a
// wiring bug, not a client error.
func authedUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw, _ := r.Context().Value(middleware.ContextKeyUserID).(string)
	userID, err := uuid.Parse(raw)
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid subject", nil, err)
		return uuid.Nil, false
	}
	return userID, true
}
