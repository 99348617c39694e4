package handlers

import (
	"encoding/json"
	"net/http"

	"cashflow/internal/logging"
	"cashflow/internal/models"
	"cashflow/internal/services"
)

type AuthHandler struct {
	svc *services.AuthService
	log logging.Logger
}

func NewAuthHandler(svc *services.AuthService, log logging.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, log: log}
}

// @Tags Auth
// @Summary Register a new account
// @Accept json
// @Produce json
// @Param body body models.RegisterRequest true "Register request"
// @Success 201 {object} models.RegistrationStatus
// @Failure 400 {object} models.RegistrationStatus
// @Failure 500 {object} map[string]interface{}
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	status, err := h.svc.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.log, err, http.StatusBadRequest)
		return
	}
	if !status.Success {
		writeJSON(w, http.StatusBadRequest, status)
		return
	}
	writeJSON(w, http.StatusCreated, status)
}

// @Tags Auth
// @Summary Log in with email and password
// @Accept json
// @Produce json
// @Param body body models.LoginRequest true "Login request"
// @Success 200 {object} models.LoginResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	resp, err := h.svc.Login(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.log, err, http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// @Tags Auth
// @Summary Request a password recovery code
// @Description Sends a six digit code to the account's email. The code is never returned.
// @Accept json
// @Produce json
// @Param body body models.ForgotPasswordRequest true "Forgot password request"
// @Success 200 {object} models.MessageResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 429 {object} map[string]interface{}
// @Router /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	resp, err := h.svc.RequestRecoveryCode(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.log, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// @Tags Auth
// @Summary Exchange a recovery code for a recovery token
// @Accept json
// @Produce json
// @Param body body models.ValidateCodeRequest true "Validate code request"
// @Success 200 {object} models.ValidateCodeResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 429 {object} map[string]interface{}
// @Router /auth/validate-code [post]
func (h *AuthHandler) ValidateCode(w http.ResponseWriter, r *http.Request) {
	var req models.ValidateCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	resp, err := h.svc.ValidateCode(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.log, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// @Tags Auth
// @Summary Set a new password with a recovery token
// @Accept json
// @Produce json
// @Param body body models.ResetPasswordRequest true "Reset password request"
// @Success 200 {object} models.MessageResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 429 {object} map[string]interface{}
// @Router /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	resp, err := h.svc.ResetPassword(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.log, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
