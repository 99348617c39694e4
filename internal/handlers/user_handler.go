package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"cashflow/internal/logging"
	"cashflow/internal/middleware"
	"cashflow/internal/models"
	"cashflow/internal/services"
)

const maxPhotoBytes = 5 << 20

type UserHandler struct {
	svc *services.UserService
	log logging.Logger
}

func NewUserHandler(svc *services.UserService, log logging.Logger) *UserHandler {
	return &UserHandler{svc: svc, log: log}
}

func (h *UserHandler) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", "missing authenticated user")
	}
	return id, ok
}

// @Tags Account
// @Summary Get the authenticated user
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.PublicUser
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /user/me [get]
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}

	u, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.log, err, http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, u.Public())
}

// @Tags Account
// @Summary Change password
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body models.ChangePasswordRequest true "Change password request"
// @Success 200 {object} models.MessageResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /user/update/password [put]
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req models.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	if err := h.svc.ChangePassword(r.Context(), id, req); err != nil {
		writeServiceError(w, r, h.log, err, http.StatusUnauthorized)
		return
	}
	writeJSONMessage(w, http.StatusOK, "password updated")
}

// @Tags Account
// @Summary Update profile fields
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body models.UpdateUserRequest true "Update user request"
// @Success 200 {object} models.PublicUser
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /user/update [patch]
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req models.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	u, err := h.svc.Update(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, r, h.log, err, http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, u.Public())
}

// @Tags Account
// @Summary Delete the authenticated user
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.MessageResponse
// @Failure 404 {object} map[string]interface{}
// @Router /user/delete [delete]
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, h.log, err, http.StatusUnauthorized)
		return
	}
	writeJSONMessage(w, http.StatusOK, "user deleted")
}

// @Tags Account
// @Summary Upload a profile photo
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param photo formData file true "Image, at most 5 MiB"
// @Success 200 {object} models.PublicUser
// @Failure 400 {object} map[string]interface{}
// @Failure 413 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /user/photo [post]
func (h *UserHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}

	// room for the multipart envelope around the file itself
	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoBytes+(1<<20))
	if err := r.ParseMultipartForm(maxPhotoBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "photo_too_large", "photo must be at most 5 MiB")
			return
		}
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "expected multipart form with a photo field")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("photo")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "photo is required")
		return
	}
	defer file.Close()

	if header.Size > maxPhotoBytes {
		writeJSONError(w, http.StatusRequestEntityTooLarge, "photo_too_large", "photo must be at most 5 MiB")
		return
	}

	// the part's Content-Type is client supplied, so the type comes from the bytes
	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "photo is empty or unreadable")
		return
	}
	contentType := http.DetectContentType(head[:n])
	body := io.MultiReader(bytes.NewReader(head[:n]), file)

	u, err := h.svc.UploadPhoto(r.Context(), id, contentType, body)
	if err != nil {
		if errors.Is(err, services.ErrPhotoStorageDisabled) {
			writeJSONError(w, http.StatusServiceUnavailable, "photo_storage_disabled", err.Error())
			return
		}
		writeServiceError(w, r, h.log, err, http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, u.Public())
}
