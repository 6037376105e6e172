// Package handler contains the HTTP handlers for the agency site API.
//
// This file implements the internal mockup upload endpoint used by the
// agency when publishing design mockups to a client's portal.
//
// Routes (behind AdminAuthMiddleware.Require):
//   - POST /api/admin/projects/{id}/mockups -> HandleUploadMockup
//   - POST /api/admin/projects/{id}/status  -> HandleUpdateStatus
package handler

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/loiredigital/atelier/internal/cms"
	"github.com/loiredigital/atelier/internal/domain"
	"github.com/loiredigital/atelier/internal/service"
	"github.com/loiredigital/atelier/internal/storage"
)

// maxMockupUploadBytes caps a single mockup image upload.
const maxMockupUploadBytes = 10 << 20 // 10 MB

// AdminHandler handles the agency-facing upload endpoint.
type AdminHandler struct {
	store  cms.Store
	files  storage.Storage
	thumbs service.ThumbnailProcessor
	logger *slog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(store cms.Store, files storage.Storage, thumbs service.ThumbnailProcessor, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		store:  store,
		files:  files,
		thumbs: thumbs,
		logger: logger,
	}
}

// RegisterRoutes registers admin routes, wrapped by adminRequired.
func (h *AdminHandler) RegisterRoutes(mux *http.ServeMux, adminRequired func(http.Handler) http.Handler) {
	mux.Handle("POST /api/admin/projects/{id}/mockups", adminRequired(http.HandlerFunc(h.HandleUploadMockup)))
	mux.Handle("POST /api/admin/projects/{id}/status", adminRequired(http.HandlerFunc(h.HandleUpdateStatus)))
}

// HandleUploadMockup stores a mockup image with its thumbnail and
// appends a pending mockup entry to the project record.
//
// Multipart form fields: "image" (the file), "title" (display name).
func (h *AdminHandler) HandleUploadMockup(w http.ResponseWriter, r *http.Request) {
	const op = "admin.upload_mockup"

	projectID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid(op, "Identifiant de projet invalide"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxMockupUploadBytes)
	if err := r.ParseMultipartForm(maxMockupUploadBytes); err != nil {
		ErrorResponse(w, r, h.logger, domain.Errorf(domain.ETOOLARGE, op, "Fichier trop volumineux (max 10 Mo)"))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid(op, "Champ 'image' requis"))
		return
	}
	defer file.Close()

	title := r.FormValue("title")
	if title == "" {
		title = header.Filename
	}

	// Sniff the real content type, never trusting the upload header.
	data, err := io.ReadAll(file)
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Internal(err, op, "read upload"))
		return
	}
	contentType := storage.DetectContentType("", "", bytes.NewReader(data))
	if !storage.IsAllowedMockupType(contentType) {
		ErrorResponse(w, r, h.logger, domain.Invalid(op, "Format d'image non supporté (JPEG, PNG ou WebP)"))
		return
	}

	// Verify the project exists before writing files.
	if _, err := h.store.GetProject(r.Context(), projectID); err != nil {
		if errors.Is(err, cms.ErrNotFound) {
			ErrorResponse(w, r, h.logger, domain.NotFound(op, "project", projectID.String()))
			return
		}
		ErrorResponse(w, r, h.logger, domain.Internal(err, op, "lookup project"))
		return
	}

	ext := storage.ExtensionForContentType(contentType)
	key := storage.MockupKey(projectID, "mockup"+ext)
	if err := h.files.Put(r.Context(), key, bytes.NewReader(data), storage.PutOptions{
		ContentType: contentType,
		MaxSize:     maxMockupUploadBytes,
		Public:      true,
	}); err != nil {
		ErrorResponse(w, r, h.logger, domain.Internal(err, op, "store mockup"))
		return
	}

	imageURL, err := h.files.URL(r.Context(), key, 0)
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Internal(err, op, "mockup URL"))
		return
	}

	// Thumbnail failures don't block the upload; the portal falls back
	// to the full image.
	var thumbnailURL string
	if thumbBytes, _, _, err := h.thumbs.GenerateThumbnail(bytes.NewReader(data), service.ThumbnailMaxWidth); err != nil {
		h.logger.Warn("thumbnail generation failed", "project_id", projectID, "error", err)
	} else {
		thumbKey := storage.ThumbnailKey(projectID, key)
		if err := h.files.Put(r.Context(), thumbKey, bytes.NewReader(thumbBytes), storage.PutOptions{
			ContentType: "image/jpeg",
			Public:      true,
		}); err != nil {
			h.logger.Warn("thumbnail store failed", "project_id", projectID, "error", err)
		} else if url, err := h.files.URL(r.Context(), thumbKey, 0); err == nil {
			thumbnailURL = url
		}
	}

	mockup := domain.Mockup{
		Title:        title,
		ImageURL:     imageURL,
		ThumbnailURL: thumbnailURL,
		Status:       domain.MockupStatusPending,
		UploadedAt:   time.Now(),
	}
	if err := h.store.AddMockup(r.Context(), projectID, mockup); err != nil {
		ErrorResponse(w, r, h.logger, domain.Internal(err, op, "record mockup"))
		return
	}

	h.logger.Info("mockup uploaded",
		"project_id", projectID,
		"key", key,
		"content_type", contentType,
	)

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"mockup":  mockup,
	})
}

type statusUpdateRequest struct {
	Status   string `json:"status"`
	Progress int    `json:"progress"`
}

// Validate checks the status transition payload.
func (r *statusUpdateRequest) Validate() error {
	ve := domain.NewValidationError("admin.update_status")
	switch domain.ProjectStatus(r.Status) {
	case domain.ProjectStatusPendingPayment, domain.ProjectStatusDesign,
		domain.ProjectStatusDevelopment, domain.ProjectStatusReview,
		domain.ProjectStatusCompleted, domain.ProjectStatusDeployed:
	default:
		ve.Add("status", "Statut de projet invalide")
	}
	if r.Progress < 0 || r.Progress > 100 {
		ve.Add("progress", "La progression doit être entre 0 et 100")
	}
	return ve.OrNil()
}

// HandleUpdateStatus moves a project through the delivery pipeline and
// refreshes its progress percentage.
func (h *AdminHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	const op = "admin.update_status"

	projectID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid(op, "Identifiant de projet invalide"))
		return
	}

	var req statusUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if err := req.Validate(); err != nil {
		ValidationErrorResponse(w, r, h.logger, err)
		return
	}

	if err := h.store.UpdateProjectStatus(r.Context(), projectID, domain.ProjectStatus(req.Status), req.Progress); err != nil {
		if errors.Is(err, cms.ErrNotFound) {
			ErrorResponse(w, r, h.logger, domain.NotFound(op, "project", projectID.String()))
			return
		}
		ErrorResponse(w, r, h.logger, domain.Internal(err, op, "update status"))
		return
	}

	h.logger.Info("project status updated",
		"project_id", projectID,
		"status", req.Status,
		"progress", req.Progress,
	)

	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
