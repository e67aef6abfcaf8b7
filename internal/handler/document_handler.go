package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"maintenance-service/internal/apperr"
	"maintenance-service/internal/model"
	"maintenance-service/internal/repository"
	"maintenance-service/pkg/logger"
	"maintenance-service/pkg/storage"
	"maintenance-service/prometheus"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const maxDocumentSize = 25 << 20 // 25 MiB

// allowedContentTypes maps accepted upload content types to file extensions.
var allowedContentTypes = map[string]string{
	"application/pdf": ".pdf",
	"image/png":       ".png",
	"image/jpeg":      ".jpg",
}

// DocumentHandler serves machine-document listing and the two-step upload
// flow: prepare-upload issues a presigned credential for a tenant-prefixed
// storage key, confirm-upload re-validates the key and persists metadata.
type DocumentHandler struct {
	repos     *repository.Repositories
	presigner storage.Presigner
}

// NewDocumentHandler builds the handler over the repository set and an
// upload credential issuer.
func NewDocumentHandler(repos *repository.Repositories, presigner storage.Presigner) *DocumentHandler {
	return &DocumentHandler{repos: repos, presigner: presigner}
}

// PrepareUploadRequest describes the file about to be uploaded.
type PrepareUploadRequest struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
}

// Validate returns the first violated rule, if any.
func (r *PrepareUploadRequest) Validate() *apperr.Error {
	if r.Title == "" {
		return apperr.BadRequest("title is required")
	}
	if _, ok := allowedContentTypes[r.ContentType]; !ok {
		return apperr.BadRequest("content_type must be application/pdf, image/png or image/jpeg")
	}
	if r.SizeBytes <= 0 || r.SizeBytes > maxDocumentSize {
		return apperr.BadRequest("size_bytes must be positive and at most 25 MiB")
	}
	return nil
}

// ConfirmUploadRequest persists metadata after a completed upload.
type ConfirmUploadRequest struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	StorageKey  string `json:"storage_key"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
}

// Validate returns the first violated rule, if any.
func (r *ConfirmUploadRequest) Validate() *apperr.Error {
	if r.Title == "" {
		return apperr.BadRequest("title is required")
	}
	if r.StorageKey == "" {
		return apperr.BadRequest("storage_key is required")
	}
	if _, ok := allowedContentTypes[r.ContentType]; !ok {
		return apperr.BadRequest("content_type must be application/pdf, image/png or image/jpeg")
	}
	if r.SizeBytes <= 0 || r.SizeBytes > maxDocumentSize {
		return apperr.BadRequest("size_bytes must be positive and at most 25 MiB")
	}
	return nil
}

// tenantKeyPrefix is the storage-key namespace owned by a tenant.
func tenantKeyPrefix(tenantID uint) string {
	return fmt.Sprintf("tenants/%d/", tenantID)
}

// List retrieves a page of a machine's documents.
func (h *DocumentHandler) List(c echo.Context) error {
	log := logger.FromContext(c)
	p, appErr := principalFrom(c)
	if appErr != nil {
		return appErr
	}
	machineID, appErr := parseID(c, "id")
	if appErr != nil {
		return appErr
	}

	ctx := c.Request().Context()
	if _, err := h.repos.Machines.FindByID(ctx, p.TenantID, machineID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("machine not found")
		}
		log.Error("Failed to load machine", zap.Uint("machine_id", machineID), zap.Error(err))
		return apperr.Internal("failed to retrieve documents")
	}

	params := parsePagination(c)
	defer prometheus.TrackDBOperation("query")(time.Now())
	docs, total, err := h.repos.Documents.ListByMachine(ctx, p.TenantID, machineID, params)
	if err != nil {
		log.Error("Failed to list documents", zap.Uint("machine_id", machineID), zap.Error(err))
		return apperr.Internal("failed to retrieve documents")
	}

	return respondList(c, docs, total, params)
}

// PrepareUpload validates the file description and issues an upload
// credential scoped to a key under the caller's tenant prefix.
func (h *DocumentHandler) PrepareUpload(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("document", "prepare_upload")

	p, appErr := principalFrom(c)
	if appErr != nil {
		return appErr
	}
	machineID, appErr := parseID(c, "id")
	if appErr != nil {
		return appErr
	}

	var req PrepareUploadRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Failed to parse prepare-upload request", zap.Error(err))
		return apperr.BadRequest("invalid request body")
	}
	if err := req.Validate(); err != nil {
		return err
	}

	ctx := c.Request().Context()
	if _, err := h.repos.Machines.FindByID(ctx, p.TenantID, machineID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("machine not found")
		}
		log.Error("Failed to load machine", zap.Uint("machine_id", machineID), zap.Error(err))
		return apperr.Internal("failed to prepare upload")
	}

	key := fmt.Sprintf("%smachines/%d/%s%s",
		tenantKeyPrefix(p.TenantID), machineID, uuid.New().String(), allowedContentTypes[req.ContentType])

	uploadURL, err := h.presigner.PresignPut(ctx, key, req.ContentType)
	if err != nil {
		log.Error("Failed to presign upload", zap.String("key", key), zap.Error(err))
		return apperr.Internal("failed to prepare upload")
	}

	log.Info("Upload prepared",
		zap.String("key", key),
		zap.Uint("machine_id", machineID),
		zap.Uint("tenant_id", p.TenantID))
	return respondData(c, http.StatusOK, echo.Map{
		"upload_url":  uploadURL,
		"storage_key": key,
	})
}

// ConfirmUpload re-validates that the storage key belongs to the caller's
// tenant before persisting document metadata. A foreign prefix is a
// forbidden request, not a validation slip.
func (h *DocumentHandler) ConfirmUpload(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("document", "confirm_upload")

	p, appErr := principalFrom(c)
	if appErr != nil {
		return appErr
	}
	machineID, appErr := parseID(c, "id")
	if appErr != nil {
		return appErr
	}

	var req ConfirmUploadRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Failed to parse confirm-upload request", zap.Error(err))
		return apperr.BadRequest("invalid request body")
	}
	if err := req.Validate(); err != nil {
		return err
	}

	if !strings.HasPrefix(req.StorageKey, tenantKeyPrefix(p.TenantID)) {
		log.Warn("Storage key outside tenant prefix",
			zap.String("key", req.StorageKey),
			zap.Uint("tenant_id", p.TenantID))
		return apperr.Forbidden("storage key does not belong to this tenant")
	}

	ctx := c.Request().Context()
	if _, err := h.repos.Machines.FindByID(ctx, p.TenantID, machineID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("machine not found")
		}
		log.Error("Failed to load machine", zap.Uint("machine_id", machineID), zap.Error(err))
		return apperr.Internal("failed to confirm upload")
	}

	doc := model.MachineDocument{
		MachineID:   machineID,
		Type:        req.Type,
		Title:       req.Title,
		StorageKey:  req.StorageKey,
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
		UploadedBy:  p.UserID,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := h.repos.Documents.Create(ctx, p.TenantID, &doc); err != nil {
		log.Error("Failed to persist document metadata", zap.Error(err))
		return apperr.Internal("failed to confirm upload")
	}

	log.Info("Document confirmed",
		zap.Uint("document_id", doc.ID),
		zap.Uint("machine_id", machineID),
		zap.Uint("tenant_id", p.TenantID))
	return respondData(c, http.StatusCreated, doc)
}
