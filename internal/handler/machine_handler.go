package handler

import (
	"errors"
	"net/http"
	"time"

	"maintenance-service/internal/apperr"
	"maintenance-service/internal/model"
	"maintenance-service/internal/repository"
	"maintenance-service/pkg/logger"
	"maintenance-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// MachineHandler serves machine CRUD for the caller's tenant.
type MachineHandler struct {
	repos *repository.Repositories
}

// NewMachineHandler builds the handler over the repository set.
func NewMachineHandler(repos *repository.Repositories) *MachineHandler {
	return &MachineHandler{repos: repos}
}

// MachineRequest defines the structure for machine creation/update requests.
type MachineRequest struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Status   string `json:"status"`
	Location string `json:"location"`
	Metadata string `json:"metadata"`
}

// Validate returns the first violated rule, if any.
func (r *MachineRequest) Validate() *apperr.Error {
	if r.Code == "" {
		return apperr.BadRequest("code is required")
	}
	switch r.Status {
	case "", model.MachineStatusOperational, model.MachineStatusDown, model.MachineStatusMaintenance:
	default:
		return apperr.BadRequest("status must be operational, down or maintenance")
	}
	return nil
}

// List retrieves a page of the tenant's machines, optionally filtered by
// status.
func (h *MachineHandler) List(c echo.Context) error {
	log := logger.FromContext(c)
	p, appErr := principalFrom(c)
	if appErr != nil {
		return appErr
	}

	params := parsePagination(c)
	status := c.QueryParam("status")

	defer prometheus.TrackDBOperation("query")(time.Now())
	machines, total, err := h.repos.Machines.List(c.Request().Context(), p.TenantID, params, status)
	if err != nil {
		log.Error("Failed to list machines", zap.Uint("tenant_id", p.TenantID), zap.Error(err))
		return apperr.Internal("failed to retrieve machines")
	}

	log.Info("Machines retrieved",
		zap.Uint("tenant_id", p.TenantID),
		zap.Int("count", len(machines)),
		zap.Int64("total", total))
	return respondList(c, machines, total, params)
}

// Get retrieves a single machine.
func (h *MachineHandler) Get(c echo.Context) error {
	p, appErr := principalFrom(c)
	if appErr != nil {
		return appErr
	}
	id, appErr := parseID(c, "id")
	if appErr != nil {
		return appErr
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	machine, err := h.repos.Machines.FindByID(c.Request().Context(), p.TenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("machine not found")
		}
		logger.FromContext(c).Error("Failed to load machine", zap.Uint("machine_id", id), zap.Error(err))
		return apperr.Internal("failed to retrieve machine")
	}

	return respondData(c, http.StatusOK, machine)
}

// Create adds a machine to the tenant.
func (h *MachineHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("machine", "create")

	p, appErr := principalFrom(c)
	if appErr != nil {
		return appErr
	}

	var req MachineRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Failed to parse machine request", zap.Error(err))
		return apperr.BadRequest("invalid request body")
	}
	if err := req.Validate(); err != nil {
		return err
	}

	status := req.Status
	if status == "" {
		status = model.MachineStatusOperational
	}

	machine := model.Machine{
		Code:     req.Code,
		Name:     req.Name,
		Status:   status,
		Location: req.Location,
		Metadata: req.Metadata,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := h.repos.Machines.Create(c.Request().Context(), p.TenantID, &machine); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			log.Warn("Machine code already exists in tenant",
				zap.String("code", req.Code),
				zap.Uint("tenant_id", p.TenantID))
			return apperr.BadRequest("machine code already exists")
		}
		log.Error("Failed to create machine", zap.Error(err))
		return apperr.Internal("failed to create machine")
	}

	log.Info("Machine created",
		zap.Uint("machine_id", machine.ID),
		zap.String("code", machine.Code),
		zap.Uint("tenant_id", p.TenantID))
	return respondData(c, http.StatusCreated, machine)
}

// Update applies field updates to a machine.
func (h *MachineHandler) Update(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("machine", "update")

	p, appErr := principalFrom(c)
	if appErr != nil {
		return appErr
	}
	id, appErr := parseID(c, "id")
	if appErr != nil {
		return appErr
	}

	var req MachineRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Failed to parse machine request", zap.Error(err))
		return apperr.BadRequest("invalid request body")
	}
	if err := req.Validate(); err != nil {
		return err
	}

	updates := map[string]interface{}{
		"code":     req.Code,
		"name":     req.Name,
		"location": req.Location,
	}
	if req.Status != "" {
		updates["status"] = req.Status
	}
	if req.Metadata != "" {
		updates["metadata"] = req.Metadata
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	machine, err := h.repos.Machines.Update(c.Request().Context(), p.TenantID, id, updates)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return apperr.NotFound("machine not found")
		case errors.Is(err, repository.ErrDuplicate):
			return apperr.BadRequest("machine code already exists")
		}
		log.Error("Failed to update machine", zap.Uint("machine_id", id), zap.Error(err))
		return apperr.Internal("failed to update machine")
	}

	log.Info("Machine updated", zap.Uint("machine_id", id), zap.Uint("tenant_id", p.TenantID))
	return respondData(c, http.StatusOK, machine)
}

// Delete removes a machine. Returns a boolean outcome, not the record.
func (h *MachineHandler) Delete(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("machine", "delete")

	p, appErr := principalFrom(c)
	if appErr != nil {
		return appErr
	}
	id, appErr := parseID(c, "id")
	if appErr != nil {
		return appErr
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := h.repos.Machines.Delete(c.Request().Context(), p.TenantID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("machine not found")
		}
		log.Error("Failed to delete machine", zap.Uint("machine_id", id), zap.Error(err))
		return apperr.Internal("failed to delete machine")
	}

	log.Info("Machine deleted", zap.Uint("machine_id", id), zap.Uint("tenant_id", p.TenantID))
	return respondData(c, http.StatusOK, echo.Map{"deleted": true})
}
