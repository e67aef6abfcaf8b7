package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"maintenance-service/internal/apperr"
	"maintenance-service/internal/model"
	"maintenance-service/internal/repository"
	"maintenance-service/pkg/logger"
	"maintenance-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// WorkOrderHandler serves work-order CRUD and the lifecycle transitions.
type WorkOrderHandler struct {
	repos *repository.Repositories
}

// NewWorkOrderHandler builds the handler over the repository set.
func NewWorkOrderHandler(repos *repository.Repositories) *WorkOrderHandler {
	return &WorkOrderHandler{repos: repos}
}

// WorkOrderRequest defines the structure for work-order creation requests.
type WorkOrderRequest struct {
	MachineID   uint    `json:"machine_id"`
	Type        string  `json:"type"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	DueDate     *string `json:"due_date"`
}

// Validate returns the first violated rule, if any.
func (r *WorkOrderRequest) Validate() *apperr.Error {
	if r.MachineID == 0 {
		return apperr.BadRequest("machine_id is required")
	}
	if r.Title == "" {
		return apperr.BadRequest("title is required")
	}
	switch r.Type {
	case "", model.WorkOrderTypeCorrective, model.WorkOrderTypePreventive:
	default:
		return apperr.BadRequest("type must be corrective or preventive")
	}
	if r.DueDate != nil {
		if _, err := time.Parse(time.RFC3339, *r.DueDate); err != nil {
			return apperr.BadRequest("due_date must be an RFC3339 timestamp")
		}
	}
	return nil
}

// AssignRequest names the user a work order is assigned to.
type AssignRequest struct {
	AssigneeID uint `json:"assignee_id"`
}

// FinishRequest carries the completion payload.
type FinishRequest struct {
	Notes            string `json:"notes"`
	PartsUsed        string `json:"parts_used"`
	TimeSpentMinutes int    `json:"time_spent_minutes"`
}

// Validate returns the first violated rule, if any.
func (r *FinishRequest) Validate() *apperr.Error {
	if r.Notes == "" {
		return apperr.BadRequest("notes are required")
	}
	if r.TimeSpentMinutes < 0 {
		return apperr.BadRequest("time_spent_minutes must not be negative")
	}
	return nil
}

// List retrieves a page of the tenant's work orders with optional filters.
func (h *WorkOrderHandler) List(c echo.Context) error {
	log := logger.FromContext(c)
	p, appErr := principalFrom(c)
	if appErr != nil {
		return appErr
	}

	params := parsePagination(c)
	filter := repository.WorkOrderFilter{Status: c.QueryParam("status")}
	if v, err := strconv.ParseUint(c.QueryParam("machine_id"), 10, 32); err == nil {
		filter.MachineID = uint(v)
	}
	if v, err := strconv.ParseUint(c.QueryParam("assigned_to"), 10, 32); err == nil {
		filter.AssignedTo = uint(v)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	orders, total, err := h.repos.WorkOrder.List(c.Request().Context(), p.TenantID, params, filter)
	if err != nil {
		log.Error("Failed to list work orders", zap.Uint("tenant_id", p.TenantID), zap.Error(err))
		return apperr.Internal("failed to retrieve work orders")
	}

	return respondList(c, orders, total, params)
}

// Get retrieves a single work order.
func (h *WorkOrderHandler) Get(c echo.Context) error {
	p, appErr := principalFrom(c)
	if appErr != nil {
		return appErr
	}
	id, appErr := parseID(c, "id")
	if appErr != nil {
		return appErr
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	wo, err := h.repos.WorkOrder.FindByID(c.Request().Context(), p.TenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("work order not found")
		}
		logger.FromContext(c).Error("Failed to load work order", zap.Uint("work_order_id", id), zap.Error(err))
		return apperr.Internal("failed to retrieve work order")
	}

	return respondData(c, http.StatusOK, wo)
}

// Create opens a new work order on a machine of the tenant.
func (h *WorkOrderHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("work_order", "create")

	p, appErr := principalFrom(c)
	if appErr != nil {
		return appErr
	}

	var req WorkOrderRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Failed to parse work-order request", zap.Error(err))
		return apperr.BadRequest("invalid request body")
	}
	if err := req.Validate(); err != nil {
		return err
	}

	woType := req.Type
	if woType == "" {
		woType = model.WorkOrderTypeCorrective
	}

	wo := model.WorkOrder{
		MachineID:   req.MachineID,
		Type:        woType,
		Title:       req.Title,
		Description: req.Description,
	}
	if req.DueDate != nil {
		due, _ := time.Parse(time.RFC3339, *req.DueDate)
		wo.DueDate = &due
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := h.repos.WorkOrder.Create(c.Request().Context(), p.TenantID, &wo); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("machine not found")
		}
		log.Error("Failed to create work order", zap.Error(err))
		return apperr.Internal("failed to create work order")
	}

	log.Info("Work order created",
		zap.Uint("work_order_id", wo.ID),
		zap.Uint("machine_id", wo.MachineID),
		zap.Uint("tenant_id", p.TenantID))
	return respondData(c, http.StatusCreated, wo)
}

// Update applies generic field updates. Supervisory override: not
// restricted to the assignee.
func (h *WorkOrderHandler) Update(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("work_order", "update")

	p, appErr := principalFrom(c)
	if appErr != nil {
		return appErr
	}
	id, appErr := parseID(c, "id")
	if appErr != nil {
		return appErr
	}

	var req struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		DueDate     *string `json:"due_date"`
	}
	if err := c.Bind(&req); err != nil {
		log.Warn("Failed to parse work-order update", zap.Error(err))
		return apperr.BadRequest("invalid request body")
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		if *req.Title == "" {
			return apperr.BadRequest("title must not be empty")
		}
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.DueDate != nil {
		due, err := time.Parse(time.RFC3339, *req.DueDate)
		if err != nil {
			return apperr.BadRequest("due_date must be an RFC3339 timestamp")
		}
		updates["due_date"] = due
	}
	if len(updates) == 0 {
		return apperr.BadRequest("no updatable fields provided")
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	wo, err := h.repos.WorkOrder.Update(c.Request().Context(), p.TenantID, id, updates)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("work order not found")
		}
		log.Error("Failed to update work order", zap.Uint("work_order_id", id), zap.Error(err))
		return apperr.Internal("failed to update work order")
	}

	log.Info("Work order updated", zap.Uint("work_order_id", id), zap.Uint("tenant_id", p.TenantID))
	return respondData(c, http.StatusOK, wo)
}

// Delete removes a work order. Returns a boolean outcome, not the record.
func (h *WorkOrderHandler) Delete(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("work_order", "delete")

	p, appErr := principalFrom(c)
	if appErr != nil {
		return appErr
	}
	id, appErr := parseID(c, "id")
	if appErr != nil {
		return appErr
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := h.repos.WorkOrder.Delete(c.Request().Context(), p.TenantID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("work order not found")
		}
		log.Error("Failed to delete work order", zap.Uint("work_order_id", id), zap.Error(err))
		return apperr.Internal("failed to delete work order")
	}

	log.Info("Work order deleted", zap.Uint("work_order_id", id), zap.Uint("tenant_id", p.TenantID))
	return respondData(c, http.StatusOK, echo.Map{"deleted": true})
}

// Assign puts a work order into the assigned state. The assignee must hold
// an eligible role within the same tenant.
func (h *WorkOrderHandler) Assign(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTransition("assign")

	p, appErr := principalFrom(c)
	if appErr != nil {
		return appErr
	}
	id, appErr := parseID(c, "id")
	if appErr != nil {
		return appErr
	}

	var req AssignRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Failed to parse assign request", zap.Error(err))
		return apperr.BadRequest("invalid request body")
	}
	if req.AssigneeID == 0 {
		return apperr.BadRequest("assignee_id is required")
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	wo, err := h.repos.WorkOrder.Assign(c.Request().Context(), p.TenantID, id, req.AssigneeID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAssigneeNotEligible):
			log.Warn("Assignee not eligible",
				zap.Uint("assignee_id", req.AssigneeID),
				zap.Uint("tenant_id", p.TenantID))
			return apperr.BadRequest("assignee is not eligible for work orders")
		case errors.Is(err, repository.ErrNotFound):
			return apperr.NotFound("work order not found")
		}
		log.Error("Failed to assign work order", zap.Uint("work_order_id", id), zap.Error(err))
		return apperr.Internal("failed to assign work order")
	}

	log.Info("Work order assigned",
		zap.Uint("work_order_id", id),
		zap.Uint("assignee_id", req.AssigneeID),
		zap.Uint("tenant_id", p.TenantID))
	return respondData(c, http.StatusOK, wo)
}

// Start moves an assigned work order to in_progress. Assignee only; any
// other caller gets not-found.
func (h *WorkOrderHandler) Start(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTransition("start")

	p, appErr := principalFrom(c)
	if appErr != nil {
		return appErr
	}
	id, appErr := parseID(c, "id")
	if appErr != nil {
		return appErr
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	wo, err := h.repos.WorkOrder.Start(c.Request().Context(), p.TenantID, id, p.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("work order not found")
		}
		log.Error("Failed to start work order", zap.Uint("work_order_id", id), zap.Error(err))
		return apperr.Internal("failed to start work order")
	}

	log.Info("Work order started",
		zap.Uint("work_order_id", id),
		zap.Uint("user_id", p.UserID),
		zap.Uint("tenant_id", p.TenantID))
	return respondData(c, http.StatusOK, wo)
}

// Finish completes an in_progress work order with the validated completion
// payload. Assignee only; any other caller gets not-found.
func (h *WorkOrderHandler) Finish(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTransition("finish")

	p, appErr := principalFrom(c)
	if appErr != nil {
		return appErr
	}
	id, appErr := parseID(c, "id")
	if appErr != nil {
		return appErr
	}

	var req FinishRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Failed to parse finish request", zap.Error(err))
		return apperr.BadRequest("invalid request body")
	}
	if err := req.Validate(); err != nil {
		return err
	}

	completion := repository.Completion{
		Notes:            req.Notes,
		PartsUsed:        req.PartsUsed,
		TimeSpentMinutes: req.TimeSpentMinutes,
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	wo, err := h.repos.WorkOrder.Finish(c.Request().Context(), p.TenantID, id, p.UserID, completion)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("work order not found")
		}
		log.Error("Failed to finish work order", zap.Uint("work_order_id", id), zap.Error(err))
		return apperr.Internal("failed to finish work order")
	}

	log.Info("Work order completed",
		zap.Uint("work_order_id", id),
		zap.Uint("user_id", p.UserID),
		zap.Uint("tenant_id", p.TenantID))
	return respondData(c, http.StatusOK, wo)
}
