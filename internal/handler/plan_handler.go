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

// PlanHandler serves preventive-plan CRUD for the caller's tenant.
type PlanHandler struct {
	repos *repository.Repositories
}

// NewPlanHandler builds the handler over the repository set.
func NewPlanHandler(repos *repository.Repositories) *PlanHandler {
	return &PlanHandler{repos: repos}
}

// PlanRequest defines the structure for plan creation/update requests.
type PlanRequest struct {
	MachineID      uint   `json:"machine_id"`
	Name           string `json:"name"`
	NextDueDate    string `json:"next_due_date"`
	RecurrenceDays int    `json:"recurrence_days"`
	Active         *bool  `json:"active"`
}

// Validate returns the first violated rule, if any.
func (r *PlanRequest) Validate() *apperr.Error {
	if r.MachineID == 0 {
		return apperr.BadRequest("machine_id is required")
	}
	if r.Name == "" {
		return apperr.BadRequest("name is required")
	}
	if r.NextDueDate == "" {
		return apperr.BadRequest("next_due_date is required")
	}
	if _, err := time.Parse(time.RFC3339, r.NextDueDate); err != nil {
		return apperr.BadRequest("next_due_date must be an RFC3339 timestamp")
	}
	if r.RecurrenceDays <= 0 {
		return apperr.BadRequest("recurrence_days must be positive")
	}
	return nil
}

// List retrieves a page of the tenant's preventive plans.
func (h *PlanHandler) List(c echo.Context) error {
	log := logger.FromContext(c)
	p, appErr := principalFrom(c)
	if appErr != nil {
		return appErr
	}

	params := parsePagination(c)

	var machineID uint
	if v, err := strconv.ParseUint(c.QueryParam("machine_id"), 10, 32); err == nil {
		machineID = uint(v)
	}
	var active *bool
	if raw := c.QueryParam("active"); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			active = &v
		}
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	plans, total, err := h.repos.Plans.List(c.Request().Context(), p.TenantID, params, machineID, active)
	if err != nil {
		log.Error("Failed to list plans", zap.Uint("tenant_id", p.TenantID), zap.Error(err))
		return apperr.Internal("failed to retrieve preventive plans")
	}

	return respondList(c, plans, total, params)
}

// Get retrieves a single plan.
func (h *PlanHandler) Get(c echo.Context) error {
	p, appErr := principalFrom(c)
	if appErr != nil {
		return appErr
	}
	id, appErr := parseID(c, "id")
	if appErr != nil {
		return appErr
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	plan, err := h.repos.Plans.FindByID(c.Request().Context(), p.TenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("preventive plan not found")
		}
		logger.FromContext(c).Error("Failed to load plan", zap.Uint("plan_id", id), zap.Error(err))
		return apperr.Internal("failed to retrieve preventive plan")
	}

	return respondData(c, http.StatusOK, plan)
}

// Create adds a preventive plan for a machine of the tenant.
func (h *PlanHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("preventive_plan", "create")

	p, appErr := principalFrom(c)
	if appErr != nil {
		return appErr
	}

	var req PlanRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Failed to parse plan request", zap.Error(err))
		return apperr.BadRequest("invalid request body")
	}
	if err := req.Validate(); err != nil {
		return err
	}

	nextDue, _ := time.Parse(time.RFC3339, req.NextDueDate)
	active := true
	if req.Active != nil {
		active = *req.Active
	}

	plan := model.PreventivePlan{
		MachineID:      req.MachineID,
		Name:           req.Name,
		NextDueDate:    nextDue,
		RecurrenceDays: req.RecurrenceDays,
		Active:         active,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := h.repos.Plans.Create(c.Request().Context(), p.TenantID, &plan); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("machine not found")
		}
		log.Error("Failed to create plan", zap.Error(err))
		return apperr.Internal("failed to create preventive plan")
	}

	log.Info("Preventive plan created",
		zap.Uint("plan_id", plan.ID),
		zap.Uint("machine_id", plan.MachineID),
		zap.Uint("tenant_id", p.TenantID))
	return respondData(c, http.StatusCreated, plan)
}

// Update applies field updates to a plan.
func (h *PlanHandler) Update(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("preventive_plan", "update")

	p, appErr := principalFrom(c)
	if appErr != nil {
		return appErr
	}
	id, appErr := parseID(c, "id")
	if appErr != nil {
		return appErr
	}

	var req struct {
		Name           *string `json:"name"`
		NextDueDate    *string `json:"next_due_date"`
		RecurrenceDays *int    `json:"recurrence_days"`
		Active         *bool   `json:"active"`
	}
	if err := c.Bind(&req); err != nil {
		log.Warn("Failed to parse plan update", zap.Error(err))
		return apperr.BadRequest("invalid request body")
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		if *req.Name == "" {
			return apperr.BadRequest("name must not be empty")
		}
		updates["name"] = *req.Name
	}
	if req.NextDueDate != nil {
		due, err := time.Parse(time.RFC3339, *req.NextDueDate)
		if err != nil {
			return apperr.BadRequest("next_due_date must be an RFC3339 timestamp")
		}
		updates["next_due_date"] = due
	}
	if req.RecurrenceDays != nil {
		if *req.RecurrenceDays <= 0 {
			return apperr.BadRequest("recurrence_days must be positive")
		}
		updates["recurrence_days"] = *req.RecurrenceDays
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}
	if len(updates) == 0 {
		return apperr.BadRequest("no updatable fields provided")
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	plan, err := h.repos.Plans.Update(c.Request().Context(), p.TenantID, id, updates)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("preventive plan not found")
		}
		log.Error("Failed to update plan", zap.Uint("plan_id", id), zap.Error(err))
		return apperr.Internal("failed to update preventive plan")
	}

	log.Info("Preventive plan updated", zap.Uint("plan_id", id), zap.Uint("tenant_id", p.TenantID))
	return respondData(c, http.StatusOK, plan)
}

// Delete removes a plan. Returns a boolean outcome, not the record.
func (h *PlanHandler) Delete(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordEntityOperation("preventive_plan", "delete")

	p, appErr := principalFrom(c)
	if appErr != nil {
		return appErr
	}
	id, appErr := parseID(c, "id")
	if appErr != nil {
		return appErr
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := h.repos.Plans.Delete(c.Request().Context(), p.TenantID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("preventive plan not found")
		}
		log.Error("Failed to delete plan", zap.Uint("plan_id", id), zap.Error(err))
		return apperr.Internal("failed to delete preventive plan")
	}

	log.Info("Preventive plan deleted", zap.Uint("plan_id", id), zap.Uint("tenant_id", p.TenantID))
	return respondData(c, http.StatusOK, echo.Map{"deleted": true})
}
