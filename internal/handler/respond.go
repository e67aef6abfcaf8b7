package handler

import (
	"errors"
	"net/http"
	"strconv"

	"maintenance-service/internal/apperr"
	"maintenance-service/internal/middleware"
	"maintenance-service/internal/repository"
	"maintenance-service/pkg/logger"
	"maintenance-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	defaultPage  = 1
	defaultLimit = 20
	maxLimit     = 100
)

// parsePagination reads page/limit query parameters leniently: non-numeric
// or non-positive values fall back to defaults instead of failing the
// request. Limit is capped at 100.
func parsePagination(c echo.Context) repository.ListParams {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page <= 0 {
		page = defaultPage
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 || limit > maxLimit {
		limit = defaultLimit
	}

	return repository.ListParams{Page: page, Limit: limit}
}

// parseID reads a numeric path parameter.
func parseID(c echo.Context, name string) (uint, *apperr.Error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, apperr.BadRequest("invalid " + name)
	}
	return uint(id), nil
}

// respondData renders the success envelope.
func respondData(c echo.Context, status int, payload interface{}) error {
	return c.JSON(status, echo.Map{"data": payload})
}

// respondList renders the success envelope with pagination fields.
func respondList(c echo.Context, items interface{}, total int64, params repository.ListParams) error {
	return c.JSON(http.StatusOK, echo.Map{
		"data":       items,
		"total":      total,
		"page":       params.Page,
		"limit":      params.Limit,
		"totalPages": (int(total) + params.Limit - 1) / params.Limit,
	})
}

// ErrorHandler converts any error escaping a handler into the uniform error
// envelope {"error": code, "message": message, "statusCode": status}.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) && httpErr.Code == http.StatusNotFound {
			appErr = apperr.NotFound("resource not found")
		} else {
			logger.FromContext(c).Error("Unhandled error", zap.Error(err))
			appErr = apperr.Internal("something went wrong")
		}
	}

	prometheus.RecordError(appErr.Code)
	if err := c.JSON(appErr.Status, appErr); err != nil {
		logger.FromContext(c).Error("Failed to write error response", zap.Error(err))
	}
}

// principalFrom pulls the principal set by the auth middleware.
func principalFrom(c echo.Context) (middleware.Principal, *apperr.Error) {
	p, ok := middleware.PrincipalFromContext(c)
	if !ok {
		return middleware.Principal{}, apperr.Unauthenticated("authentication required")
	}
	return p, nil
}
