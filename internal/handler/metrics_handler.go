package handler

import (
	"fmt"
	"net/http"
	"time"

	"maintenance-service/internal/apperr"
	"maintenance-service/internal/repository"
	"maintenance-service/pkg/cache"
	"maintenance-service/pkg/logger"
	"maintenance-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// MetricsHandler serves the aggregated per-tenant overview. Results are
// cached briefly in redis; a cache failure degrades to direct computation.
type MetricsHandler struct {
	repos *repository.Repositories
	cache *cache.Cache
}

// NewMetricsHandler builds the handler. cache may be nil to disable caching.
func NewMetricsHandler(repos *repository.Repositories, c *cache.Cache) *MetricsHandler {
	return &MetricsHandler{repos: repos, cache: c}
}

func metricsCacheKey(tenantID uint) string {
	return fmt.Sprintf("metrics:tenant:%d", tenantID)
}

// Overview returns aggregated counts for the caller's tenant.
func (h *MetricsHandler) Overview(c echo.Context) error {
	log := logger.FromContext(c)
	p, appErr := principalFrom(c)
	if appErr != nil {
		return appErr
	}

	ctx := c.Request().Context()
	key := metricsCacheKey(p.TenantID)

	if h.cache != nil {
		var cached repository.TenantMetrics
		err := h.cache.GetJSON(ctx, key, &cached)
		if err == nil {
			log.Info("Metrics served from cache", zap.Uint("tenant_id", p.TenantID))
			return respondData(c, http.StatusOK, &cached)
		}
		if err != cache.ErrMiss {
			log.Warn("Metrics cache unavailable", zap.Error(err))
		}
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	metrics, err := h.repos.Metrics.Counts(ctx, p.TenantID)
	if err != nil {
		log.Error("Failed to compute metrics", zap.Uint("tenant_id", p.TenantID), zap.Error(err))
		return apperr.Internal("failed to compute metrics")
	}

	if h.cache != nil {
		if err := h.cache.SetJSON(ctx, key, metrics); err != nil {
			log.Warn("Failed to cache metrics", zap.Error(err))
		}
	}

	log.Info("Metrics computed", zap.Uint("tenant_id", p.TenantID))
	return respondData(c, http.StatusOK, metrics)
}
