package middleware

import (
	"time"

	"maintenance-service/prometheus"

	"github.com/labstack/echo/v4"
)

// MetricsMiddleware captures request count and duration for each request
func MetricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()

		// Execute the request handler
		err := next(c)

		// Record request duration
		duration := time.Since(start).Seconds()
		prometheus.RecordHTTPRequest(c.Path(), c.Request().Method, c.Response().Status, duration)

		return err
	}
}
