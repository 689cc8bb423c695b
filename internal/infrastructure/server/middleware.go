// internal/infrastructure/server/middleware.go
package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

// incomingRequestLogger logs every request on arrival, before routing
func (s *Server) incomingRequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			s.logger.
				WithRequestID(c.Response().Header().Get(echo.HeaderXRequestID)).
				LogIncomingRequest(req.Method, req.URL.RequestURI())
			return next(c)
		}
	}
}

// requestMetrics records request counts and latencies per route
func requestMetrics(requestsTotal *prometheus.CounterVec, requestDuration *prometheus.HistogramVec) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			duration := time.Since(start)
			status := c.Response().Status
			if err != nil && !c.Response().Committed {
				// The error handler has not written the response yet
				status = http.StatusInternalServerError
				var he *echo.HTTPError
				if errors.As(err, &he) {
					status = he.Code
				}
			}

			requestsTotal.WithLabelValues(
				c.Request().Method,
				c.Path(),
				fmt.Sprintf("%d", status),
			).Inc()

			requestDuration.WithLabelValues(
				c.Request().Method,
				c.Path(),
			).Observe(duration.Seconds())

			return err
		}
	}
}
