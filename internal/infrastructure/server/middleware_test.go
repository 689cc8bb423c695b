package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRequestMetricsStatus(t *testing.T) {
	tests := []struct {
		name    string
		handler echo.HandlerFunc
		status  string
	}{
		{
			name:    "success",
			handler: func(c echo.Context) error { return c.NoContent(http.StatusAccepted) },
			status:  "202",
		},
		{
			name:    "http error",
			handler: func(c echo.Context) error { return echo.NewHTTPError(http.StatusNotFound) },
			status:  "404",
		},
		{
			name:    "wrapped http error",
			handler: func(c echo.Context) error { return errors.Join(echo.ErrBadRequest) },
			status:  "400",
		},
		{
			name:    "plain error",
			handler: func(c echo.Context) error { return errors.New("boom") },
			status:  "500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requestsTotal := prometheus.NewCounterVec(
				prometheus.CounterOpts{Name: "http_requests_total", Help: "test"},
				[]string{"method", "path", "status"},
			)
			requestDuration := prometheus.NewHistogramVec(
				prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "test"},
				[]string{"method", "path"},
			)

			e := echo.New()
			e.Use(requestMetrics(requestsTotal, requestDuration))
			e.GET("/work", tt.handler)

			e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/work", nil))

			assert.Equal(t, 1, testutil.CollectAndCount(requestsTotal))
			assert.Equal(t, float64(1), testutil.ToFloat64(requestsTotal.WithLabelValues(http.MethodGet, "/work", tt.status)))
		})
	}
}
