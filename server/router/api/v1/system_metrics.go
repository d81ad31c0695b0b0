package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	aierrors "github.com/hrygo/closetmind/internal/errors"
	"github.com/hrygo/closetmind/internal/version"
	"github.com/hrygo/closetmind/server/internal/observability"
)

// MetricsOverviewResponse represents the overview response of system metrics
type MetricsOverviewResponse struct {
	TotalRequests      int64                                       `json:"total_requests"`
	SuccessRate        float64                                     `json:"success_rate"`
	P50LatencyMs       int64                                       `json:"p50_latency_ms"`
	P95LatencyMs       int64                                       `json:"p95_latency_ms"`
	ErrorCount         int64                                       `json:"error_count"`
	DegradedSelections int64                                       `json:"degraded_selections"`
	Operations         map[string]*observability.OperationSnapshot `json:"operations"`
}

// HealthResponse reports liveness and build information.
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Driver    string `json:"driver"`
	AIEnabled bool   `json:"ai_enabled"`
}

// GetMetricsOverview returns the request metrics collected since start.
// GET /api/v1/system/metrics
func (s *APIV1Service) GetMetricsOverview(c echo.Context) error {
	if s.Metrics == nil {
		return aierrors.ServiceUnavailable("metrics are not collected")
	}
	snapshot := s.Metrics.Snapshot()
	return c.JSON(http.StatusOK, MetricsOverviewResponse{
		TotalRequests:      snapshot.RequestTotal,
		SuccessRate:        snapshot.SuccessRate(),
		P50LatencyMs:       snapshot.P50LatencyMs,
		P95LatencyMs:       snapshot.P95LatencyMs,
		ErrorCount:         snapshot.RequestFailed,
		DegradedSelections: snapshot.DegradedSelections,
		Operations:         snapshot.Operations,
	})
}

// Healthz is the unauthenticated liveness probe.
// GET /healthz
func (s *APIV1Service) Healthz(c echo.Context) error {
	v := s.Profile.Version
	if v == "" {
		v = version.GetCurrentVersion(s.Profile.Mode)
	}
	return c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Version:   v,
		Driver:    s.Profile.Driver,
		AIEnabled: s.Recommender != nil,
	})
}
