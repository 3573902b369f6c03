package observability

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestMetricsHandlerExposesCollectors(t *testing.T) {
	BulkItems().WithLabelValues("completed").Inc()
	APIRequests().WithLabelValues("POST", "/api/v1/grade", "200").Inc()

	app := fiber.New()
	app.Get("/metrics", MetricsHandler())

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "autograder_bulk_items_total")
	require.Contains(t, string(body), "api_requests_total")
}

func TestRegisterMetricsIsIdempotent(t *testing.T) {
	RegisterMetrics()
	RegisterMetrics()

	require.NotNil(t, GradingDuration())
	require.NotNil(t, GradingScoreRatio())
	require.NotNil(t, BulkBatchesRunning())
	require.NotPanics(t, func() { GradingOutcomes().WithLabelValues("grade", "success").Inc() })
}
